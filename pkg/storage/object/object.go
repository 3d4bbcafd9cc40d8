// Package object holds types shared by the storage backends.
package object

import "time"

// Info describes one stored object.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}
