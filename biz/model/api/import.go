package api

// Import row outcomes.
const (
	OutcomeImported    = "imported"
	OutcomeReactivated = "reactivated"
	OutcomeDuplicate   = "duplicate"
	OutcomeFailed      = "failed"
)

// ImportRow is the outcome of one spreadsheet row.
type ImportRow struct {
	Line    int    `json:"line"`
	Serial  string `json:"serial,omitempty"`
	Outcome string `json:"outcome"`
	AssetID uint   `json:"asset_id,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ImportResult summarises a reconciliation import.
type ImportResult struct {
	BatchID     string      `json:"batch_id"`
	Archive     string      `json:"archive,omitempty"`
	Imported    int         `json:"imported"`
	Reactivated int         `json:"reactivated"`
	Duplicates  int         `json:"duplicates"`
	Failed      int         `json:"failed"`
	Errors      int         `json:"errors"`
	Completed   bool        `json:"completed"`
	Rows        []ImportRow `json:"rows"`
}

// Archive describes an archived import upload.
type Archive struct {
	Key          string `json:"key"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
}
