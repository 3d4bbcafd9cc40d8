package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yi-nology/asset_tracker/pkg/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestJWTAuthenticate(t *testing.T) {
	a := NewJWT(testSecret, "asset_tracker")
	ctx := context.Background()

	token, _, err := a.Issue("u-42", "maria", time.Hour)
	require.NoError(t, err)

	actor, err := a.Authenticate(ctx, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "maria", actor)

	subjectOnly, _, err := a.Issue("u-7", "", time.Hour)
	require.NoError(t, err)
	actor, err = a.Authenticate(ctx, "bearer "+subjectOnly)
	require.NoError(t, err)
	assert.Equal(t, "u-7", actor)
}

func TestJWTAuthenticateRejects(t *testing.T) {
	a := NewJWT(testSecret, "asset_tracker")
	other := NewJWT(strings.Repeat("z", 32), "asset_tracker")
	foreignIssuer := NewJWT(testSecret, "someone_else")
	ctx := context.Background()

	expired, _, err := a.Issue("u", "u", -time.Minute)
	require.NoError(t, err)
	wrongKey, _, err := other.Issue("u", "u", time.Hour)
	require.NoError(t, err)
	wrongIssuer, _, err := foreignIssuer.Issue("u", "u", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"missing", "", ErrMissingToken},
		{"no scheme", "abc", ErrMalformed},
		{"basic scheme", "Basic dXNlcjpwYXNz", ErrMalformed},
		{"expired", "Bearer " + expired, ErrTokenExpired},
		{"wrong key", "Bearer " + wrongKey, ErrInvalidToken},
		{"wrong issuer", "Bearer " + wrongIssuer, ErrInvalidToken},
		{"garbage", "Bearer not.a.jwt", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Authenticate(ctx, tt.header)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestNewSelectsAuthenticator(t *testing.T) {
	_, ok := New(config.AuthConfig{Enabled: false}).(Anonymous)
	assert.True(t, ok)

	_, ok = New(config.AuthConfig{Enabled: true, Secret: testSecret}).(*JWT)
	assert.True(t, ok)

	actor, err := Anonymous{}.Authenticate(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, actor)
}
