package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefreshToken_Matches(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rt := &RefreshToken{UserID: "u1", Expires: now.Add(time.Minute)}

	tests := []struct {
		name   string
		userID string
		at     time.Time
		want   bool
	}{
		{"owner before expiry", "u1", now, true},
		{"other user", "u2", now, false},
		{"at expiry", "u1", now.Add(time.Minute), false},
		{"after expiry", "u1", now.Add(time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rt.Matches(tt.userID, tt.at))
		})
	}
}
