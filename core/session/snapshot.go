package session

import (
	"encoding/json"
	"time"

	"github.com/dmitrymomot/sessionkit/core/identity"
)

// snapshot is the persisted rehydration blob. Written on every state change,
// read once at startup before any network call. Timestamps are epoch
// milliseconds so the blob stays portable across client implementations.
// The timer handle and transient flags are never serialized.
type snapshot struct {
	Token                 string         `json:"token,omitempty"`
	RefreshToken          string         `json:"refreshToken,omitempty"`
	TokenExpiresAtEpochMs int64          `json:"tokenExpiresAtEpochMs,omitempty"`
	User                  *identity.User `json:"user,omitempty"`
	IsAuthenticated       bool           `json:"isAuthenticated"`
	LastActivityEpochMs   int64          `json:"lastActivityEpochMs,omitempty"`
}

func snapshotFrom(s Session) snapshot {
	sn := snapshot{
		Token:           s.AccessToken,
		RefreshToken:    s.RefreshToken,
		User:            s.User,
		IsAuthenticated: s.IsAuthenticated,
	}
	if !s.TokenExpiresAt.IsZero() {
		sn.TokenExpiresAtEpochMs = s.TokenExpiresAt.UnixMilli()
	}
	if !s.LastActivity.IsZero() {
		sn.LastActivityEpochMs = s.LastActivity.UnixMilli()
	}
	return sn
}

func (sn snapshot) session() Session {
	s := Session{
		AccessToken:     sn.Token,
		RefreshToken:    sn.RefreshToken,
		User:            sn.User,
		IsAuthenticated: sn.IsAuthenticated,
	}
	if sn.TokenExpiresAtEpochMs != 0 {
		s.TokenExpiresAt = time.UnixMilli(sn.TokenExpiresAtEpochMs)
	}
	if sn.LastActivityEpochMs != 0 {
		s.LastActivity = time.UnixMilli(sn.LastActivityEpochMs)
	}
	return s
}

func (sn snapshot) marshal() ([]byte, error) {
	return json.Marshal(sn)
}

func parseSnapshot(blob []byte) (snapshot, error) {
	var sn snapshot
	err := json.Unmarshal(blob, &sn)
	return sn, err
}
