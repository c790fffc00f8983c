package model

import "time"

// ShareLink is a capability granting access to one file until ExpiresAt.
type ShareLink struct {
	ID            string    `json:"id"`
	FileID        string    `json:"file_id"`
	Token         string    `json:"token"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	AllowDownload bool      `json:"allow_download"`
	AccessCount   int64     `json:"access_count"`
}

// Expired reports whether the link is no longer redeemable at now.
func (l *ShareLink) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}
