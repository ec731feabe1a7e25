package models

import "time"

// Session is the per-visitor context established once and read by every request.
type Session struct {
	ID            string    `json:"id"`
	Authenticated bool      `json:"authenticated"`
	UserName      string    `json:"userName,omitempty"`
	UserEmail     string    `json:"userEmail,omitempty"`
	PreloaderSeen bool      `json:"preloaderSeen"`
	CreatedAt     time.Time `json:"createdAt"`
	LastSeen      time.Time `json:"lastSeen"`
}

// Touch records activity on the session.
func (s *Session) Touch(now time.Time) {
	s.LastSeen = now
}
