package models

import "time"

// SessionStatus tracks where a session is in the ingest lifecycle
type SessionStatus string

const (
	SessionStatusIdle      SessionStatus = "idle"
	SessionStatusAnalyzing SessionStatus = "analyzing"
	SessionStatusReady     SessionStatus = "ready"
	SessionStatusFailed    SessionStatus = "failed"
)

// ErrorKind classifies the failure recorded on a session
type ErrorKind string

const (
	ErrorKindDecode ErrorKind = "decode"
	ErrorKindRender ErrorKind = "render"
)

// Session is the top-level aggregate for one uploaded track.
// A remix artifact only ever exists for a session whose analysis
// succeeded (RemixReady implies a stored FeatureSummary).
type Session struct {
	ID           string        `json:"id" gorm:"type:uuid;primaryKey"`
	OriginalName string        `json:"original_name"`
	Status       SessionStatus `json:"status" gorm:"type:varchar(16);index;default:'idle'"`
	// Generation increments on every new upload into the session and is
	// carried by analysis jobs so late results for a superseded upload
	// can be discarded.
	Generation   uint64      `json:"-" gorm:"not null;default:0"`
	Params       RemixParams `json:"params" gorm:"serializer:json"`
	RemixReady   bool        `json:"remix_ready"`
	ErrorKind    ErrorKind   `json:"error_kind,omitempty" gorm:"type:varchar(16)"`
	ErrorMessage string      `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// HasError reports whether the session carries a user-facing error
func (s *Session) HasError() bool {
	return s.ErrorKind != ""
}

// ClearError removes any recorded failure
func (s *Session) ClearError() {
	s.ErrorKind = ""
	s.ErrorMessage = ""
}

// SetError records a user-facing failure of the given kind
func (s *Session) SetError(kind ErrorKind, message string) {
	s.ErrorKind = kind
	s.ErrorMessage = message
}
