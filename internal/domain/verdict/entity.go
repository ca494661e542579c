package verdict

import (
	"time"
)

// RecordID identifier type
type RecordID string

// Sentinel values filled in when the classifier does not supply a field.
const (
	UnknownPlate    = "Unknown"
	UnknownLocation = "Unknown Location"
)

// VerifiedByUser tags a record as confirmed by a human reviewer rather than
// raw AI output. Set only at commit.
const VerifiedByUser = "User"

// Draft holds the AI-sourced subset of a verdict: what the parser could
// extract from the classifier's reply, before any human review. It carries
// no identity and is never persisted.
type Draft struct {
	IsViolation  bool
	Reason       string
	LicensePlate string
	Confidence   float64
	Location     string

	// RawText is the full unstructured classifier reply, retained for audit.
	RawText string

	// Warnings records normalization applied during parsing, e.g. a clamped
	// confidence value.
	Warnings []string
}

// Aggregate root: one confirmed analysis outcome. The JSON field names are
// the persisted schema and must stay stable for backward-compatible reads.
type Record struct {
	ID           RecordID  `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	ImageURL     string    `json:"imageUrl"`
	IsViolation  bool      `json:"isViolation"`
	Confidence   float64   `json:"confidence"`
	LicensePlate string    `json:"licensePlate"`
	Location     string    `json:"location"`
	Reason       string    `json:"reason"`
	RawText      string    `json:"rawText"`
	VerifiedBy   string    `json:"verifiedBy,omitempty"`
}

// FromDraft builds an uncommitted record from a parsed draft and the stored
// evidence image reference. ID, Timestamp and VerifiedBy stay unset until
// commit.
func FromDraft(d *Draft, imageURL string) *Record {
	return &Record{
		ImageURL:     imageURL,
		IsViolation:  d.IsViolation,
		Confidence:   d.Confidence,
		LicensePlate: d.LicensePlate,
		Location:     d.Location,
		Reason:       d.Reason,
		RawText:      d.RawText,
	}
}

// ValidateForCommit checks the invariants a record must satisfy before it
// may be durably stored. Pure; no I/O.
func ValidateForCommit(r *Record) error {
	if !r.IsViolation {
		return ErrNotAViolation
	}
	if r.LicensePlate == "" {
		return ErrMissingPlate
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return ErrConfidenceRange
	}
	return nil
}
