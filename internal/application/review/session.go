package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/placard-watch/internal/application"
	domain "github.com/bryanwahyu/placard-watch/internal/domain/verdict"
)

var (
	// ErrSessionFinalized is returned when Confirm is called again after a
	// session has committed or discarded its record.
	ErrSessionFinalized = errors.New("review session already finalized")

	ErrSessionNotFound = errors.New("review session not found")
)

// OutcomeStatus of a confirm call.
type OutcomeStatus string

const (
	OutcomeCommitted OutcomeStatus = "committed"
	OutcomeDiscarded OutcomeStatus = "discarded"
)

// Outcome reports what Confirm did with the record.
type Outcome struct {
	Status   OutcomeStatus   `json:"status"`
	RecordID domain.RecordID `json:"record_id,omitempty"`
	Note     string          `json:"note,omitempty"`
}

// Session is the in-memory mutable working copy of one draft-derived record,
// exposed to the human operator for field-level correction. Only
// IsViolation, Reason and LicensePlate are editable; confidence stays as the
// classifier reported it. Mutators do not validate; validation runs at
// confirm time.
type Session struct {
	id string

	mu        sync.Mutex
	working   domain.Record
	warnings  []string
	finalized bool

	// touched is unix nanos of the last operator interaction, read by the
	// manager's idle sweep without taking the session lock.
	touched atomic.Int64

	owner *Manager
}

// ID returns the session identifier handed to the review screen.
func (s *Session) ID() string { return s.id }

// Working returns a copy of the current working record.
func (s *Session) Working() domain.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working
}

// Warnings returns normalization notes attached by the parser.
func (s *Session) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.warnings...)
}

func (s *Session) SetViolationFlag(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.working.IsViolation = v
	s.touch()
}

func (s *Session) SetReason(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.working.Reason = reason
	s.touch()
}

func (s *Session) SetLicensePlate(plate string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.working.LicensePlate = plate
	s.touch()
}

func (s *Session) touch() {
	s.touched.Store(s.owner.clock.Now().UnixNano())
}

// Confirm runs commit validation and either commits the record to the
// violation store or discards it. Non-violations are discarded by design
// and never persisted; that path finalizes the session without error. Any
// other validation failure is surfaced and leaves the session open for
// correction. A store failure also leaves the session open, so commit can
// be retried without re-running classification. Exactly one store write
// happens per successful confirm; a second confirm after finalization
// fails with ErrSessionFinalized.
func (s *Session) Confirm(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized {
		return Outcome{}, ErrSessionFinalized
	}

	rec := s.working
	if err := domain.ValidateForCommit(&rec); err != nil {
		if errors.Is(err, domain.ErrNotAViolation) {
			s.finalized = true
			return Outcome{
				Status: OutcomeDiscarded,
				Note:   "not persisted: record was not confirmed as a violation",
			}, nil
		}
		return Outcome{}, err
	}

	now := s.owner.clock.Now()
	rec.ID = newRecordID(now)
	rec.Timestamp = now
	rec.VerifiedBy = domain.VerifiedByUser

	if err := s.owner.repo.Commit(ctx, &rec); err != nil {
		return Outcome{}, err
	}

	s.working = rec
	s.finalized = true
	return Outcome{Status: OutcomeCommitted, RecordID: rec.ID}, nil
}

// newRecordID builds a time-ordered id: millisecond timestamp plus a short
// uuid suffix to rule out same-millisecond collisions.
func newRecordID(now time.Time) domain.RecordID {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return domain.RecordID(fmt.Sprintf("%d-%s", now.UnixMilli(), suffix))
}

// Manager holds in-flight review sessions. Drafts live here as transient
// state; they never touch the store before confirm. Idle sessions are
// swept after the configured TTL.
type Manager struct {
	repo  domain.Repository
	clock application.Clock
	ttl   time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

const defaultTTL = 30 * time.Minute

func NewManager(repo domain.Repository, clock application.Clock, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Manager{
		repo:     repo,
		clock:    clock,
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Open starts a review session over a parsed draft and its stored evidence
// image, returning the session to hand to the review screen.
func (m *Manager) Open(d *domain.Draft, imageURL string) *Session {
	now := m.clock.Now()
	s := &Session{
		id:       uuid.NewString(),
		working:  *domain.FromDraft(d, imageURL),
		warnings: append([]string(nil), d.Warnings...),
		owner:    m,
	}
	s.touched.Store(now.UnixNano())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep(now)
	m.sessions[s.id] = s
	return s
}

// Get looks up an open session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep(m.clock.Now())
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Abandon drops a session without writing anything. Used when the operator
// navigates away mid-review; an unknown id is not an error.
func (m *Manager) Abandon(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// sweep evicts idle sessions, finalized ones included: they stay resolvable
// until the TTL passes so a repeated confirm gets a finalized error rather
// than a not-found. Caller holds m.mu.
func (m *Manager) sweep(now time.Time) {
	for id, s := range m.sessions {
		if now.UnixNano()-s.touched.Load() > int64(m.ttl) {
			delete(m.sessions, id)
		}
	}
}
