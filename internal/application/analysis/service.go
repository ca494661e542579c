package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/placard-watch/internal/application"
	"github.com/bryanwahyu/placard-watch/internal/application/review"
	"github.com/bryanwahyu/placard-watch/internal/domain/ai"
	"github.com/bryanwahyu/placard-watch/internal/domain/verdict"
)

// ErrBusy is returned while another classification is still in flight. One
// request is outstanding at a time; the UI disables re-submission.
var ErrBusy = errors.New("a classification is already in flight")

const defaultTimeout = 45 * time.Second

// Service runs the upload-to-draft pipeline: persist the evidence image,
// call the external classifier, parse the reply, open a review session.
type Service struct {
	Classifier ai.Classifier
	Evidence   verdict.EvidenceStore
	Reviews    *review.Manager
	Clock      application.Clock
	Logger     *slog.Logger

	// Timeout bounds the classifier call; zero means the default.
	Timeout time.Duration

	inFlight atomic.Bool
}

// AnalyzeCommand carries one uploaded image and the caller's credential.
type AnalyzeCommand struct {
	Image      []byte
	MimeType   string
	Credential string
}

// AnalyzeResult hands the draft to the review screen via transient state.
type AnalyzeResult struct {
	ReviewID string         `json:"review_id"`
	Draft    verdict.Record `json:"draft"`
	Warnings []string       `json:"warnings,omitempty"`
}

// Analyze classifies one image. Failures are non-recoverable for the
// attempt: nothing is retained and the operator re-submits from scratch.
// If the caller's context is cancelled mid-call the classifier result is
// dropped silently; no session is opened and nothing is written.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (AnalyzeResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return AnalyzeResult{}, ErrBusy
	}
	defer s.inFlight.Store(false)

	if strings.TrimSpace(cmd.Credential) == "" {
		return AnalyzeResult{}, ai.ErrMissingCredential
	}

	key := evidenceKey(s.Clock.Now(), cmd.MimeType)
	imageURL, err := s.Evidence.Put(ctx, key, cmd.Image, cmd.MimeType)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("store evidence image: %w", err)
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := s.Classifier.Classify(callCtx, ai.Image{Data: cmd.Image, MimeType: cmd.MimeType}, cmd.Credential)
	if err != nil {
		return AnalyzeResult{}, err
	}
	if err := ctx.Err(); err != nil {
		// Caller abandoned the request; drop the result.
		return AnalyzeResult{}, err
	}

	draft, err := verdict.Parse(raw)
	if err != nil {
		var pe *verdict.ParseError
		if errors.As(err, &pe) && s.Logger != nil {
			s.Logger.Warn("classifier reply unparseable", "raw", pe.Raw)
		}
		return AnalyzeResult{}, err
	}

	session := s.Reviews.Open(draft, imageURL)
	if s.Logger != nil {
		s.Logger.Info("analysis complete",
			"review_id", session.ID(),
			"is_violation", draft.IsViolation,
			"confidence", draft.Confidence,
		)
	}
	return AnalyzeResult{
		ReviewID: session.ID(),
		Draft:    session.Working(),
		Warnings: session.Warnings(),
	}, nil
}

// InFlight reports whether a classification is currently outstanding.
func (s *Service) InFlight() bool { return s.inFlight.Load() }

func evidenceKey(now time.Time, mimeType string) string {
	ext := ".bin"
	switch mimeType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	case "image/gif":
		ext = ".gif"
	case "image/webp":
		ext = ".webp"
	}
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), suffix, ext)
}
