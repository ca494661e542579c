package analysis

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bryanwahyu/placard-watch/internal/application/review"
	"github.com/bryanwahyu/placard-watch/internal/domain/ai"
	"github.com/bryanwahyu/placard-watch/internal/domain/verdict"
)

type classifierFake struct {
	reply string
	err   error

	// block, when set, holds the call until the context is done.
	block bool

	mu    sync.Mutex
	calls int
}

func (f *classifierFake) Classify(ctx context.Context, _ ai.Image, credential string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if strings.TrimSpace(credential) == "" {
		return "", ai.ErrMissingCredential
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type evidenceFake struct {
	putErr error
	keys   []string
}

func (f *evidenceFake) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.keys = append(f.keys, key)
	return "/v1/evidence/" + key, nil
}

func (f *evidenceFake) Open(context.Context, string) (io.ReadCloser, string, error) {
	return nil, "", errors.New("not implemented")
}

type repoFake struct {
	records []*verdict.Record
}

func (f *repoFake) Commit(_ context.Context, r *verdict.Record) error {
	f.records = append(f.records, r)
	return nil
}
func (f *repoFake) List(context.Context) ([]*verdict.Record, error) { return f.records, nil }
func (f *repoFake) Get(context.Context, verdict.RecordID) (*verdict.Record, error) {
	return nil, verdict.ErrNotFound
}

type clockFake struct{ now time.Time }

func (c *clockFake) Now() time.Time { return c.now }

func newService(cls *classifierFake, ev *evidenceFake) (*Service, *repoFake) {
	repo := &repoFake{}
	clock := &clockFake{now: time.Date(2025, 12, 6, 10, 0, 0, 0, time.UTC)}
	return &Service{
		Classifier: cls,
		Evidence:   ev,
		Reviews:    review.NewManager(repo, clock, time.Hour),
		Clock:      clock,
		Timeout:    time.Second,
	}, repo
}

func TestAnalyzeOpensReviewSession(t *testing.T) {
	cls := &classifierFake{reply: `{"isViolation":true,"reason":"Expired","licensePlate":"8ABC123","confidence":0.9,"location":"Fairpark HQ (Detected)"}`}
	ev := &evidenceFake{}
	svc, repo := newService(cls, ev)

	res, err := svc.Analyze(context.Background(), AnalyzeCommand{
		Image:      []byte("fake-jpeg"),
		MimeType:   "image/jpeg",
		Credential: "sk-test",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.ReviewID == "" {
		t.Fatal("no review session opened")
	}
	if !res.Draft.IsViolation || res.Draft.LicensePlate != "8ABC123" {
		t.Errorf("draft = %+v", res.Draft)
	}
	if res.Draft.ImageURL == "" {
		t.Error("draft carries no evidence image reference")
	}
	if len(repo.records) != 0 {
		t.Error("analysis must not write to the store")
	}
	if len(ev.keys) != 1 || !strings.HasSuffix(ev.keys[0], ".jpg") {
		t.Errorf("evidence keys = %v", ev.keys)
	}
}

func TestAnalyzeMissingCredentialFailsFast(t *testing.T) {
	cls := &classifierFake{reply: "{}"}
	svc, _ := newService(cls, &evidenceFake{})

	_, err := svc.Analyze(context.Background(), AnalyzeCommand{
		Image:    []byte("x"),
		MimeType: "image/png",
	})
	if !errors.Is(err, ai.ErrMissingCredential) {
		t.Fatalf("err = %v, want ErrMissingCredential", err)
	}
	if cls.calls != 0 {
		t.Error("classifier must not be called without a credential")
	}
}

func TestAnalyzeParseFailurePropagates(t *testing.T) {
	cls := &classifierFake{reply: "I cannot read this image."}
	svc, _ := newService(cls, &evidenceFake{})

	_, err := svc.Analyze(context.Background(), AnalyzeCommand{
		Image:      []byte("x"),
		MimeType:   "image/png",
		Credential: "sk-test",
	})
	if !errors.Is(err, verdict.ErrNoJSONFound) {
		t.Fatalf("err = %v, want ErrNoJSONFound", err)
	}
}

func TestAnalyzeClassifierErrorPropagates(t *testing.T) {
	cls := &classifierFake{err: ai.ErrTransport}
	svc, _ := newService(cls, &evidenceFake{})

	_, err := svc.Analyze(context.Background(), AnalyzeCommand{
		Image:      []byte("x"),
		MimeType:   "image/png",
		Credential: "sk-test",
	})
	if !errors.Is(err, ai.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestAnalyzeSingleFlight(t *testing.T) {
	cls := &classifierFake{block: true}
	svc, _ := newService(cls, &evidenceFake{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Analyze(ctx, AnalyzeCommand{
			Image:      []byte("x"),
			MimeType:   "image/png",
			Credential: "sk-test",
		})
		done <- err
	}()

	// Wait for the first call to take the gate.
	deadline := time.After(2 * time.Second)
	for !svc.InFlight() {
		select {
		case <-deadline:
			t.Fatal("first call never became in-flight")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	_, err := svc.Analyze(context.Background(), AnalyzeCommand{
		Image:      []byte("y"),
		MimeType:   "image/png",
		Credential: "sk-test",
	})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("second call err = %v, want ErrBusy", err)
	}

	// Abandoning the first request discards its result silently.
	cancel()
	if err := <-done; err == nil {
		t.Fatal("cancelled call should not succeed")
	}
}

func TestAnalyzeEvidenceFailure(t *testing.T) {
	cls := &classifierFake{reply: "{}"}
	svc, _ := newService(cls, &evidenceFake{putErr: errors.New("disk full")})

	_, err := svc.Analyze(context.Background(), AnalyzeCommand{
		Image:      []byte("x"),
		MimeType:   "image/png",
		Credential: "sk-test",
	})
	if err == nil {
		t.Fatal("expected error from evidence store")
	}
	if cls.calls != 0 {
		t.Error("classifier must not run when evidence storage fails")
	}
}
