package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/bryanwahyu/placard-watch/internal/application/analysis"
	"github.com/bryanwahyu/placard-watch/internal/application/review"
	domai "github.com/bryanwahyu/placard-watch/internal/domain/ai"
	domain "github.com/bryanwahyu/placard-watch/internal/domain/verdict"
	"github.com/bryanwahyu/placard-watch/internal/middleware"
)

type Router struct {
	analysisSvc *appanalysis.Service
	reviews     *review.Manager
	repo        domain.Repository
	evidence    domain.EvidenceStore

	// credential resolves the classifier API key per request; the key is
	// never stored on the router.
	credential func() string

	logger *slog.Logger
}

func NewRouter(
	analysisSvc *appanalysis.Service,
	reviews *review.Manager,
	repo domain.Repository,
	evidence domain.EvidenceStore,
	credential func() string,
	logger *slog.Logger,
) http.Handler {
	r := &Router{
		analysisSvc: analysisSvc,
		reviews:     reviews,
		repo:        repo,
		evidence:    evidence,
		credential:  credential,
		logger:      logger,
	}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	mux.Use(middleware.RequestLogger(logger))

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.Route("/v1", func(rt chi.Router) {
		rt.With(middleware.UploadValidator).Post("/analyses", r.wrap(r.handleAnalyze))

		rt.Get("/reviews/{id}", r.wrap(r.handleGetReview))
		rt.Patch("/reviews/{id}", r.wrap(r.handlePatchReview))
		rt.Post("/reviews/{id}/confirm", r.wrap(r.handleConfirm))
		rt.Delete("/reviews/{id}", r.wrap(r.handleAbandonReview))

		rt.Get("/violations", r.wrap(r.handleListViolations))
		rt.Get("/violations/{id}", r.wrap(r.handleGetViolation))

		rt.Get("/evidence/{key}", r.wrap(r.handleEvidence))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap translates domain errors to HTTP statuses in one place.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		switch {
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, review.ErrSessionNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, appanalysis.ErrBusy),
			errors.Is(err, review.ErrSessionFinalized),
			errors.Is(err, domain.ErrDuplicateID):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, domai.ErrMissingCredential):
			http.Error(w, "classifier API key not configured; set it in settings or the environment", http.StatusBadRequest)
		case errors.Is(err, domai.ErrTimeout):
			http.Error(w, err.Error(), http.StatusGatewayTimeout)
		case errors.Is(err, domai.ErrTransport),
			errors.Is(err, domain.ErrNoJSONFound),
			errors.Is(err, domain.ErrMalformedJSON):
			http.Error(w, err.Error(), http.StatusBadGateway)
		case errors.Is(err, domain.ErrMissingPlate), errors.Is(err, domain.ErrConfidenceRange):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, domain.ErrWriteFailure):
			r.logger.Error("store write failed", "error", err)
			http.Error(w, "could not save report, please retry", http.StatusInternalServerError)
		default:
			r.logger.Error("request failed", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// POST /v1/analyses
// Multipart body with an "image" part. Classifies the image and opens a
// review session; the draft travels back as transient state, not via the
// store.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	if err := req.ParseMultipartForm(middleware.MaxUploadBytes); err != nil {
		return fmt.Errorf("parse upload: %w", err)
	}
	file, header, err := req.FormFile("image")
	if err != nil {
		return fmt.Errorf("missing image part: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !middleware.AllowedImageType(contentType) {
		http.Error(w, "unsupported image type", http.StatusUnsupportedMediaType)
		return nil
	}

	result, err := r.analysisSvc.Analyze(req.Context(), appanalysis.AnalyzeCommand{
		Image:      data,
		MimeType:   contentType,
		Credential: r.credential(),
	})
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, result)
}

type reviewView struct {
	ReviewID string        `json:"review_id"`
	Draft    domain.Record `json:"draft"`
	Warnings []string      `json:"warnings,omitempty"`
}

// GET /v1/reviews/{id}
func (r *Router) handleGetReview(w http.ResponseWriter, req *http.Request) error {
	s, err := r.reviews.Get(chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, reviewView{
		ReviewID: s.ID(),
		Draft:    s.Working(),
		Warnings: s.Warnings(),
	})
}

// PATCH /v1/reviews/{id}
// Body: any of {"isViolation": bool, "reason": string, "licensePlate": string}.
// These are the only human-editable fields; confidence stays AI-sourced.
func (r *Router) handlePatchReview(w http.ResponseWriter, req *http.Request) error {
	s, err := r.reviews.Get(chi.URLParam(req, "id"))
	if err != nil {
		return err
	}

	var body struct {
		IsViolation  *bool   `json:"isViolation"`
		Reason       *string `json:"reason"`
		LicensePlate *string `json:"licensePlate"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode edits: %w", err)
	}

	if body.IsViolation != nil {
		s.SetViolationFlag(*body.IsViolation)
	}
	if body.Reason != nil {
		s.SetReason(*body.Reason)
	}
	if body.LicensePlate != nil {
		s.SetLicensePlate(*body.LicensePlate)
	}

	return writeJSON(w, http.StatusOK, reviewView{
		ReviewID: s.ID(),
		Draft:    s.Working(),
		Warnings: s.Warnings(),
	})
}

// POST /v1/reviews/{id}/confirm
func (r *Router) handleConfirm(w http.ResponseWriter, req *http.Request) error {
	s, err := r.reviews.Get(chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	outcome, err := s.Confirm(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, outcome)
}

// DELETE /v1/reviews/{id}
// Operator navigated away; discard silently.
func (r *Router) handleAbandonReview(w http.ResponseWriter, req *http.Request) error {
	r.reviews.Abandon(chi.URLParam(req, "id"))
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/violations
func (r *Router) handleListViolations(w http.ResponseWriter, req *http.Request) error {
	list, err := r.repo.List(req.Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Record{}
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/violations/{id}
func (r *Router) handleGetViolation(w http.ResponseWriter, req *http.Request) error {
	rec, err := r.repo.Get(req.Context(), domain.RecordID(chi.URLParam(req, "id")))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rec)
}

// GET /v1/evidence/{key}
func (r *Router) handleEvidence(w http.ResponseWriter, req *http.Request) error {
	rc, contentType, err := r.evidence.Open(req.Context(), chi.URLParam(req, "key"))
	if err != nil {
		return domain.ErrNotFound
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	_, err = io.Copy(w, rc)
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
