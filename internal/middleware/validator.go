package middleware

import (
	"net/http"
	"strings"
)

// MaxUploadBytes caps evidence uploads; the UI advertises "up to 10MB".
const MaxUploadBytes = 10 << 20

// UploadValidator rejects oversized or non-multipart upload requests before
// any body handling, and caps reads on the body itself.
func UploadValidator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > MaxUploadBytes {
			http.Error(w, "image exceeds 10MB limit", http.StatusRequestEntityTooLarge)
			return
		}
		ct := r.Header.Get("Content-Type")
		if !strings.HasPrefix(ct, "multipart/form-data") {
			http.Error(w, "expected multipart/form-data", http.StatusUnsupportedMediaType)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
		next.ServeHTTP(w, r)
	})
}

// AllowedImageType reports whether the uploaded part looks like an image we
// accept.
func AllowedImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}
