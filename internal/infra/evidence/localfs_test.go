package evidence

import (
	"bytes"
	"context"
	"io"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	data := []byte{0x89, 'P', 'N', 'G'}

	url, err := s.Put(ctx, "123-abcd.png", data, "image/png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "/v1/evidence/123-abcd.png" {
		t.Errorf("url = %q", url)
	}

	rc, contentType, err := s.Open(ctx, "123-abcd.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	if contentType != "image/png" {
		t.Errorf("contentType = %q", contentType)
	}
	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, data) {
		t.Error("bytes differ after round trip")
	}
}

func TestLocalStoreStripsPathTraversal(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	url, err := s.Put(context.Background(), "../../etc/passwd", []byte("x"), "")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "/v1/evidence/passwd" {
		t.Errorf("url = %q, key not sanitized to base name", url)
	}
}

func TestLocalStoreOpenMissing(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Open(context.Background(), "nope.png"); err == nil {
		t.Fatal("expected error for missing key")
	}
}
