package ai

import "context"

// Image is the binary evidence payload sent to the classifier.
type Image struct {
	Data     []byte
	MimeType string
}

// Classifier wraps the single outbound call to the image-understanding
// service. The credential is passed per call; implementations must not hold
// one. The returned string is the full raw text of the model reply,
// uninterpreted.
type Classifier interface {
	Classify(ctx context.Context, img Image, credential string) (string, error)
}
