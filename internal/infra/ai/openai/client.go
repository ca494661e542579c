package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	domai "github.com/bryanwahyu/placard-watch/internal/domain/ai"
	"github.com/bryanwahyu/placard-watch/internal/infra/ai/prompt"
)

const maxTokens = 1024

// Client calls the OpenAI vision API. The credential arrives per call, not
// at construction, so no process-wide key is held.
type Client struct {
	Model string

	// ReferenceDate pins the "current date" used in the prompt for expiry
	// comparison; zero means the wall clock at call time.
	ReferenceDate time.Time
}

func NewClient(model string, referenceDate time.Time) *Client {
	return &Client{Model: model, ReferenceDate: referenceDate}
}

// Classify sends the image plus the fixed instruction prompt and returns
// the raw text of the reply. It fails fast on a missing credential, maps a
// deadline to ErrTimeout and everything else upstream to ErrTransport. No
// retry; the operator re-triggers manually.
func (c *Client) Classify(ctx context.Context, img domai.Image, credential string) (string, error) {
	if strings.TrimSpace(credential) == "" {
		return "", domai.ErrMissingCredential
	}

	model := c.Model
	if model == "" {
		model = openai.GPT4o
	}
	ref := c.ReferenceDate
	if ref.IsZero() {
		ref = time.Now()
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", img.MimeType, base64.StdEncoding.EncodeToString(img.Data))
	req := openai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt.Instruction(ref),
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}

	cli := openai.NewClient(credential)
	resp, err := cli.CreateChatCompletion(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", domai.ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", domai.ErrTransport, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", domai.ErrTransport)
	}
	return resp.Choices[0].Message.Content, nil
}
