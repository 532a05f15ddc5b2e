package promptgen

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrProvider      = errors.New("prompt provider error")
	ErrMissingAPIKey = fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrProvider)
)

// Instruction is sent after the image in every request.
const Instruction = "Generate a detailed prompt describing the image above and remember to limit the description to 100 words only"

const (
	DefaultModel    = "gemini-2.5-flash"
	DefaultMaxWords = 100
	defaultMIMEType = "image/jpeg"
)

type GeneratorInterface interface {
	GeneratePrompt(ctx context.Context, source string) (string, error)
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	InlineData *inlineData `json:"inline_data,omitempty"`
	Text       string      `json:"text,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type generateContentResponse struct {
	Candidates     []candidate `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
