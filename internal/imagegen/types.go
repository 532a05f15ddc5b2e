package imagegen

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrProvider      = errors.New("image provider error")
	ErrMissingAPIKey = fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrProvider)
)

const (
	DefaultModel = "dall-e-2"
	DefaultSize  = "1024x1024"
)

// SynthesizerInterface turns a text prompt into a hosted image URL.
type SynthesizerInterface interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

type generationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size,omitempty"`
	ResponseFormat string `json:"response_format"`
}

type generationResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}
