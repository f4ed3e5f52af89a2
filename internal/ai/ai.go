package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/gnemet/SlideText/internal/config"
)

var (
	ErrEmptyText   = errors.New("nothing to summarize")
	ErrNoResponse  = errors.New("model returned no content")
	ErrUnsupported = errors.New("unsupported ai driver")
)

const summaryPrompt = "Summarize the following presentation slide in one or two sentences. " +
	"Reply with the summary only.\n\n"

// Client wraps a Gemini generative model.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	Model  string
}

// NewClient returns nil, nil when no provider key is configured.
func NewClient(ctx context.Context, cfg *config.AIConfig) (*Client, error) {
	settings, ok := cfg.Active()
	if !ok {
		return nil, nil
	}
	if settings.Driver != "" && settings.Driver != "gemini" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, settings.Driver)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(settings.Key))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(settings.Model)
	if settings.Temperature > 0 {
		model.SetTemperature(float32(settings.Temperature))
	}
	if settings.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(settings.MaxTokens))
	}

	return &Client{client: client, model: model, Model: settings.Model}, nil
}

// SummarizeText asks the model for a short summary of a slide's full text.
func (c *Client) SummarizeText(ctx context.Context, text string) (string, error) {
	prompt, err := BuildSummaryPrompt(text)
	if err != nil {
		return "", err
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// BuildSummaryPrompt rejects blank input.
func BuildSummaryPrompt(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	return summaryPrompt + text, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrNoResponse
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if sb.Len() > 0 {
			break
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", ErrNoResponse
	}
	return out, nil
}
