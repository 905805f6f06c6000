package narrative

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	DefaultModel           = "gemini-2.0-flash"
	defaultTemperature     = 0.7
	defaultTopK            = 40
	defaultTopP            = 0.95
	defaultMaxOutputTokens = 1024
)

// Client talks to the hosted text-generation service. The response is treated
// as an unreliable text source; callers run it through Parse.
type Client struct {
	client *genai.Client
	model  string
}

type ClientOpt func(*Client)

func WithModel(name string) ClientOpt {
	return func(c *Client) {
		c.model = name
	}
}

// NewClient connects to the generation service with the given API key.
func NewClient(ctx context.Context, apiKey string, opts ...ClientOpt) (*Client, error) {
	gc, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating generative client: %w", err)
	}

	c := &Client{
		client: gc,
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Generate sends the prompt turns to the model and returns the flattened text
// of the first candidate. The last turn is sent as the live message; everything
// before it rides along as conversation history.
func (c *Client) Generate(ctx context.Context, turns []*genai.Content) (string, error) {
	if len(turns) == 0 {
		return "", fmt.Errorf("no prompt turns")
	}

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(defaultTemperature)
	model.SetTopK(defaultTopK)
	model.SetTopP(defaultTopP)
	model.SetMaxOutputTokens(defaultMaxOutputTokens)

	chat := model.StartChat()
	chat.History = turns[:len(turns)-1]

	last := turns[len(turns)-1]
	resp, err := chat.SendMessage(ctx, last.Parts...)
	if err != nil {
		return "", fmt.Errorf("sending message: %w", err)
	}

	text := flattenResponse(resp)
	if text == "" {
		return "", fmt.Errorf("model returned no text candidates")
	}

	return text, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// flattenResponse concatenates the text parts of the first candidate.
func flattenResponse(resp *genai.GenerateContentResponse) string {
	var text string
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				text += string(txt)
			}
		}
	}
	return text
}
