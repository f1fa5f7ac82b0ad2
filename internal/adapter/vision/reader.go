// Package vision reads paper checklists from photos with an OpenAI vision model.
package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/neomorfeo/lifegarden/internal/domain"
)

// Compile-time check: Reader implements domain.ChecklistReader.
var _ domain.ChecklistReader = (*Reader)(nil)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = openai.GPT4o

const maxTokens = 1000

const prompt = `You are given an image containing **only a checklist**, where each item consists of a label and a checkbox.

The checkboxes can appear in two states:

* empty: "checkboxIsFilled": false
* marked, crossed, filled, or circled: "checkboxIsFilled": true

Extract every checklist item and return it in this JSON format:

{
  "content": [
    {"label": "Partnership", "checkboxIsFilled": true},
    {"label": "Children", "checkboxIsFilled": false}
  ]
}

If a checkbox is clearly marked in any way, treat it as "checkboxIsFilled": true.

**Only return the JSON.**`

// ErrEmptyResponse is returned when the model answers with no choices.
var ErrEmptyResponse = errors.New("vision model returned no choices")

// Config configures the OpenAI client.
type Config struct {
	APIKey  string
	BaseURL string // optional, for compatible gateways and tests
	Model   string
}

// Reader sends checklist images to a chat completion model.
type Reader struct {
	client *openai.Client
	model  string
}

// New creates a reader for cfg.
func New(cfg Config) *Reader {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Reader{client: openai.NewClientWithConfig(clientCfg), model: model}
}

// ReadChecklist returns the labelled checkboxes visible in image.
func (r *Reader) ReadChecklist(ctx context.Context, image []byte, mimeType string) ([]domain.ChecklistItem, error) {
	if mimeType == "" {
		mimeType = "image/png"
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     r.model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: prompt},
				{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: dataURL, Detail: openai.ImageURLDetailAuto},
				},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("requesting checklist analysis: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	return parseChecklist(resp.Choices[0].Message.Content)
}

// checklistItem is the item shape the model is prompted to answer with.
type checklistItem struct {
	Label   string `json:"label"`
	Checked bool   `json:"checkboxIsFilled"`
}

// parseChecklist decodes the model's answer, which may be wrapped in a
// markdown code fence.
func parseChecklist(content string) ([]domain.ChecklistItem, error) {
	body := strings.TrimSpace(content)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	body = strings.TrimSpace(body)

	var payload struct {
		Content []checklistItem `json:"content"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("decoding checklist JSON %q: %w", body, err)
	}

	items := make([]domain.ChecklistItem, len(payload.Content))
	for i, item := range payload.Content {
		items[i] = domain.ChecklistItem{Label: item.Label, Checked: item.Checked}
	}
	return items, nil
}
