package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const labelPrompt = `Read the appliance rating label in this image and respond with JSON only, using the keys "brand", "model" and "serialNumber". Use an empty string for anything you cannot read.`

// LabelData is the structured content read off an appliance rating label.
type LabelData struct {
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	SerialNumber string `json:"serialNumber"`
}

// Extractor reads appliance label data from images with a vision-capable
// OpenAI model.
type Extractor struct {
	client *openai.Client
	model  string
}

// NewFromEnv builds the extractor from OPENAI_API_KEY / OPENAI_VISION_MODEL.
// Without an API key the extractor is disabled.
func NewFromEnv() *Extractor {
	apiKey := os.Getenv("OPENAI_API_KEY")
	model := os.Getenv("OPENAI_VISION_MODEL")
	if model == "" {
		model = openai.GPT4oMini
	}

	e := &Extractor{model: model}
	if apiKey != "" {
		e.client = openai.NewClient(apiKey)
	}
	return e
}

func (e *Extractor) Enabled() bool {
	return e.client != nil
}

// ExtractLabel sends the image to the model and parses the JSON it returns.
func (e *Extractor) ExtractLabel(ctx context.Context, imageURL string) (*LabelData, error) {
	if !e.Enabled() {
		return nil, fmt.Errorf("label extraction is not configured")
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     e.model,
		MaxTokens: 300,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: labelPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vision request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("vision response had no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var label LabelData
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &label); err != nil {
		return nil, fmt.Errorf("failed to parse label response: %w", err)
	}
	return &label, nil
}
