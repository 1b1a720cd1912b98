package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/memoriam-site/memoriam/internal/caption"
)

type Suggester struct {
	client *anthropic.Client
	model  anthropic.Model
}

func New(apiKey, model string) *Suggester {
	return &Suggester{
		client: anthropic.NewClient(apiKey),
		model:  anthropic.Model(model),
	}
}

func (s *Suggester) Suggest(ctx context.Context, imageData []byte, mimeType string) (string, error) {
	resp, err := s.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     s.model,
		MaxTokens: 64,
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewImageMessageContent(
						anthropic.NewMessageContentSource(
							anthropic.MessagesContentSourceTypeBase64,
							mimeType,
							imageData,
						),
					),
					anthropic.NewTextMessageContent(caption.Prompt),
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	if len(resp.Content) == 0 {
		return "", fmt.Errorf("claude returned no content")
	}
	text := strings.TrimSpace(resp.Content[0].GetText())
	if text == "" {
		return "", fmt.Errorf("claude returned an empty caption")
	}
	return text, nil
}
