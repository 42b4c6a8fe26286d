package service

import (
	"fmt"

	"influence-gateway/internal/config"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is an OpenAI-compatible chat completion request body.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// SummaryRequest builds the completion request used to summarize creator text.
func SummaryRequest(cfg config.InsightsConfig, text string) ChatRequest {
	return ChatRequest{
		Model: cfg.SummaryModel,
		Messages: []chatMessage{
			{
				Role: "system",
				Content: fmt.Sprintf("You summarize social media creator content for brand marketers. "+
					"Answer in at most %d words. Do not invent facts.", cfg.SummaryMaxWords),
			},
			{Role: "user", Content: text},
		},
		Temperature: 0.2,
	}
}
