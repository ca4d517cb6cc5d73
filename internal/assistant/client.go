// Package assistant talks to the text generation service and runs its requests as jobs.
package assistant

import (
	"context"

	"educontrol/internal/model"
)

// Replies used when the service fails. They are shown to the user as the answer.
const (
	ChatFallback             = "Sorry, I can't answer right now. Please try again later."
	StudentReportFallback    = "Analysis failed."
	CollectiveReportFallback = "Could not build the report. Please try again."
)

// Client generates free-form text. Replies have no schema.
type Client interface {
	// Generate answers a single prompt. Heavy selects the larger report model.
	Generate(ctx context.Context, prompt string, heavy bool) (string, error)
	// Chat continues a conversation with the tutor persona.
	Chat(ctx context.Context, message string, history []model.Turn) (string, error)
}

// Offline answers without calling any service. It is used when no API key is configured.
type Offline struct{}

func (Offline) Generate(_ context.Context, prompt string, heavy bool) (string, error) {
	if heavy {
		return "Offline collective report: the assistant is not configured.", nil
	}
	return "Offline report: the assistant is not configured.", nil
}

func (Offline) Chat(_ context.Context, message string, history []model.Turn) (string, error) {
	return "The assistant is offline. You said: " + message, nil
}
