package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"educontrol/internal/model"
)

var errEmptyReply = errors.New("empty reply from model")

// Gemini calls the Google Gemini API.
type Gemini struct {
	client      *genai.Client
	chatModel   string
	reportModel string
}

// NewGemini creates a Gemini client. reportModel is used for heavy prompts.
func NewGemini(ctx context.Context, apiKey, chatModel, reportModel string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gemini client: %w", err)
	}
	if reportModel == "" {
		reportModel = chatModel
	}
	return &Gemini{client: client, chatModel: chatModel, reportModel: reportModel}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string, heavy bool) (string, error) {
	name := g.chatModel
	if heavy {
		name = g.reportModel
	}
	resp, err := g.client.GenerativeModel(name).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return replyText(resp)
}

func (g *Gemini) Chat(ctx context.Context, message string, history []model.Turn) (string, error) {
	m := g.client.GenerativeModel(g.chatModel)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(TutorInstruction)}}

	cs := m.StartChat()
	for _, t := range history {
		role := "user"
		if t.Role == "model" {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(t.Text)}})
	}
	resp, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", err
	}
	return replyText(resp)
}

// Close releases the underlying connection.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func replyText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errEmptyReply
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "", errEmptyReply
	}
	return b.String(), nil
}
