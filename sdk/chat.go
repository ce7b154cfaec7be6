package halsning

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/halsning/halsning-go/pkg/core"
)

// ChatService handles the guide conversation and one-shot text generation.
type ChatService struct {
	client *Client
}

// Chat is a stateful guide conversation. History lives server-side in the
// genai chat object; a Chat is not safe for concurrent sends.
type Chat struct {
	client *Client
	chat   *genai.Chat
}

// Start opens a new conversation with the given system instruction. An
// empty model selects the client's chat model.
func (s *ChatService) Start(ctx context.Context, model, systemInstruction string) (*Chat, error) {
	if model == "" {
		model = s.client.chatModel
	}
	var config *genai.GenerateContentConfig
	if systemInstruction != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		}
	}
	chat, err := s.client.genai.Chats.Create(ctx, model, config, nil)
	if err != nil {
		return nil, core.NewProviderError("gemini", err)
	}
	return &Chat{client: s.client, chat: chat}, nil
}

// SendStream sends one user message and returns the model's reply as a
// stream of text fragments. The stream must be drained or closed before the
// next send.
func (c *Chat) SendStream(ctx context.Context, message string) (*TextStream, error) {
	if strings.TrimSpace(message) == "" {
		return nil, core.NewInvalidRequestError("message must not be empty")
	}
	return newTextStream(c.chat.SendMessageStream(ctx, genai.Part{Text: message})), nil
}

// Send sends one user message and waits for the full reply.
func (c *Chat) Send(ctx context.Context, message string) (string, error) {
	stream, err := c.SendStream(ctx, message)
	if err != nil {
		return "", err
	}
	defer stream.Close()
	return stream.Collect()
}

// GenerateText is a one-shot prompt without conversation state.
func (s *ChatService) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		model = s.client.chatModel
	}
	resp, err := s.client.genai.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", core.NewProviderError("gemini", err)
	}
	return resp.Text(), nil
}
