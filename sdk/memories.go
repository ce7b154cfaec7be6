package halsning

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/halsning/halsning-go/pkg/core"
)

// MemoriesService analyzes uploaded memory files.
type MemoriesService struct {
	client *Client
}

// AnalyzeRequest describes one uploaded file and an optional question
// about it.
type AnalyzeRequest struct {
	Data     []byte
	MIMEType string
	Filename string
	Question string
}

// Analyze describes an uploaded memory. Images go through vision analysis
// with the file content inline. Video and audio cannot be inspected
// directly here, so they fall back to a text prompt built from the filename
// and the question, matching what the assistant can honestly offer for
// those types.
func (s *MemoriesService) Analyze(ctx context.Context, req AnalyzeRequest) (string, error) {
	switch {
	case strings.HasPrefix(req.MIMEType, "image/"):
		return s.analyzeImage(ctx, req)
	case strings.HasPrefix(req.MIMEType, "video/"):
		return s.client.Chat.GenerateText(ctx, ModelThinking, videoFallbackPrompt(req.Filename, req.Question))
	case strings.HasPrefix(req.MIMEType, "audio/"):
		return s.client.Chat.GenerateText(ctx, ModelChat, audioFallbackPrompt(req.Filename, req.Question))
	default:
		return "", core.NewInvalidRequestError(fmt.Sprintf("unsupported file type %q", req.MIMEType))
	}
}

func (s *MemoriesService) analyzeImage(ctx context.Context, req AnalyzeRequest) (string, error) {
	if len(req.Data) == 0 {
		return "", core.NewInvalidRequestError("image data must not be empty")
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			{InlineData: &genai.Blob{Data: req.Data, MIMEType: req.MIMEType}},
			{Text: imageQuestion(req.Question)},
		}, genai.RoleUser),
	}
	resp, err := s.client.genai.Models.GenerateContent(ctx, ModelVision, contents, nil)
	if err != nil {
		return "", core.NewProviderError("gemini", err)
	}
	return resp.Text(), nil
}

func imageQuestion(question string) string {
	if strings.TrimSpace(question) == "" {
		return "Beskriv denna bild i detalj."
	}
	return question
}

func videoFallbackPrompt(filename, question string) string {
	if strings.TrimSpace(question) == "" {
		question = "Sammanfatta denna video."
	}
	return fmt.Sprintf("Baserat på filnamnet %q och användarens fråga, ge en tänkbar sammanfattning av denna video. Användarfråga: %q", filename, question)
}

func audioFallbackPrompt(filename, question string) string {
	if strings.TrimSpace(question) == "" {
		question = "Vad handlar denna ljudfil om?"
	}
	return fmt.Sprintf("Användaren har laddat upp en ljudfil med namnet %q. Baserat på denna information och frågan, ge ett svar. Fråga: %q", filename, question)
}
