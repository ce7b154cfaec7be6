// Package halsning provides the Hälsning SDK for Go.
//
// Hälsning is a personal-legacy assistant client for the Gemini API: a text
// guide conversation, creative keepsake generation (images and video), memory
// file analysis, grounded instruction lookup, and a realtime voice
// conversation over the BidiGenerateContent websocket endpoint.
package halsning

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"google.golang.org/genai"

	"github.com/halsning/halsning-go/pkg/core"
)

// Client is the main entry point for the SDK.
type Client struct {
	Chat         *ChatService
	Media        *MediaService
	Memories     *MemoriesService
	Instructions *InstructionsService
	Live         *LiveService

	// Internal
	genai      *genai.Client
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	voice      string
	chatModel  string
	liveModel  string
}

// NewClient creates a new client. The API key is read from GEMINI_API_KEY
// (GOOGLE_API_KEY as fallback) unless WithAPIKey is given.
func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	c := &Client{
		logger:    slog.Default(),
		voice:     DefaultVoice,
		chatModel: ModelChat,
		liveModel: ModelLive,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		c.apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.apiKey == "" {
		c.apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if c.apiKey == "" {
		return nil, core.NewAuthenticationError("missing API key (set GEMINI_API_KEY or GOOGLE_API_KEY)")
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     c.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	})
	if err != nil {
		return nil, core.NewProviderError("gemini", err)
	}
	c.genai = gc
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}

	c.Chat = &ChatService{client: c}
	c.Media = newMediaService(c)
	c.Memories = &MemoriesService{client: c}
	c.Instructions = &InstructionsService{client: c}
	c.Live = newLiveService(c)
	return c, nil
}
