package halsning

import (
	"log/slog"
	"net/http"
)

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the Gemini API key explicitly, overriding the
// GEMINI_API_KEY / GOOGLE_API_KEY environment lookup.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client, used for both the generative
// API and video downloads.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets the logger for the client.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithVoice sets the prebuilt voice for live sessions.
func WithVoice(name string) ClientOption {
	return func(c *Client) {
		c.voice = name
	}
}

// WithChatModel overrides the default guide conversation model.
func WithChatModel(model string) ClientOption {
	return func(c *Client) {
		c.chatModel = model
	}
}

// WithLiveModel overrides the default live conversation model.
func WithLiveModel(model string) ClientOption {
	return func(c *Client) {
		c.liveModel = model
	}
}
