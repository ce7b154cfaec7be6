package halsning

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/halsning/halsning-go/pkg/core"
)

// InstructionsService answers practical questions with grounded results
// (web search, maps) and optional extended reasoning.
type InstructionsService struct {
	client *Client
}

// GroundingOptions selects grounding tools and reasoning depth.
type GroundingOptions struct {
	Search   bool
	Maps     bool
	Thinking bool
}

// Location biases maps grounding toward the user's position.
type Location struct {
	Latitude  float64
	Longitude float64
}

// GroundingChunk is one source reference attached to a grounded answer.
type GroundingChunk struct {
	URI    string
	Title  string
	Source string // "web" or "maps"
}

// GroundedResult is a grounded answer with its source references.
type GroundedResult struct {
	Text   string
	Chunks []GroundingChunk
}

// thinkingBudget is the token budget for extended reasoning requests.
const thinkingBudget int32 = 32768

// GenerateGrounded answers a prompt with the selected grounding tools.
// Thinking switches to the pro model with a reasoning budget; a location is
// only applied when maps grounding is on.
func (s *InstructionsService) GenerateGrounded(ctx context.Context, prompt string, opts GroundingOptions, loc *Location) (*GroundedResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, core.NewInvalidRequestError("prompt must not be empty")
	}

	model := ModelChat
	config := &genai.GenerateContentConfig{}
	if opts.Search {
		config.Tools = append(config.Tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
	}
	if opts.Maps {
		config.Tools = append(config.Tools, &genai.Tool{GoogleMaps: &genai.GoogleMaps{}})
		if loc != nil {
			config.ToolConfig = &genai.ToolConfig{
				RetrievalConfig: &genai.RetrievalConfig{
					LatLng: &genai.LatLng{Latitude: genai.Ptr(loc.Latitude), Longitude: genai.Ptr(loc.Longitude)},
				},
			}
		}
	}
	if opts.Thinking {
		model = ModelThinking
		config.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(thinkingBudget)}
	}

	resp, err := s.client.genai.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return nil, core.NewProviderError("gemini", err)
	}
	return &GroundedResult{
		Text:   resp.Text(),
		Chunks: groundingChunks(resp),
	}, nil
}

// groundingChunks flattens source references out of the first candidate's
// grounding metadata.
func groundingChunks(resp *genai.GenerateContentResponse) []GroundingChunk {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var chunks []GroundingChunk
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil {
			continue
		}
		if chunk.Web != nil {
			chunks = append(chunks, GroundingChunk{URI: chunk.Web.URI, Title: chunk.Web.Title, Source: "web"})
		}
		if chunk.Maps != nil {
			chunks = append(chunks, GroundingChunk{URI: chunk.Maps.URI, Title: chunk.Maps.Title, Source: "maps"})
		}
	}
	return chunks
}
