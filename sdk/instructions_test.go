package halsning

import (
	"testing"

	"google.golang.org/genai"
)

func TestGroundingChunksExtraction(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				GroundingMetadata: &genai.GroundingMetadata{
					GroundingChunks: []*genai.GroundingChunk{
						{Web: &genai.GroundingChunkWeb{URI: "https://example.se/begravning", Title: "Begravningsguiden"}},
						{Maps: &genai.GroundingChunkMaps{URI: "https://maps.example/krematorium", Title: "Krematoriet"}},
						nil,
						{},
					},
				},
			},
		},
	}

	chunks := groundingChunks(resp)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %+v", len(chunks), chunks)
	}
	if chunks[0].Source != "web" || chunks[0].Title != "Begravningsguiden" {
		t.Errorf("chunk 0 = %+v", chunks[0])
	}
	if chunks[1].Source != "maps" || chunks[1].URI != "https://maps.example/krematorium" {
		t.Errorf("chunk 1 = %+v", chunks[1])
	}
}

func TestGroundingChunksEmptyResponse(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{name: "nil response", resp: nil},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}},
		{name: "no metadata", resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := groundingChunks(tt.resp); got != nil {
				t.Errorf("groundingChunks = %+v, want nil", got)
			}
		})
	}
}
