package halsning

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/halsning/halsning-go/pkg/core"
)

const (
	videoPollInterval = 10 * time.Second
	// videoPollLimit bounds the wait at roughly ten minutes.
	videoPollLimit = 60
)

// MediaService generates keepsake images and videos.
type MediaService struct {
	client *Client

	pollInterval time.Duration
	maxPolls     int

	// Seams for tests; production wiring is set in newMediaService.
	sleep      func(ctx context.Context, d time.Duration) error
	startVideo func(ctx context.Context, model, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
	pollVideo  func(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
}

func newMediaService(c *Client) *MediaService {
	s := &MediaService{
		client:       c,
		pollInterval: videoPollInterval,
		maxPolls:     videoPollLimit,
		sleep:        sleepContext,
	}
	s.startVideo = func(ctx context.Context, model, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
		return c.genai.Models.GenerateVideos(ctx, model, prompt, image, config)
	}
	s.pollVideo = func(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
		return c.genai.Operations.GetVideosOperation(ctx, op, nil)
	}
	return s
}

// GenerateImage produces one JPEG keepsake image.
func (s *MediaService) GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, core.NewInvalidRequestError("prompt must not be empty")
	}
	resp, err := s.client.genai.Models.GenerateImages(ctx, ModelImageGenerate, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/jpeg",
		AspectRatio:    aspectRatio,
	})
	if err != nil {
		return nil, core.NewProviderError("gemini", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, core.NewAPIError("no image data in generation response")
	}
	return resp.GeneratedImages[0].Image.ImageBytes, nil
}

// EditImage rewrites an existing image from a text instruction and returns
// the edited image bytes with their MIME type. A reply without an image
// part is an error.
func (s *MediaService) EditImage(ctx context.Context, image []byte, mimeType, prompt string) ([]byte, string, error) {
	if len(image) == 0 {
		return nil, "", core.NewInvalidRequestError("image must not be empty")
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			{InlineData: &genai.Blob{Data: image, MIMEType: mimeType}},
			{Text: prompt},
		}, genai.RoleUser),
	}
	resp, err := s.client.genai.Models.GenerateContent(ctx, ModelImageEdit, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
	})
	if err != nil {
		return nil, "", core.NewProviderError("gemini", err)
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil {
				return part.InlineData.Data, part.InlineData.MIMEType, nil
			}
		}
	}
	return nil, "", core.NewAPIError("no image data returned from edit")
}

// VideoRequest configures keepsake video generation.
type VideoRequest struct {
	Prompt      string
	AspectRatio string // "16:9" or "9:16"

	// Optional seed image the video animates from.
	Image         []byte
	ImageMIMEType string

	// OnStatus receives progress strings during the polling wait.
	OnStatus func(status string)
}

// GenerateVideo starts a video generation operation and polls until it
// completes, then returns the download URI. A finished operation without a
// download link is terminal; the caller decides whether to start over.
func (s *MediaService) GenerateVideo(ctx context.Context, req VideoRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", core.NewInvalidRequestError("prompt must not be empty")
	}

	var image *genai.Image
	if len(req.Image) > 0 {
		image = &genai.Image{ImageBytes: req.Image, MIMEType: req.ImageMIMEType}
	}
	op, err := s.startVideo(ctx, ModelVideoGenerate, req.Prompt, image, &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		Resolution:     "720p",
		AspectRatio:    req.AspectRatio,
	})
	if err != nil {
		return "", core.NewProviderError("gemini", err)
	}

	req.status("Videon bearbetas...")
	for polls := 0; !op.Done; polls++ {
		if polls >= s.maxPolls {
			return "", core.NewAPIError(fmt.Sprintf("video generation still pending after %d polls", s.maxPolls))
		}
		if err := s.sleep(ctx, s.pollInterval); err != nil {
			return "", err
		}
		req.status("Kontrollerar status...")
		op, err = s.pollVideo(ctx, op)
		if err != nil {
			return "", core.NewProviderError("gemini", err)
		}
	}

	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 ||
		op.Response.GeneratedVideos[0].Video == nil || op.Response.GeneratedVideos[0].Video.URI == "" {
		return "", core.NewAPIError("video generation completed but no download link was found")
	}
	return op.Response.GeneratedVideos[0].Video.URI, nil
}

func (r VideoRequest) status(s string) {
	if r.OnStatus != nil {
		r.OnStatus(s)
	}
}

// DownloadVideo fetches a generated video. The download link requires the
// API key as a query parameter.
func (s *MediaService) DownloadVideo(ctx context.Context, uri string) ([]byte, error) {
	downloadURL := uri
	if strings.Contains(uri, "?") {
		downloadURL += "&key=" + url.QueryEscape(s.client.apiKey)
	} else {
		downloadURL += "?key=" + url.QueryEscape(s.client.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, core.NewInvalidRequestError("invalid video download link")
	}
	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "GET", URL: downloadURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, core.NewAPIError(fmt.Sprintf("video download failed: %s", resp.Status))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "GET", URL: downloadURL, Err: err}
	}
	return data, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
