package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/davinci-studio/studio-backend/internal/generation/domain"
)

// Client calls an external image-generation API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a generator client. The per-request deadline comes from
// the caller's context; the http.Client timeout is only a backstop.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

type generateRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
	Model       string `json:"model"`
	Style       string `json:"style,omitempty"`
}

type generateResponse struct {
	Images []struct {
		URL     string `json:"url,omitempty"`
		B64JSON string `json:"b64_json,omitempty"`
		MIME    string `json:"mime_type,omitempty"`
	} `json:"images"`
	// Text is set when the model answered in prose instead of an image
	Text string `json:"text,omitempty"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate requests a single image
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GeneratedImage, error) {
	body, err := json.Marshal(generateRequest{
		Prompt:      req.Prompt,
		AspectRatio: string(req.AspectRatio),
		Model:       req.Model,
		Style:       req.Style,
	})
	if err != nil {
		return domain.GeneratedImage{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/images", bytes.NewReader(body))
	if err != nil {
		return domain.GeneratedImage{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.GeneratedImage{}, fmt.Errorf("failed to call generator: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.GeneratedImage{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw))
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil && er.Error.Message != "" {
			msg = er.Error.Message
		}
		return domain.GeneratedImage{}, &domain.GenerationFailure{StatusCode: resp.StatusCode, Message: msg}
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return domain.GeneratedImage{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	for _, img := range gr.Images {
		if img.URL != "" {
			return domain.GeneratedImage{URL: img.URL}, nil
		}
		if img.B64JSON != "" {
			mime := img.MIME
			if mime == "" {
				mime = "image/png"
			}
			return domain.GeneratedImage{URL: "data:" + mime + ";base64," + img.B64JSON}, nil
		}
	}

	if gr.Text != "" {
		return domain.GeneratedImage{}, fmt.Errorf("%w: %s", domain.ErrNoImageProduced, gr.Text)
	}
	return domain.GeneratedImage{}, domain.ErrNoImageProduced
}
