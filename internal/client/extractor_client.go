package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/suryasblaze/be-stock-recon/internal/docparse"
	"github.com/suryasblaze/be-stock-recon/internal/errors"
)

// ExtractorClientInterface is the external OCR / AI text-extraction service.
// Extraction is always called before any transaction opens; a timeout is a
// recoverable EXTERNAL_SERVICE_FAILURE and the caller falls back to manual
// entry.
type ExtractorClientInterface interface {
	// Extract runs plain OCR over an image and returns the raw text.
	Extract(ctx context.Context, imageData []byte, contentType string) (string, error)
	// ExtractStructured asks the AI extraction endpoint for a structured
	// document, sending the image as a data URL.
	ExtractStructured(ctx context.Context, imageData []byte, contentType string) (*docparse.StructuredDocument, error)
}

// ExtractorClient calls the extraction service over HTTP.
type ExtractorClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewExtractorClient creates an extraction client. The timeout bounds the
// whole call; AI-based extraction of a dense slip can take up to two minutes.
func NewExtractorClient(baseURL, apiKey string, timeout time.Duration) *ExtractorClient {
	return &ExtractorClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type extractRequest struct {
	Image string `json:"image"` // data URL
}

type extractResponse struct {
	Text string `json:"text"`
}

// Extract runs plain OCR over the image.
func (c *ExtractorClient) Extract(ctx context.Context, imageData []byte, contentType string) (string, error) {
	var resp extractResponse
	err := c.post(ctx, "/v1/extract", extractRequest{Image: dataURL(imageData, contentType)}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// ExtractStructured asks for an AI-structured document.
func (c *ExtractorClient) ExtractStructured(ctx context.Context, imageData []byte, contentType string) (*docparse.StructuredDocument, error) {
	var resp docparse.StructuredDocument
	err := c.post(ctx, "/v1/extract/structured", extractRequest{Image: dataURL(imageData, contentType)}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *ExtractorClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal extraction request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build extraction request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternal, "extraction service call failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf(errors.ErrCodeExternal,
			"extraction service returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternal, "failed to decode extraction response")
	}

	return nil
}

func dataURL(data []byte, contentType string) string {
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
}
