package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/tahfidz-app/tahfidz-api/pkg/config"
)

const defaultBaseURL = "https://api.cloudinary.com/v1_1"

// Client uploads audio recordings to the media host using an unsigned
// upload preset. Audio goes through the video resource endpoint, which is
// how the host files audio content.
type Client struct {
	baseURL      string
	cloudName    string
	uploadPreset string
	httpClient   *http.Client
}

type uploadResponse struct {
	SecureURL    string `json:"secure_url"`
	PublicID     string `json:"public_id"`
	ResourceType string `json:"resource_type"`
	Error        struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient builds a media upload client from config.
func NewClient(cfg config.MediaConfig) *Client {
	timeout := cfg.UploadTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:      defaultBaseURL,
		cloudName:    cfg.CloudName,
		uploadPreset: cfg.UploadPreset,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// WithBaseURL overrides the upload endpoint, used in tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// UploadAudio pushes the audio stream to the media host and returns the
// public URL. The operation is atomic from the caller's perspective:
// either a URL comes back or the upload failed with no partial state.
func (c *Client) UploadAudio(ctx context.Context, r io.Reader, filename string) (string, error) {
	if c.cloudName == "" {
		return "", fmt.Errorf("media upload not configured")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("copy upload payload: %w", err)
	}
	if err := writer.WriteField("upload_preset", c.uploadPreset); err != nil {
		return "", fmt.Errorf("write upload preset: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize upload form: %w", err)
	}

	url := fmt.Sprintf("%s/%s/video/upload", c.baseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error.Message != "" {
			return "", fmt.Errorf("upload rejected: %s", parsed.Error.Message)
		}
		return "", fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}
	if parsed.SecureURL == "" {
		return "", fmt.Errorf("upload response missing secure_url")
	}

	return parsed.SecureURL, nil
}
