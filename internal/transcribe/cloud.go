package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// CloudResult is what the remote transcription API reports. It carries no
// duration; callers estimate one from the payload size.
type CloudResult struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// CloudTranscriber is the remote transcription contract: one round trip
// carrying the audio bytes, filename and optional language hint.
type CloudTranscriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, language string) (*CloudResult, error)
}

// CloudClient calls an OpenAI-compatible /audio/transcriptions endpoint.
type CloudClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewCloudClient creates a cloud API client. An empty apiKey is allowed at
// construction time; Transcribe fails with ErrNoAPIKey instead, so a
// missing credential surfaces as a job-level error rather than a crash.
func NewCloudClient(baseURL, apiKey, model string, timeout time.Duration) *CloudClient {
	return &CloudClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *CloudClient) Transcribe(ctx context.Context, audio []byte, filename, language string) (*CloudResult, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}
	if err := mw.WriteField("model", c.model); err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}
	if language != "" {
		if err := mw.WriteField("language", language); err != nil {
			return nil, fmt.Errorf("building multipart body: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}

	u := fmt.Sprintf("%s/audio/transcriptions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &buf)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCloudAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrCloudAPI, resp.StatusCode, body)
	}

	var result CloudResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrCloudAPI, err)
	}
	if language != "" && result.Language == "" {
		result.Language = language
	}
	return &result, nil
}

var _ CloudTranscriber = (*CloudClient)(nil)
