package transcribe

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SidecarEngine implements Engine against a faster-whisper sidecar that
// exposes the model over HTTP on localhost. The sidecar loads the model
// once; Load probes its readiness so a cold model is observable before the
// first job rather than on it. Responses stream newline-delimited JSON: an
// info line first, then one line per segment as inference produces them.
type SidecarEngine struct {
	baseURL     string
	model       string
	defaultLang string
	client      *http.Client

	loadOnce sync.Once
	loadErr  error
	ready    bool
	mu       sync.RWMutex
}

// NewSidecarEngine creates an engine client for the whisper sidecar at
// baseURL. No network traffic happens until Load.
func NewSidecarEngine(baseURL, model, defaultLang string, timeout time.Duration) *SidecarEngine {
	return &SidecarEngine{
		baseURL:     baseURL,
		model:       model,
		defaultLang: defaultLang,
		client:      &http.Client{Timeout: timeout},
	}
}

// Load verifies the sidecar is up and its model is loaded. The first
// successful load is cached for the life of the process.
func (e *SidecarEngine) Load(ctx context.Context) error {
	e.loadOnce.Do(func() {
		e.loadErr = e.probe(ctx)
		if e.loadErr == nil {
			e.mu.Lock()
			e.ready = true
			e.mu.Unlock()
		}
	})
	if e.loadErr != nil {
		// Allow a later attempt to retry the probe.
		e.loadOnce = sync.Once{}
	}
	return e.loadErr
}

// Ready reports whether a previous Load succeeded.
func (e *SidecarEngine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ready
}

func (e *SidecarEngine) probe(ctx context.Context) error {
	u := fmt.Sprintf("%s/health", e.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health status %d", ErrEngineUnavailable, resp.StatusCode)
	}
	return nil
}

// Transcribe uploads the file and returns the streamed segments. The
// response body stays open until the reader is exhausted or closed.
func (e *SidecarEngine) Transcribe(ctx context.Context, path, language string) (*AudioInfo, SegmentReader, error) {
	if language == "" {
		language = e.defaultLang
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			_ = mw.WriteField("model", e.model)
			if language != "" {
				_ = mw.WriteField("language", language)
			}
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	u := fmt.Sprintf("%s/transcribe", e.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, pr)
	if err != nil {
		return nil, nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, nil, fmt.Errorf("%w: transcribe status %d: %s", ErrEngineUnavailable, resp.StatusCode, body)
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	info, err := readInfoLine(sc)
	if err != nil {
		resp.Body.Close()
		return nil, nil, err
	}

	return info, &streamReader{body: resp.Body, sc: sc}, nil
}

// sidecarLine is one NDJSON line from the sidecar: type "info" first, then
// "segment" lines until the stream ends.
type sidecarLine struct {
	Type string `json:"type"`
	AudioInfo
	Segment
}

func readInfoLine(sc *bufio.Scanner) (*AudioInfo, error) {
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("%w: reading info: %v", ErrEngineUnavailable, err)
		}
		return nil, fmt.Errorf("%w: empty response", ErrEngineUnavailable)
	}
	var line sidecarLine
	if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
		return nil, fmt.Errorf("%w: decoding info line: %v", ErrEngineUnavailable, err)
	}
	if line.Type != "info" {
		return nil, fmt.Errorf("%w: expected info line, got %q", ErrEngineUnavailable, line.Type)
	}
	info := line.AudioInfo
	return &info, nil
}

type streamReader struct {
	body io.ReadCloser
	sc   *bufio.Scanner
}

func (r *streamReader) Next() (*Segment, error) {
	for r.sc.Scan() {
		raw := r.sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var line sidecarLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, fmt.Errorf("%w: decoding segment line: %v", ErrEngineUnavailable, err)
		}
		if line.Type != "segment" {
			continue
		}
		seg := line.Segment
		return &seg, nil
	}
	if err := r.sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading segments: %v", ErrEngineUnavailable, err)
	}
	return nil, io.EOF
}

func (r *streamReader) Close() error {
	return r.body.Close()
}

var _ Engine = (*SidecarEngine)(nil)
