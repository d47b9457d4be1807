package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds one export.
const DefaultTimeout = 5 * time.Second

// maxDocumentSize is the largest service response accepted when
// HTTPRenderer.MaxBytes is unset.
const maxDocumentSize = 32 << 20

// Renderer produces a document from an export request.
type Renderer interface {
	Render(ctx context.Context, req Request) (Artifact, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, req Request) (Artifact, error)

func (f RendererFunc) Render(ctx context.Context, req Request) (Artifact, error) {
	return f(ctx, req)
}

// =============================================================================
// HTTP RENDERER - remote document-generation service
// =============================================================================

// HTTPRenderer POSTs the request as JSON and returns the response body.
// Bodies larger than MaxBytes are rejected, not truncated.
type HTTPRenderer struct {
	URL      string
	Client   *http.Client
	MaxBytes int64
}

func NewHTTPRenderer(url string, timeout time.Duration) *HTTPRenderer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPRenderer{URL: url, Client: &http.Client{Timeout: timeout}}
}

func (r *HTTPRenderer) Render(ctx context.Context, req Request) (Artifact, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Artifact{}, &ExportFailure{Cause: "could not encode report request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return Artifact{}, &ExportFailure{Cause: "invalid document service URL", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", ContentTypePDF)

	resp, err := r.Client.Do(httpReq)
	if err != nil {
		return Artifact{}, &ExportFailure{Cause: "document service unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Artifact{}, &ExportFailure{
			Cause: fmt.Sprintf("document service returned %d", resp.StatusCode),
			Err:   fmt.Errorf("%s", bytes.TrimSpace(snippet)),
		}
	}

	limit := r.MaxBytes
	if limit <= 0 {
		limit = maxDocumentSize
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return Artifact{}, &ExportFailure{Cause: "document download interrupted", Err: err}
	}
	if int64(len(data)) > limit {
		return Artifact{}, &ExportFailure{Cause: fmt.Sprintf("document exceeds %d bytes", limit)}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = ContentTypePDF
	}
	return Artifact{Filename: DefaultFilename, ContentType: contentType, Data: data}, nil
}
