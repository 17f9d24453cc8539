package google

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/flemzord/gemgate/internal/provider"
	"github.com/flemzord/gemgate/internal/security"
)

// maxResponseSize is the maximum response body size (10 MB).
// Protects against OOM from malformed or huge responses.
const maxResponseSize = 10 * 1024 * 1024

// apiKeyHeader carries the API key on every request.
const apiKeyHeader = "x-goog-api-key"

// requestHeaders merges the API key header, the provider headers and the
// per-call headers, later entries winning.
func (p *Provider) requestHeaders(call map[string]string) (http.Header, error) {
	key, err := security.LoadAPIKey(p.apiKey, p.apiKeyEnv, "Google Generative AI")
	if err != nil {
		return nil, err
	}
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set(apiKeyHeader, key)
	for k, v := range p.headers {
		h.Set(k, v)
	}
	for k, v := range call {
		h.Set(k, v)
	}
	return h, nil
}

// newHTTPRequest creates an authenticated POST request carrying body.
func (p *Provider) newHTTPRequest(ctx context.Context, url string, body []byte, headers map[string]string) (*http.Request, error) {
	h, err := p.requestHeaders(headers)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("google: create request: %w", err)
	}
	httpReq.Header = h
	return httpReq, nil
}

// postResult is a buffered response.
type postResult struct {
	headers http.Header
	body    []byte
}

// doPost sends a POST request with the non-streaming client. The response
// body is limited to maxResponseSize bytes. Non-2xx statuses are mapped to
// *provider.APIError.
func (p *Provider) doPost(ctx context.Context, url string, body []byte, headers map[string]string) (*postResult, error) {
	httpReq, err := p.newHTTPRequest(ctx, url, body, headers)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("sending request", "url", url, "bytes", len(body))

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, mapConnectionError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, mapConnectionError(fmt.Errorf("read response: %w", err))
	}
	if len(data) > maxResponseSize {
		return nil, fmt.Errorf("%w: google: response exceeds %d bytes", provider.ErrResponseTooLarge, maxResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := mapHTTPError(resp.StatusCode, data, url)
		p.logger.Warn("api returned error", "status", resp.StatusCode, "error", apiErr)
		return nil, apiErr
	}

	return &postResult{headers: resp.Header, body: data}, nil
}

// openStream sends a POST request with the streaming client and returns the
// open response. The caller owns the body.
func (p *Provider) openStream(ctx context.Context, url string, body []byte, headers map[string]string) (*http.Response, error) {
	httpReq, err := p.newHTTPRequest(ctx, url, body, headers)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	p.logger.Debug("opening stream", "url", url, "bytes", len(body))

	resp, err := p.streamClient.Do(httpReq)
	if err != nil {
		return nil, mapConnectionError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		apiErr := mapHTTPError(resp.StatusCode, data, url)
		p.logger.Warn("api returned error", "status", resp.StatusCode, "error", apiErr)
		return nil, apiErr
	}
	return resp, nil
}
