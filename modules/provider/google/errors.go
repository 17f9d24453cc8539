package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/flemzord/gemgate/internal/provider"
)

// maxErrorBodyExcerpt bounds the body excerpt kept on errors.
const maxErrorBodyExcerpt = 4096

// mapHTTPError converts a non-2xx response into a *provider.APIError. The
// vendor error body {error: {code, message, status}} fills the structured
// fields when present; otherwise the raw body becomes the message.
func mapHTTPError(statusCode int, body []byte, url string) error {
	apiErr := &provider.APIError{
		StatusCode:   statusCode,
		URL:          url,
		ResponseBody: truncate(string(body), maxErrorBodyExcerpt),
	}

	var er errorResponse
	if json.Unmarshal(body, &er) == nil && er.Error != nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
		apiErr.Status = er.Error.Status
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("HTTP %d", statusCode)
		}
	}
	return apiErr
}

// mapConnectionError maps network-level errors to provider sentinel errors.
// Context errors pass through unchanged.
func mapConnectionError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", provider.ErrProviderDown, err)
	}
	return fmt.Errorf("google: %w", err)
}
