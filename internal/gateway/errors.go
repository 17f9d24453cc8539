package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flemzord/gemgate/internal/provider"
)

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps a model or request error to an HTTP status code.
func statusFor(err error) int {
	var (
		apiErr   *provider.APIError
		maxBytes *http.MaxBytesError
	)
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, provider.ErrInvalidArgument),
		errors.Is(err, provider.ErrUnsupported),
		errors.Is(err, provider.ErrTooManyValues):
		return http.StatusBadRequest
	case errors.Is(err, provider.ErrRateLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, provider.ErrAuthentication),
		errors.As(err, &apiErr),
		errors.Is(err, provider.ErrSchemaValidation),
		errors.Is(err, provider.ErrResponseTooLarge):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as a JSON error body with the mapped status.
func (g *Gateway) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && g.logger != nil {
		g.logger.Warn("gateway request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSONError(w, status, err.Error())
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
