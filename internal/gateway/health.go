package gateway

import (
	"net/http"
	"time"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status   string       `json:"status"` // "ok" or "degraded"
	Provider string       `json:"provider,omitempty"`
	Model    string       `json:"model,omitempty"`
	Check    *CheckStatus `json:"check,omitempty"`
}

// CheckStatus is the latest health check outcome.
type CheckStatus struct {
	State     string    `json:"state"` // healthy, cooldown or dead
	Available bool      `json:"available"`
	Failures  int       `json:"failures"`
	LastError string    `json:"last_error,omitempty"`
	LastCheck time.Time `json:"last_check,omitzero"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
// Returns 200 when the model is available or unchecked, 503 while the check
// reports it in cooldown or dead.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: "ok"}

		if g.lm != nil {
			resp.Provider = g.lm.Provider()
			resp.Model = g.lm.ModelID()
		}
		if check := g.checkStatus(); check != nil {
			resp.Check = check
			if !check.Available {
				resp.Status = "degraded"
			}
		}

		status := http.StatusOK
		if resp.Status == "degraded" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

func (g *Gateway) checkStatus() *CheckStatus {
	if g.health == nil {
		return nil
	}
	snap := g.health.Snapshot()
	return &CheckStatus{
		State:     snap.State.String(),
		Available: snap.Available,
		Failures:  snap.Failures,
		LastError: snap.LastError,
		LastCheck: snap.LastCheck,
	}
}
