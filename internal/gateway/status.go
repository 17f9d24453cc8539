package gateway

import (
	"net/http"
	"time"

	"github.com/flemzord/gemgate/internal/usage"
)

// StatusResponse is the JSON response for GET /api/status.
type StatusResponse struct {
	Uptime         float64       `json:"uptime_seconds"`
	Model          string        `json:"model,omitempty"`
	EmbeddingModel string        `json:"embedding_model,omitempty"`
	Check          *CheckStatus  `json:"check,omitempty"`
	Usage          *usage.Totals `json:"usage_since_start,omitempty"`
}

// handleStatus returns an http.HandlerFunc for GET /api/status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			Uptime: time.Since(g.startedAt).Truncate(time.Second).Seconds(),
			Check:  g.checkStatus(),
		}
		if g.lm != nil {
			resp.Model = g.lm.ModelID()
		}
		if g.em != nil {
			resp.EmbeddingModel = g.em.ModelID()
		}
		if g.ledger != nil {
			totals, err := g.ledger.Totals(r.Context(), g.startedAt)
			if err != nil {
				g.writeError(w, r, err)
				return
			}
			resp.Usage = &totals
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
