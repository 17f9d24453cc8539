package gateway

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/flemzord/gemgate/internal/provider"
	"github.com/flemzord/gemgate/internal/usage"
)

const (
	defaultUsageLimit  = 50
	maxUsageLimit      = 1000
	defaultUsageWindow = 24 * time.Hour
)

// UsageResponse is the JSON response for GET /api/usage.
type UsageResponse struct {
	Since   time.Time     `json:"since"`
	Totals  usage.Totals  `json:"totals"`
	Entries []usage.Entry `json:"entries"`
}

// handleUsage returns an http.HandlerFunc for GET /api/usage. Query
// parameters: limit (rows, default 50) and window (duration for the
// totals, default 24h).
func (g *Gateway) handleUsage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.ledger == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "no usage ledger configured")
			return
		}

		limit := defaultUsageLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				g.writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", provider.ErrInvalidArgument))
				return
			}
			limit = min(n, maxUsageLimit)
		}
		window := defaultUsageWindow
		if s := r.URL.Query().Get("window"); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil || d <= 0 {
				g.writeError(w, r, fmt.Errorf("%w: window must be a positive duration", provider.ErrInvalidArgument))
				return
			}
			window = d
		}

		entries, err := g.ledger.Recent(r.Context(), limit)
		if err != nil {
			g.writeError(w, r, err)
			return
		}
		since := time.Now().Add(-window)
		totals, err := g.ledger.Totals(r.Context(), since)
		if err != nil {
			g.writeError(w, r, err)
			return
		}
		if entries == nil {
			entries = []usage.Entry{}
		}
		writeJSON(w, http.StatusOK, UsageResponse{Since: since, Totals: totals, Entries: entries})
	}
}
