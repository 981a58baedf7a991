// Package health serves the liveness probe.
package health

import (
	"net/http"

	"github.com/aanand-mishra/homeowners-api/internal/utils/response"
)

// Handler answers GET /healthz with {"status":"ok"}.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": response.StatusOK})
	}
}
