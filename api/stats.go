package handler

import (
	"net/http"

	"github.com/enterprise/stalwart-gateway/internal/gateway"
)

// Stats handles /api/stats
func Stats(w http.ResponseWriter, r *http.Request) {
	serve(w, r, gateway.ResourceStats)
}
