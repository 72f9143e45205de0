package handler

import (
	"net/http"

	"github.com/enterprise/stalwart-gateway/internal/gateway"
)

// Metrics handles /api/metrics?bridgeId=
func Metrics(w http.ResponseWriter, r *http.Request) {
	serve(w, r, gateway.ResourceMetrics)
}
