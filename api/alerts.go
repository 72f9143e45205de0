package handler

import (
	"net/http"

	"github.com/enterprise/stalwart-gateway/internal/gateway"
)

// Alerts handles /api/alerts
func Alerts(w http.ResponseWriter, r *http.Request) {
	serve(w, r, gateway.ResourceAlerts)
}
