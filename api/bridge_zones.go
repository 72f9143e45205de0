package handler

import (
	"net/http"

	"github.com/enterprise/stalwart-gateway/internal/gateway"
)

// BridgeZones handles /api/bridge-zones
func BridgeZones(w http.ResponseWriter, r *http.Request) {
	serve(w, r, gateway.ResourceZones)
}
