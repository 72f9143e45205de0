package handler

import (
	"net/http"

	"github.com/enterprise/stalwart-gateway/internal/gateway"
)

// BridgeHealth handles /api/bridge-health?bridgeId=
func BridgeHealth(w http.ResponseWriter, r *http.Request) {
	serve(w, r, gateway.ResourceHealth)
}
