package handler

import (
	"net/http"

	"github.com/enterprise/stalwart-gateway/internal/gateway"
)

// BridgeSpans handles /api/bridge-spans?bridgeId=
func BridgeSpans(w http.ResponseWriter, r *http.Request) {
	serve(w, r, gateway.ResourceSpans)
}
