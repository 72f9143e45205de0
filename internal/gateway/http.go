package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequestIDHeader carries a caller-supplied request id
const RequestIDHeader = "X-Request-Id"

// ServeHTTP adapts the resource to net/http. Repeated query keys keep their
// first value.
func (r *Resource) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp := r.Handle(req.Context(), fromHTTP(req))

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.StatusCode != http.StatusNoContent {
		_, _ = w.Write([]byte(resp.Body))
	}
}

// Gin adapts the resource to a gin route
func (r *Resource) Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := r.Handle(c.Request.Context(), fromHTTP(c.Request))

		for k, v := range resp.Headers {
			c.Header(k, v)
		}
		if resp.StatusCode == http.StatusNoContent {
			c.Status(resp.StatusCode)
			return
		}
		c.Data(resp.StatusCode, resp.Headers["Content-Type"], []byte(resp.Body))
	}
}

func fromHTTP(req *http.Request) Request {
	values := req.URL.Query()
	query := make(map[string]string, len(values))
	for k := range values {
		query[k] = values.Get(k)
	}

	return Request{
		Method:    req.Method,
		Query:     query,
		RequestID: req.Header.Get(RequestIDHeader),
	}
}
