package gateway

import "net/http"

// Envelope is the uniform body of every non-preflight response. Failures
// carry only Success and Error; a nil Data is omitted.
type Envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// Request is the transport-neutral inbound invocation
type Request struct {
	Method    string
	Query     map[string]string
	RequestID string
}

// Param returns a query parameter, empty when absent
func (r Request) Param(key string) string {
	if r.Query == nil {
		return ""
	}
	return r.Query[key]
}

// Response is the transport-neutral outcome of one invocation
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

const allowedMethods = "GET, OPTIONS"

// Headers returns the fixed cross-origin headers attached to every response
func Headers() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type",
		"Access-Control-Allow-Methods": allowedMethods,
		"Content-Type":                 "application/json",
	}
}

func preflight() Response {
	return Response{
		StatusCode: http.StatusNoContent,
		Headers:    Headers(),
		Body:       "",
	}
}
