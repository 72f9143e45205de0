package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/enterprise/stalwart-gateway/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// PostgREST reads from the managed backend's REST interface using the
// service-role key
type PostgREST struct {
	viewReader
	client *resty.Client
	logger logrus.FieldLogger
}

// postgrestError is the error body the REST interface returns
type postgrestError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// NewPostgREST creates a REST backend. It does not contact the server.
func NewPostgREST(cfg config.BackendConfig, logger logrus.FieldLogger) *PostgREST {
	baseURL := strings.TrimRight(cfg.URL, "/") + "/" + strings.Trim(cfg.RESTPath, "/")

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("apikey", cfg.ServiceRoleKey).
		SetAuthToken(cfg.ServiceRoleKey).
		SetHeader("Accept", "application/json")

	p := &PostgREST{
		client: client,
		logger: logger,
	}
	p.viewReader = viewReader{fetch: p.fetch, count: p.count}
	return p
}

// Close releases idle connections
func (p *PostgREST) Close() error {
	p.client.GetClient().CloseIdleConnections()
	return nil
}

func (p *PostgREST) fetch(ctx context.Context, v View, dest interface{}) error {
	start := time.Now()

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParamsFromValues(RenderPostgREST(v)).
		Get("/" + v.Relation)
	if err != nil {
		return NewQueryError(err, v.Relation, 0, "", "")
	}
	if resp.IsError() {
		return decodePostgRESTError(v.Relation, resp.StatusCode(), resp.Body())
	}

	if err := json.Unmarshal(resp.Body(), dest); err != nil {
		return NewQueryError(err, v.Relation, resp.StatusCode(), "", fmt.Sprintf("failed to decode %s rows: %v", v.Relation, err))
	}

	p.logger.WithFields(logrus.Fields{
		"relation": v.Relation,
		"duration": time.Since(start),
	}).Debug("PostgREST select completed")

	return nil
}

func (p *PostgREST) count(ctx context.Context, v View) (int, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "count=exact").
		SetQueryParamsFromValues(RenderPostgREST(v)).
		Head("/" + v.Relation)
	if err != nil {
		return 0, NewQueryError(err, v.Relation, 0, "", "")
	}
	if resp.IsError() {
		return 0, decodePostgRESTError(v.Relation, resp.StatusCode(), resp.Body())
	}

	total, err := ParseContentRange(resp.Header().Get("Content-Range"))
	if err != nil {
		return 0, NewQueryError(err, v.Relation, resp.StatusCode(), "", "")
	}
	return total, nil
}

// RenderPostgREST turns a view into REST query parameters
func RenderPostgREST(v View) url.Values {
	values := url.Values{}
	values.Set("select", selectClause(v.Columns, v.Embeds))
	if v.Filter != nil {
		values.Set(v.Filter.Column, "eq."+formatValue(v.Filter.Value))
	}
	if v.Order != nil {
		direction := "asc"
		if v.Order.Descending {
			direction = "desc"
		}
		values.Set("order", v.Order.Column+"."+direction)
	}
	return values
}

func selectClause(columns []string, embeds []Embed) string {
	parts := columns
	if len(parts) == 0 {
		parts = []string{"*"}
	}
	parts = append([]string(nil), parts...)

	for _, e := range embeds {
		name := e.Relation
		if e.Inner {
			name += "!inner"
		}
		parts = append(parts, fmt.Sprintf("%s(%s)", name, selectClause(e.Columns, e.Embeds)))
	}
	return strings.Join(parts, ",")
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// ParseContentRange reads the total from a "0-24/3573" or "*/0" header
func ParseContentRange(header string) (int, error) {
	idx := strings.LastIndex(header, "/")
	if idx < 0 {
		return 0, ErrUnknownTotal
	}
	total := header[idx+1:]
	if total == "*" {
		return 0, ErrUnknownTotal
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTotal, header)
	}
	return n, nil
}

func decodePostgRESTError(relation string, status int, body []byte) *QueryError {
	var payload postgrestError
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		return NewQueryError(nil, relation, status, payload.Code, payload.Message)
	}
	message := http.StatusText(status)
	if message == "" {
		message = fmt.Sprintf("status %d", status)
	}
	return NewQueryError(nil, relation, status, "", message)
}
