package store

import (
	"context"

	"github.com/enterprise/stalwart-gateway/internal/bridge"
)

// Unavailable is a Reader that could not be opened. Every read returns the
// open error, so resources keep a non-nil source.
type Unavailable struct {
	Err error
}

func (u Unavailable) ListBridges(ctx context.Context) (bridge.Rows, error) {
	return nil, u.Err
}

func (u Unavailable) ListSpans(ctx context.Context, filter bridge.IDFilter) (bridge.Rows, error) {
	return nil, u.Err
}

func (u Unavailable) ListCszEvents(ctx context.Context) (bridge.Rows, error) {
	return nil, u.Err
}

func (u Unavailable) ListAlerts(ctx context.Context) (bridge.Rows, error) {
	return nil, u.Err
}

func (u Unavailable) CountBridges(ctx context.Context) (int, error) {
	return 0, u.Err
}

func (u Unavailable) CountActiveAlerts(ctx context.Context) (int, error) {
	return 0, u.Err
}

func (u Unavailable) Close() error {
	return nil
}
