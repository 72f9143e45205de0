package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/enterprise/stalwart-gateway/internal/bridge"
	"github.com/lib/pq"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockPostgres(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Postgres) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger, _ := logtest.NewNullLogger()
	return db, mock, NewPostgres(db, logger)
}

func TestPostgres_ListSpans_Filtered(t *testing.T) {
	db, mock, repo := setupMockPostgres(t)
	defer db.Close()

	query, _ := RenderSelectSQL(SpansView(bridge.BridgeEquals("BR-002")))
	rows := sqlmock.NewRows([]string{"coalesce"}).AddRow([]byte(`[
		{"id":"SP-003","span_name":"River Span","bridge_id":"BR-002",
		 "bridge_systems":{"bridge_id":"BR-002","bridge_name":"Brooklyn Bridge","country":"USA","bridge_type":"suspension"}}]`))

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("BR-002").
		WillReturnRows(rows)

	result, err := repo.ListSpans(context.Background(), bridge.BridgeEquals("BR-002"))

	spans := decode[bridge.Span](t, result, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "BR-002", spans[0].BridgeID)
	assert.Equal(t, "Brooklyn Bridge", spans[0].Bridge.BridgeName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListCszEvents(t *testing.T) {
	db, mock, repo := setupMockPostgres(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"coalesce"}).AddRow([]byte(`[
		{"id":"CSZ-9","span_id":"SP-1","detection_time":"2026-04-02T08:00:00+00:00","bridge_spans":{"span_name":"Main","bridge_systems":{"bridge_id":"BR-001","bridge_name":"Golden Gate Bridge"}}}]`))

	mock.ExpectQuery(`ORDER BY r.ord DESC`).
		WillReturnRows(rows)

	result, err := repo.ListCszEvents(context.Background())

	events := decode[bridge.CszEvent](t, result, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Main", events[0].Span.SpanName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_EmptyAggregate(t *testing.T) {
	db, mock, repo := setupMockPostgres(t)
	defer db.Close()

	mock.ExpectQuery(`FROM bridge_systems t0`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow([]byte(`[]`)))

	bridges, err := repo.ListBridges(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, bridges)
	assert.Empty(t, bridges)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DriverErrorMessagePassThrough(t *testing.T) {
	db, mock, repo := setupMockPostgres(t)
	defer db.Close()

	mock.ExpectQuery(`FROM csz_events`).
		WillReturnError(&pq.Error{Code: "42P01", Message: `relation "csz_events" does not exist`})

	_, err := repo.ListCszEvents(context.Background())

	require.Error(t, err)
	assert.Equal(t, `relation "csz_events" does not exist`, err.Error())
	var queryErr *QueryError
	require.ErrorAs(t, err, &queryErr)
	assert.Equal(t, "42P01", queryErr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Counts(t *testing.T) {
	db, mock, repo := setupMockPostgres(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM bridge_systems t0")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM alerts t0 WHERE t0.is_active = $1")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.CountBridges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, total)

	active, err := repo.CountActiveAlerts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, active)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CountConnectionError(t *testing.T) {
	db, mock, repo := setupMockPostgres(t)
	defer db.Close()

	mock.ExpectQuery(`count`).WillReturnError(errors.New("connection refused"))

	_, err := repo.CountActiveAlerts(context.Background())

	require.Error(t, err)
	assert.True(t, IsQueryError(err))
	assert.Equal(t, "connection refused", err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Close(t *testing.T) {
	db, mock, repo := setupMockPostgres(t)
	mock.ExpectClose()

	require.NoError(t, repo.Close())
	require.NoError(t, mock.ExpectationsWereMet())
	_ = db
}
