package postgres

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
)

const pgxmockExpectationsNotMetMsg = "pgxmock expectations not met"

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var (
	testCreatedAt = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	testNow       = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
)

func newMockPool(t *testing.T) (context.Context, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}
	t.Cleanup(mockPool.Close)
	return context.Background(), mockPool
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
