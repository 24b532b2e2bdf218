// Package store is the normalised persistent layer behind the ingestion and
// query pipeline: one serialised writer connection plus a small reader
// pool, mirroring the "single writer, N readers" discipline the
// concurrency model requires.
package store

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arc-self/apps/trace-insights/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// ReaderPoolSize is the default reader pool width (N=3).
const ReaderPoolSize = 3

// Querier is the full read/write contract the rest of the pipeline programs
// against; handlers, the ingestor, and the background actors all depend on
// this interface rather than *Store so tests can substitute a hand-written
// mock or fake (see internal/httpapi and internal/reporter tests).
type Querier interface {
	UpsertSpan(ctx context.Context, rec SpanRecord) error
	UpsertEndpoint(ctx context.Context, ep EndpointInput) (string, error)
	FindOrCreateTestItem(ctx context.Context, parentID, name string, source int32) (string, error)
	SaveTestResult(ctx context.Context, tr domain.TestResult) error
	UpsertReportPlacement(ctx context.Context, p domain.ReportPlacement, now time.Time) error
	CreateScript(ctx context.Context, s domain.Script) (domain.Script, error)
	UpdateScript(ctx context.Context, s domain.Script) (domain.Script, error)
	DeleteScript(ctx context.Context, id string) (domain.Script, error)
	GetScript(ctx context.Context, id string) (domain.Script, error)
	ListScripts(ctx context.Context, types []domain.ScriptType) ([]domain.Script, error)

	GetSpan(ctx context.Context, traceID, id string) (SpanRecord, bool, error)
	GetSpans(ctx context.Context, q SpanQuery) ([]SpanRecord, error)
	GetSpansForTrace(ctx context.Context, traceID string) ([]SpanRecord, error)
	GetEndpoint(ctx context.Context, id string) (EndpointInput, bool, error)
	GetServices(ctx context.Context) ([]string, error)
	GetDependencies(ctx context.Context, lookback time.Duration) ([]Dependency, error)
	GetTestItems(ctx context.Context, q TestItemQuery) ([]TestItemView, error)
	GetTestResults(ctx context.Context, q TestResultQuery) ([]domain.TestResult, error)
	GetEnvironments(ctx context.Context) ([]string, error)
	GetReportSummaries(ctx context.Context) ([]ReportSummary, error)
	GetReport(ctx context.Context, group, name string, env *string) (ReportDetail, bool, error)

	PurgeShellResults(ctx context.Context, olderThan time.Time) (int64, error)
	DemoteWithDataResults(ctx context.Context, olderThan time.Time) ([]domain.TestResult, error)
	DeleteSpansForTrace(ctx context.Context, traceID string) error
	ExpireReports(ctx context.Context, olderThan time.Time) (int64, error)
}

// EndpointInput is the non-null-tuple projection of wire.Endpoint used for
// dedup lookups.
type EndpointInput struct {
	ServiceName *string
	IPv4        *string
	IPv6        *string
	Port        *int32
}

// Store implements Querier against Postgres, via pgx.
type Store struct {
	writer  *writer
	readers *pgxpool.Pool
	log     *zap.Logger
}

var _ Querier = (*Store)(nil)

// Open connects the single writer connection and the reader pool, and
// applies schema.sql idempotently (CREATE TABLE/INDEX IF NOT EXISTS).
func Open(ctx context.Context, dbURL string, log *zap.Logger) (*Store, error) {
	writerConn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect writer: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		writerConn.Close(ctx)
		return nil, fmt.Errorf("parse reader pool config: %w", err)
	}
	poolCfg.MaxConns = ReaderPoolSize
	poolCfg.ConnConfig.Tracer = otelpgx.NewTracer()

	readers, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		writerConn.Close(ctx)
		return nil, fmt.Errorf("open reader pool: %w", err)
	}

	if _, err := writerConn.Exec(ctx, schemaSQL); err != nil {
		readers.Close()
		writerConn.Close(ctx)
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{writer: newWriter(writerConn), readers: readers, log: log}, nil
}

func (s *Store) Close() {
	s.writer.Close()
	s.readers.Close()
}

// ErrConnectionLost names a store failure caused by a lost connection. No
// method in this package returns it, and nothing in cmd/api rebuilds the
// Store when a connection is lost.
var ErrConnectionLost = fmt.Errorf("store: connection lost")
