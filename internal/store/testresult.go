package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/arc-self/apps/trace-insights/internal/domain"
)

// SaveTestResult inserts the row then demotes any prior ToKeep rows for the
// same test id whose date is earlier than this one. The demotion is
// unconditional on the new row's own status — it runs purely on date
// ordering.
func (s *Store) SaveTestResult(ctx context.Context, tr domain.TestResult) error {
	componentsJSON, err := json.Marshal(tr.ComponentsCalled)
	if err != nil {
		return err
	}

	if err := s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO test_result (test_id, trace_id, date, status, duration_us, environment, components_called, nb_spans, cleanup_status)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			ON CONFLICT (test_id, trace_id) DO UPDATE SET
				date=EXCLUDED.date, status=EXCLUDED.status, duration_us=EXCLUDED.duration_us,
				environment=EXCLUDED.environment, components_called=EXCLUDED.components_called,
				nb_spans=EXCLUDED.nb_spans, cleanup_status=EXCLUDED.cleanup_status`,
			tr.TestID, tr.TraceID, tr.Date, string(tr.Status), tr.Duration, tr.Environment,
			componentsJSON, tr.NbSpans, int32(tr.CleanupStatus))
		return err
	}); err != nil {
		return err
	}

	return s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			UPDATE test_result SET cleanup_status=$1
			WHERE cleanup_status=$2 AND test_id=$3 AND date < $4`,
			int32(domain.CleanupWithData), int32(domain.CleanupToKeep), tr.TestID, tr.Date)
		return err
	})
}

// GetTestResults implements the §4.1 read contract: default order by date
// descending, limit clamped to 100.
func (s *Store) GetTestResults(ctx context.Context, q TestResultQuery) ([]domain.TestResult, error) {
	q.ClampLimit()

	sqlStr := `SELECT test_id, trace_id, date, status, duration_us, environment, components_called, nb_spans, cleanup_status FROM test_result WHERE 1=1`
	var args []any
	n := 0
	if q.TestID != nil {
		n++
		sqlStr += fmt.Sprintf(" AND test_id = $%d", n)
		args = append(args, *q.TestID)
	}
	if q.TraceID != nil {
		n++
		sqlStr += fmt.Sprintf(" AND trace_id = $%d", n)
		args = append(args, *q.TraceID)
	}
	if q.Environment != nil {
		n++
		sqlStr += fmt.Sprintf(" AND environment = $%d", n)
		args = append(args, *q.Environment)
	}
	n++
	sqlStr += fmt.Sprintf(" ORDER BY date DESC LIMIT $%d", n)
	args = append(args, q.Limit)

	rows, err := s.readers.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TestResult
	for rows.Next() {
		var tr domain.TestResult
		var statusStr string
		var componentsJSON []byte
		var cleanup int32
		if err := rows.Scan(&tr.TestID, &tr.TraceID, &tr.Date, &statusStr, &tr.Duration, &tr.Environment,
			&componentsJSON, &tr.NbSpans, &cleanup); err != nil {
			return nil, err
		}
		tr.Status = domain.TestStatus(statusStr)
		tr.CleanupStatus = domain.CleanupStatus(cleanup)
		_ = json.Unmarshal(componentsJSON, &tr.ComponentsCalled)
		out = append(out, tr)
	}
	return out, rows.Err()
}
