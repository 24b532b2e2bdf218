package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arc-self/apps/trace-insights/internal/domain"
)

// PurgeShellResults implements cleanup phase 1: delete test_result rows
// older than olderThan with cleanup_status == Shell, cascading
// test_result_in_report first.
func (s *Store) PurgeShellResults(ctx context.Context, olderThan time.Time) (int64, error) {
	rows, err := s.readers.Query(ctx,
		`SELECT test_id, trace_id FROM test_result WHERE date < $1 AND cleanup_status = $2`,
		olderThan, int32(domain.CleanupShell))
	if err != nil {
		return 0, err
	}
	type key struct{ testID, traceID string }
	var keys []key
	for rows.Next() {
		var k key
		if err := rows.Scan(&k.testID, &k.traceID); err != nil {
			rows.Close()
			return 0, err
		}
		keys = append(keys, k)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var deleted int64
	for _, k := range keys {
		if err := s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx,
				`DELETE FROM test_result_in_report WHERE trace_id=$1 AND test_id=$2`, k.traceID, k.testID)
			return err
		}); err != nil {
			return deleted, err
		}
		var rowsAffected int64
		err := s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
			ct, err := conn.Exec(ctx,
				`DELETE FROM test_result WHERE test_id=$1 AND trace_id=$2 AND cleanup_status=$3`,
				k.testID, k.traceID, int32(domain.CleanupShell))
			rowsAffected = ct.RowsAffected()
			return err
		})
		if err != nil {
			return deleted, err
		}
		deleted += rowsAffected
	}
	return deleted, nil
}

// DemoteWithDataResults implements cleanup phase 2: find test_result rows
// older than olderThan with cleanup_status == WithData, mark them Shell,
// and return them so the caller can delete their spans/tags/annotations.
func (s *Store) DemoteWithDataResults(ctx context.Context, olderThan time.Time) ([]domain.TestResult, error) {
	rows, err := s.readers.Query(ctx, `
		SELECT test_id, trace_id, date, status, duration_us, environment, components_called, nb_spans, cleanup_status
		FROM test_result WHERE date < $1 AND cleanup_status = $2`, olderThan, int32(domain.CleanupWithData))
	if err != nil {
		return nil, err
	}
	var toClean []domain.TestResult
	for rows.Next() {
		var tr domain.TestResult
		var statusStr string
		var componentsJSON []byte
		var cleanup int32
		if err := rows.Scan(&tr.TestID, &tr.TraceID, &tr.Date, &statusStr, &tr.Duration, &tr.Environment,
			&componentsJSON, &tr.NbSpans, &cleanup); err != nil {
			rows.Close()
			return nil, err
		}
		tr.Status = domain.TestStatus(statusStr)
		tr.CleanupStatus = domain.CleanupStatus(cleanup)
		_ = json.Unmarshal(componentsJSON, &tr.ComponentsCalled)
		toClean = append(toClean, tr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx,
			`UPDATE test_result SET cleanup_status=$1 WHERE date < $2 AND cleanup_status = $3`,
			int32(domain.CleanupShell), olderThan, int32(domain.CleanupWithData))
		return err
	}); err != nil {
		return nil, err
	}

	return toClean, nil
}

// DeleteSpansForTrace deletes all annotations and tags for every span of a
// trace, then the spans themselves — the per-trace cleanup step phase 2
// drives for each demoted test result.
func (s *Store) DeleteSpansForTrace(ctx context.Context, traceID string) error {
	if err := s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `DELETE FROM annotation WHERE trace_id=$1`, traceID)
		return err
	}); err != nil {
		return err
	}
	if err := s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `DELETE FROM tag WHERE trace_id=$1`, traceID)
		return err
	}); err != nil {
		return err
	}
	return s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `DELETE FROM span WHERE trace_id=$1`, traceID)
		return err
	})
}

// ExpireReports implements cleanup phase 3: delete report rows whose
// last_update predates olderThan, cascading test_result_in_report first.
func (s *Store) ExpireReports(ctx context.Context, olderThan time.Time) (int64, error) {
	rows, err := s.readers.Query(ctx, `SELECT id FROM report WHERE last_update < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var deleted int64
	for _, id := range ids {
		if err := s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, `DELETE FROM test_result_in_report WHERE report_id=$1`, id)
			return err
		}); err != nil {
			return deleted, err
		}
		if err := s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, `DELETE FROM report WHERE id=$1`, id)
			return err
		}); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
