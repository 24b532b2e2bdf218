package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/arc-self/apps/trace-insights/internal/domain"
)

// UpsertReportPlacement finds-or-creates the report row by (folder,name),
// then finds-or-creates the placement row by (reportId,testId,category,env).
// Category defaults to the report name and environment is taken exactly as
// given (nil matching IS NULL) when a placement is newly inserted; an
// existing placement only has its trace_id and status touched. last_update
// is bumped on every call, whether the report is new or not.
func (s *Store) UpsertReportPlacement(ctx context.Context, p domain.ReportPlacement, now time.Time) error {
	reportID, err := s.findOrCreateReport(ctx, p.Group, p.Name, now)
	if err != nil {
		return err
	}

	category := p.Name
	if p.Category != nil {
		category = *p.Category
	}

	placementID, found, err := s.findPlacement(ctx, reportID, p.Result.TestID, category, p.Environment)
	if err != nil {
		return err
	}

	if found {
		return s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx,
				`UPDATE test_result_in_report SET trace_id=$1, status=$2 WHERE id=$3`,
				p.Result.TraceID, string(p.Result.Status), placementID)
			return err
		})
	}

	newID := uuid.NewString()
	return s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO test_result_in_report (id, report_id, test_id, trace_id, category, environment, status)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			newID, reportID, p.Result.TestID, p.Result.TraceID, category, p.Environment, string(p.Result.Status))
		return err
	})
}

func (s *Store) findOrCreateReport(ctx context.Context, folder, name string, now time.Time) (string, error) {
	row := s.readers.QueryRow(ctx, `SELECT id FROM report WHERE folder=$1 AND name=$2`, folder, name)
	var id string
	err := row.Scan(&id)
	switch {
	case err == nil:
		return id, s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, `UPDATE report SET last_update=$1 WHERE id=$2`, now, id)
			return err
		})
	case errors.Is(err, pgx.ErrNoRows):
		newID := uuid.NewString()
		werr := s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx,
				`INSERT INTO report (id, name, folder, created_on, last_update) VALUES ($1,$2,$3,$4,$4)
				 ON CONFLICT (folder, name) DO UPDATE SET last_update=EXCLUDED.last_update`,
				newID, name, folder, now)
			return err
		})
		if werr != nil {
			return "", werr
		}
		row := s.readers.QueryRow(ctx, `SELECT id FROM report WHERE folder=$1 AND name=$2`, folder, name)
		if serr := row.Scan(&id); serr != nil {
			return "", serr
		}
		return id, nil
	default:
		return "", err
	}
}

func (s *Store) findPlacement(ctx context.Context, reportID, testID, category string, env *string) (string, bool, error) {
	row := s.readers.QueryRow(ctx, `
		SELECT id FROM test_result_in_report
		WHERE report_id=$1 AND test_id=$2 AND category=$3 AND coalesce(environment,'') = coalesce($4,'')`,
		reportID, testID, category, env)
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

func (s *Store) GetReportSummaries(ctx context.Context) ([]ReportSummary, error) {
	rows, err := s.readers.Query(ctx, `SELECT id, folder, name FROM report ORDER BY folder, name`)
	if err != nil {
		return nil, err
	}
	type reportRow struct{ id, group, name string }
	var reports []reportRow
	for rows.Next() {
		var r reportRow
		if err := rows.Scan(&r.id, &r.group, &r.name); err != nil {
			rows.Close()
			return nil, err
		}
		reports = append(reports, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]ReportSummary, 0, len(reports))
	for _, r := range reports {
		summary := ReportSummary{Group: r.group, Name: r.name}
		statusRows, err := s.readers.Query(ctx,
			`SELECT status, count(*) FROM test_result_in_report WHERE report_id=$1 GROUP BY status`, r.id)
		if err != nil {
			return nil, err
		}
		for statusRows.Next() {
			var status string
			var count int
			if err := statusRows.Scan(&status, &count); err != nil {
				statusRows.Close()
				return nil, err
			}
			switch domain.TestStatus(status) {
			case domain.TestSuccess:
				summary.SuccessCount = count
			case domain.TestFailure:
				summary.FailureCount = count
			case domain.TestSkipped:
				summary.SkippedCount = count
			}
		}
		statusRows.Close()

		envRows, err := s.readers.Query(ctx,
			`SELECT DISTINCT environment FROM test_result_in_report WHERE report_id=$1 AND environment IS NOT NULL`, r.id)
		if err != nil {
			return nil, err
		}
		for envRows.Next() {
			var env string
			if err := envRows.Scan(&env); err != nil {
				envRows.Close()
				return nil, err
			}
			summary.Environments = append(summary.Environments, env)
		}
		envRows.Close()

		out = append(out, summary)
	}
	return out, nil
}

// GetReport assembles the full report with per-category last test results.
// env == nil (or the literal "None" translated by the caller) means
// environment IS NULL.
func (s *Store) GetReport(ctx context.Context, group, name string, env *string) (ReportDetail, bool, error) {
	row := s.readers.QueryRow(ctx, `SELECT id, created_on, last_update FROM report WHERE folder=$1 AND name=$2`, group, name)
	var id string
	var detail ReportDetail
	detail.Group, detail.Name = group, name
	if err := row.Scan(&id, &detail.CreatedOn, &detail.LastUpdate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReportDetail{}, false, nil
		}
		return ReportDetail{}, false, err
	}

	catRows, err := s.readers.Query(ctx, `
		SELECT DISTINCT category FROM test_result_in_report
		WHERE report_id=$1 AND coalesce(environment,'') = coalesce($2,'')
		ORDER BY category`, id, env)
	if err != nil {
		return ReportDetail{}, false, err
	}
	var categories []string
	for catRows.Next() {
		var c string
		if err := catRows.Scan(&c); err != nil {
			catRows.Close()
			return ReportDetail{}, false, err
		}
		categories = append(categories, c)
	}
	catRows.Close()

	for _, c := range categories {
		testIDRows, err := s.readers.Query(ctx, `
			SELECT test_id FROM test_result_in_report
			WHERE report_id=$1 AND category=$2 AND coalesce(environment,'') = coalesce($3,'')`, id, c, env)
		if err != nil {
			return ReportDetail{}, false, err
		}
		var testIDs []string
		for testIDRows.Next() {
			var tid string
			if err := testIDRows.Scan(&tid); err != nil {
				testIDRows.Close()
				return ReportDetail{}, false, err
			}
			testIDs = append(testIDs, tid)
		}
		testIDRows.Close()

		var results []domain.TestResult
		for _, tid := range testIDs {
			rs, err := s.GetTestResults(ctx, TestResultQuery{TestID: &tid, Limit: 1})
			if err != nil {
				return ReportDetail{}, false, err
			}
			results = append(results, rs...)
		}
		detail.Categories = append(detail.Categories, ReportCategory{Category: c, LastResults: results})
	}

	return detail, true, nil
}
