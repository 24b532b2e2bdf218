package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/arc-self/apps/trace-insights/internal/domain"
	"github.com/arc-self/apps/trace-insights/internal/wire"
)

// FindOrCreateTestItem resolves (parentId,name,source) to an id, creating
// the row on first sight. Concurrent creators converge on one row via the
// same find/insert/refind sequence UpsertEndpoint uses.
func (s *Store) FindOrCreateTestItem(ctx context.Context, parentID, name string, source int32) (string, error) {
	name = wire.NormalizeName(name)
	if id, ok, err := s.findTestItem(ctx, parentID, name, source); err != nil {
		return "", err
	} else if ok {
		return id, nil
	}

	newID := uuid.NewString()
	err := s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx,
			`INSERT INTO test_item (id, parent_id, name, source) VALUES ($1,$2,$3,$4)`,
			newID, parentID, name, source)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			if id, ok, ferr := s.findTestItem(ctx, parentID, name, source); ferr == nil && ok {
				return id, nil
			}
		}
		return "", err
	}
	return newID, nil
}

func (s *Store) findTestItem(ctx context.Context, parentID, name string, source int32) (string, bool, error) {
	row := s.readers.QueryRow(ctx,
		`SELECT id FROM test_item WHERE parent_id=$1 AND name=$2 AND source=$3`, parentID, name, source)
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

// GetTestItems implements the §4.1 read contract: WithFullPath walks parent
// links to "root" with a per-request memo, WithChildren loads direct
// children, WithTraces attaches the 5 most recent results.
func (s *Store) GetTestItems(ctx context.Context, q TestItemQuery) ([]TestItemView, error) {
	var items []domain.TestItem
	var err error
	switch {
	case q.ID != nil:
		it, ok, ferr := s.getTestItemByID(ctx, *q.ID)
		if ferr != nil {
			return nil, ferr
		}
		if !ok {
			return nil, nil
		}
		items = []domain.TestItem{it}
	case q.ParentID != nil:
		items, err = s.testItemsByParent(ctx, *q.ParentID)
	default:
		items, err = s.testItemsByParent(ctx, domain.RootTestItemID)
	}
	if err != nil {
		return nil, err
	}

	memo := map[string][]string{domain.RootTestItemID: nil}
	out := make([]TestItemView, 0, len(items))
	for _, it := range items {
		view := TestItemView{TestItem: it}
		if q.WithFullPath {
			path, ferr := s.fullPath(ctx, it.ID, memo)
			if ferr != nil {
				return nil, ferr
			}
			view.FullPath = path
		}
		if q.WithChildren {
			children, ferr := s.testItemsByParent(ctx, it.ID)
			if ferr != nil {
				return nil, ferr
			}
			view.Children = children
		}
		if q.WithTraces {
			results, ferr := s.GetTestResults(ctx, TestResultQuery{TestID: &it.ID, Limit: RecentResultsPerTestItem})
			if ferr != nil {
				return nil, ferr
			}
			view.RecentResults = results
		}
		out = append(out, view)
	}
	return out, nil
}

// fullPath walks parent links to "root", memoising visited ids within the
// lifetime of a single GetTestItems call per the cached-parent-walk
// contract (spec §9).
func (s *Store) fullPath(ctx context.Context, id string, memo map[string][]string) ([]string, error) {
	if path, ok := memo[id]; ok {
		return path, nil
	}
	item, ok, err := s.getTestItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		memo[id] = []string{}
		return memo[id], nil
	}
	parentPath, err := s.fullPath(ctx, item.ParentID, memo)
	if err != nil {
		return nil, err
	}
	path := append(append([]string{}, parentPath...), item.Name)
	memo[id] = path
	return path, nil
}

func (s *Store) getTestItemByID(ctx context.Context, id string) (domain.TestItem, bool, error) {
	row := s.readers.QueryRow(ctx, `SELECT id, parent_id, name, source FROM test_item WHERE id=$1`, id)
	var it domain.TestItem
	if err := row.Scan(&it.ID, &it.ParentID, &it.Name, &it.Source); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TestItem{}, false, nil
		}
		return domain.TestItem{}, false, err
	}
	return it, true, nil
}

func (s *Store) testItemsByParent(ctx context.Context, parentID string) ([]domain.TestItem, error) {
	rows, err := s.readers.Query(ctx, `SELECT id, parent_id, name, source FROM test_item WHERE parent_id=$1 ORDER BY name`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.TestItem
	for rows.Next() {
		var it domain.TestItem
		if err := rows.Scan(&it.ID, &it.ParentID, &it.Name, &it.Source); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) GetEnvironments(ctx context.Context) ([]string, error) {
	rows, err := s.readers.Query(ctx,
		`SELECT DISTINCT environment FROM test_result WHERE environment IS NOT NULL ORDER BY environment`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var env string
		if err := rows.Scan(&env); err != nil {
			return nil, err
		}
		out = append(out, env)
	}
	return out, rows.Err()
}
