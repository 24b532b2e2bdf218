package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/arc-self/apps/trace-insights/internal/domain"
)

func (s *Store) CreateScript(ctx context.Context, sc domain.Script) (domain.Script, error) {
	sc.ID = uuid.NewString()
	if sc.Status == "" {
		sc.Status = domain.ScriptEnabled
	}
	err := s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx,
			`INSERT INTO script (id, name, source, type, date_added, status) VALUES ($1,$2,$3,$4,$5,$6)`,
			sc.ID, sc.Name, sc.Source, string(sc.Type), sc.DateAdded, string(sc.Status))
		return err
	})
	return sc, err
}

func (s *Store) UpdateScript(ctx context.Context, sc domain.Script) (domain.Script, error) {
	err := s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx,
			`UPDATE script SET name=$1, source=$2, type=$3, status=COALESCE(NULLIF($4,''), status) WHERE id=$5`,
			sc.Name, sc.Source, string(sc.Type), string(sc.Status), sc.ID)
		if err == nil && tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return err
	})
	if err != nil {
		return domain.Script{}, err
	}
	return s.GetScript(ctx, sc.ID)
}

func (s *Store) DeleteScript(ctx context.Context, id string) (domain.Script, error) {
	sc, err := s.GetScript(ctx, id)
	if err != nil {
		return domain.Script{}, err
	}
	err = s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `DELETE FROM script WHERE id=$1`, id)
		return err
	})
	return sc, err
}

func (s *Store) GetScript(ctx context.Context, id string) (domain.Script, error) {
	row := s.readers.QueryRow(ctx,
		`SELECT id, name, source, type, date_added, status FROM script WHERE id=$1`, id)
	var sc domain.Script
	var typ, status string
	if err := row.Scan(&sc.ID, &sc.Name, &sc.Source, &typ, &sc.DateAdded, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Script{}, ErrNotFound
		}
		return domain.Script{}, err
	}
	sc.Type, sc.Status = domain.ScriptType(typ), domain.ScriptStatus(status)
	return sc, nil
}

// ListScripts loads scripts restricted to the given types, or all scripts
// when types is empty. The Streamer calls this with ExecutableTypes only.
func (s *Store) ListScripts(ctx context.Context, types []domain.ScriptType) ([]domain.Script, error) {
	sqlStr := `SELECT id, name, source, type, date_added, status FROM script`
	var args []any
	if len(types) > 0 {
		sqlStr += ` WHERE type = ANY($1)`
		strs := make([]string, len(types))
		for i, t := range types {
			strs[i] = string(t)
		}
		args = append(args, strs)
	}
	rows, err := s.readers.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Script
	for rows.Next() {
		var sc domain.Script
		var typ, status string
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.Source, &typ, &sc.DateAdded, &status); err != nil {
			return nil, err
		}
		sc.Type, sc.Status = domain.ScriptType(typ), domain.ScriptStatus(status)
		out = append(out, sc)
	}
	return out, rows.Err()
}

// ErrNotFound is returned by single-row lookups that found nothing.
var ErrNotFound = errors.New("store: not found")
