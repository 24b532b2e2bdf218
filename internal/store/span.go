package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arc-self/apps/trace-insights/internal/wire"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}

// UpsertEndpoint resolves an endpoint id for the given tuple, creating the
// row on first sight. Concurrent inserters converge on one row: a
// unique-violation on insert triggers a retry-find rather than surfacing
// the error to the caller.
func (s *Store) UpsertEndpoint(ctx context.Context, ep EndpointInput) (string, error) {
	if id, ok, err := s.findEndpoint(ctx, ep); err != nil {
		return "", err
	} else if ok {
		return id, nil
	}

	newID := uuid.NewString()
	var insertErr error
	err := s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx,
			`INSERT INTO endpoint (id, service_name, ipv4, ipv6, port) VALUES ($1,$2,$3,$4,$5)`,
			newID, ep.ServiceName, ep.IPv4, ep.IPv6, ep.Port)
		insertErr = err
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			if id, ok, ferr := s.findEndpoint(ctx, ep); ferr == nil && ok {
				return id, nil
			}
		}
		return "", insertErr
	}
	return newID, nil
}

func (s *Store) findEndpoint(ctx context.Context, ep EndpointInput) (string, bool, error) {
	row := s.readers.QueryRow(ctx,
		`SELECT id FROM endpoint WHERE
		   coalesce(service_name,'') = coalesce($1,'') AND
		   coalesce(ipv4,'') = coalesce($2,'') AND
		   coalesce(ipv6,'') = coalesce($3,'') AND
		   coalesce(port,-1) = coalesce($4,-1)`,
		ep.ServiceName, ep.IPv4, ep.IPv6, ep.Port)
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

// EndpointInputFromWire projects a wire.Endpoint into the dedup tuple
// UpsertEndpoint matches on, lower-casing the service name.
func EndpointInputFromWire(e *wire.Endpoint) EndpointInput {
	if e == nil {
		return EndpointInput{}
	}
	var sn *string
	if e.ServiceName != nil {
		v := wire.NormalizeName(*e.ServiceName)
		sn = &v
	}
	return EndpointInput{ServiceName: sn, IPv4: e.IPv4, IPv6: e.IPv6, Port: e.Port}
}

// UpsertSpan implements the §4.1 write contract: if (traceId,id) exists,
// update only duration; otherwise resolve endpoints and insert. Tags are
// merged by (spanId,name); new annotations are appended unconditionally.
func (s *Store) UpsertSpan(ctx context.Context, rec SpanRecord) error {
	existing, found, err := s.GetSpan(ctx, rec.TraceID, rec.ID)
	if err != nil {
		return err
	}

	if !found {
		var localID, remoteID *string
		if rec.LocalEndpointID != nil {
			localID = rec.LocalEndpointID
		}
		if rec.RemoteEndpointID != nil {
			remoteID = rec.RemoteEndpointID
		}
		name := rec.Name
		if name != nil {
			n := wire.NormalizeName(*name)
			name = &n
		}
		if err := s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, `
				INSERT INTO span (trace_id, id, parent_id, name, kind, timestamp_us, duration_us, debug, shared, local_endpoint_id, remote_endpoint_id)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
				ON CONFLICT (trace_id, id) DO UPDATE SET duration_us = EXCLUDED.duration_us`,
				rec.TraceID, rec.ID, rec.ParentID, name, rec.Kind, rec.Timestamp, rec.Duration,
				rec.Debug, rec.Shared, localID, remoteID)
			return err
		}); err != nil {
			return err
		}
	} else if rec.Duration != nil && existing.Duration == nil {
		if err := s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, `UPDATE span SET duration_us=$1 WHERE trace_id=$2 AND id=$3`,
				*rec.Duration, rec.TraceID, rec.ID)
			return err
		}); err != nil {
			return err
		}
	}

	if err := s.upsertTags(ctx, rec.TraceID, rec.ID, rec.Tags); err != nil {
		return err
	}
	return s.insertAnnotations(ctx, rec.TraceID, rec.ID, rec.Annotations)
}

func (s *Store) upsertTags(ctx context.Context, traceID, spanID string, tags map[string]string) error {
	for name, value := range tags {
		name, value := wire.NormalizeName(name), value
		if err := s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, `
				INSERT INTO tag (trace_id, span_id, name, value) VALUES ($1,$2,$3,$4)
				ON CONFLICT (trace_id, span_id, name) DO UPDATE SET value = EXCLUDED.value`,
				traceID, spanID, name, value)
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertAnnotations(ctx context.Context, traceID, spanID string, anns []wire.Annotation) error {
	for _, a := range anns {
		id := uuid.NewString()
		if err := s.writer.submit(ctx, func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, `
				INSERT INTO annotation (id, trace_id, span_id, timestamp_us, value) VALUES ($1,$2,$3,$4,$5)`,
				id, traceID, spanID, a.Timestamp, a.Value)
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) GetSpan(ctx context.Context, traceID, id string) (SpanRecord, bool, error) {
	row := s.readers.QueryRow(ctx, `
		SELECT trace_id, id, parent_id, name, kind, timestamp_us, duration_us, debug, shared, local_endpoint_id, remote_endpoint_id
		FROM span WHERE trace_id=$1 AND id=$2`, traceID, id)
	var rec SpanRecord
	if err := row.Scan(&rec.TraceID, &rec.ID, &rec.ParentID, &rec.Name, &rec.Kind, &rec.Timestamp,
		&rec.Duration, &rec.Debug, &rec.Shared, &rec.LocalEndpointID, &rec.RemoteEndpointID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SpanRecord{}, false, nil
		}
		return SpanRecord{}, false, err
	}
	return rec, true, nil
}

// GetSpans implements the §4.1 read contract: when ServiceName is set but
// no endpoint matches, returns empty without a further query; ordering is
// by timestamp ascending; OnlyEndpoint suppresses tag/annotation hydration.
func (s *Store) GetSpans(ctx context.Context, q SpanQuery) ([]SpanRecord, error) {
	q.ClampLimit()

	var endpointID *string
	if q.ServiceName != nil {
		id, ok, err := s.findEndpoint(ctx, EndpointInput{ServiceName: q.ServiceName})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		endpointID = &id
	}

	start, end := q.Window()

	sqlStr := `
		SELECT trace_id, id, parent_id, name, kind, timestamp_us, duration_us, debug, shared, local_endpoint_id, remote_endpoint_id
		FROM span
		WHERE timestamp_us >= $1 AND timestamp_us <= $2`
	args := []any{start, end}
	n := 2

	if q.TraceID != nil {
		n++
		sqlStr += fmt.Sprintf(" AND trace_id = $%d", n)
		args = append(args, *q.TraceID)
	}
	if q.SpanName != nil {
		n++
		name := wire.NormalizeName(*q.SpanName)
		sqlStr += fmt.Sprintf(" AND name = $%d", n)
		args = append(args, name)
	}
	if endpointID != nil {
		n++
		sqlStr += fmt.Sprintf(" AND (local_endpoint_id = $%d OR remote_endpoint_id = $%d)", n, n)
		args = append(args, *endpointID)
	}
	if q.MinDuration != nil {
		n++
		sqlStr += fmt.Sprintf(" AND duration_us >= $%d", n)
		args = append(args, *q.MinDuration)
	}
	if q.MaxDuration != nil {
		n++
		sqlStr += fmt.Sprintf(" AND duration_us <= $%d", n)
		args = append(args, *q.MaxDuration)
	}
	if q.FilterFinished {
		sqlStr += " AND duration_us IS NOT NULL"
	}
	n++
	sqlStr += fmt.Sprintf(" ORDER BY timestamp_us ASC LIMIT $%d", n)
	args = append(args, q.Limit)

	rows, err := s.readers.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SpanRecord
	for rows.Next() {
		var rec SpanRecord
		if err := rows.Scan(&rec.TraceID, &rec.ID, &rec.ParentID, &rec.Name, &rec.Kind, &rec.Timestamp,
			&rec.Duration, &rec.Debug, &rec.Shared, &rec.LocalEndpointID, &rec.RemoteEndpointID); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if q.OnlyEndpoint {
		return out, nil
	}
	for i := range out {
		tags, err := s.tagsForSpan(ctx, out[i].TraceID, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Tags = tags
		anns, err := s.annotationsForSpan(ctx, out[i].TraceID, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Annotations = anns
	}
	return out, nil
}

func (s *Store) tagsForSpan(ctx context.Context, traceID, spanID string) (map[string]string, error) {
	rows, err := s.readers.Query(ctx, `SELECT name, value FROM tag WHERE trace_id=$1 AND span_id=$2`, traceID, spanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (s *Store) annotationsForSpan(ctx context.Context, traceID, spanID string) ([]wire.Annotation, error) {
	rows, err := s.readers.Query(ctx,
		`SELECT timestamp_us, value FROM annotation WHERE trace_id=$1 AND span_id=$2 ORDER BY timestamp_us ASC`,
		traceID, spanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []wire.Annotation
	for rows.Next() {
		var a wire.Annotation
		if err := rows.Scan(&a.Timestamp, &a.Value); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// MaxTraceParseSpans bounds how many spans the trace parser will load for a
// single trace before deriving a test result from it.
const MaxTraceParseSpans = 1000

// GetSpansForTrace loads every span of a trace, fully hydrated with tags and
// annotations, up to MaxTraceParseSpans — the trace parser's own read path,
// kept separate from GetSpans since it isn't bound by the public API's
// 500-row page size.
func (s *Store) GetSpansForTrace(ctx context.Context, traceID string) ([]SpanRecord, error) {
	rows, err := s.readers.Query(ctx, `
		SELECT sp.trace_id, sp.id, sp.parent_id, sp.name, sp.kind, sp.timestamp_us, sp.duration_us, sp.debug, sp.shared,
		       sp.local_endpoint_id, sp.remote_endpoint_id, le.service_name, re.service_name
		FROM span sp
		LEFT JOIN endpoint le ON sp.local_endpoint_id = le.id
		LEFT JOIN endpoint re ON sp.remote_endpoint_id = re.id
		WHERE sp.trace_id=$1 ORDER BY sp.timestamp_us ASC LIMIT $2`, traceID, MaxTraceParseSpans)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SpanRecord
	for rows.Next() {
		var rec SpanRecord
		if err := rows.Scan(&rec.TraceID, &rec.ID, &rec.ParentID, &rec.Name, &rec.Kind, &rec.Timestamp,
			&rec.Duration, &rec.Debug, &rec.Shared, &rec.LocalEndpointID, &rec.RemoteEndpointID,
			&rec.LocalServiceName, &rec.RemoteServiceName); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		tags, err := s.tagsForSpan(ctx, out[i].TraceID, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Tags = tags
		anns, err := s.annotationsForSpan(ctx, out[i].TraceID, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Annotations = anns
	}
	return out, nil
}

// GetEndpoint resolves one endpoint row by id, for rendering a span's
// local/remote endpoint back out over the wire.
func (s *Store) GetEndpoint(ctx context.Context, id string) (EndpointInput, bool, error) {
	row := s.readers.QueryRow(ctx, `SELECT service_name, ipv4, ipv6, port FROM endpoint WHERE id=$1`, id)
	var ep EndpointInput
	if err := row.Scan(&ep.ServiceName, &ep.IPv4, &ep.IPv6, &ep.Port); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return EndpointInput{}, false, nil
		}
		return EndpointInput{}, false, err
	}
	return ep, true, nil
}

func (s *Store) GetServices(ctx context.Context) ([]string, error) {
	rows, err := s.readers.Query(ctx, `SELECT DISTINCT service_name FROM endpoint WHERE service_name IS NOT NULL ORDER BY service_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// GetDependencies aggregates (localEndpoint → remoteEndpoint) service-name
// edges across spans within lookback, the one pairwise call-count
// aggregation the core provides (spec §1 Non-goals excludes deeper mining).
func (s *Store) GetDependencies(ctx context.Context, lookback time.Duration) ([]Dependency, error) {
	sinceUs := time.Now().Add(-lookback).UnixMicro()
	rows, err := s.readers.Query(ctx, `
		SELECT le.service_name, re.service_name,
		       count(*) AS call_count,
		       count(*) FILTER (WHERE t.value IS NOT NULL) AS error_count
		FROM span sp
		JOIN endpoint le ON sp.local_endpoint_id = le.id
		JOIN endpoint re ON sp.remote_endpoint_id = re.id
		LEFT JOIN tag t ON t.trace_id = sp.trace_id AND t.span_id = sp.id AND t.name = 'error'
		WHERE sp.timestamp_us >= $1 AND le.service_name IS NOT NULL AND re.service_name IS NOT NULL
		GROUP BY le.service_name, re.service_name`, sinceUs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Dependency
	for rows.Next() {
		var d Dependency
		if err := rows.Scan(&d.Parent, &d.Child, &d.CallCount, &d.ErrorCount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
