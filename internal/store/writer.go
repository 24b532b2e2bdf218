package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// writer serialises every mutating call through one long-lived connection,
// generalising the dedicated, non-pooled pgx connection `cdc-worker` opens
// for ordered WAL processing: here a buffered channel of closures plays the
// role that channel's single consumer goroutine plays there, giving the
// store's write path the FIFO-per-sender ordering the concurrency model
// requires without an explicit transaction on every call.
type writer struct {
	conn *pgx.Conn
	jobs chan writerJob
	done chan struct{}
}

type writerJob struct {
	fn  func(ctx context.Context, conn *pgx.Conn) error
	err chan<- error
}

func newWriter(conn *pgx.Conn) *writer {
	w := &writer{
		conn: conn,
		jobs: make(chan writerJob, 256),
		done: make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *writer) run() {
	defer close(w.done)
	ctx := context.Background()
	for job := range w.jobs {
		job.err <- job.fn(ctx, w.conn)
	}
}

// submit enqueues fn and blocks until it has run, preserving submission
// order for a single caller goroutine (FIFO per sender).
func (w *writer) submit(ctx context.Context, fn func(ctx context.Context, conn *pgx.Conn) error) error {
	resCh := make(chan error, 1)
	select {
	case w.jobs <- writerJob{fn: fn, err: resCh}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-resCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *writer) Close() {
	close(w.jobs)
	<-w.done
	w.conn.Close(context.Background())
}
