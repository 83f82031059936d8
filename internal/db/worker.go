package db

import (
	"context"
	"database/sql"
)

// TxFn runs inside one write transaction on the worker goroutine.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// Worker funnels every write transaction in the process through a single
// goroutine over the single SQLite connection. Shift transitions, vacation
// decisions, and accrual passes are all read-modify-write units; serializing
// them here is what makes each unit atomic without row locks, and it keeps
// SQLITE_BUSY out of the picture entirely.
type Worker struct {
	db      *sql.DB
	queue   chan txJob
	stopped chan struct{}
}

type txJob struct {
	ctx    context.Context
	fn     TxFn
	result chan error
}

func NewWorker(db *sql.DB) *Worker {
	w := &Worker{
		db:      db,
		queue:   make(chan txJob, 256),
		stopped: make(chan struct{}),
	}
	go w.run()
	return w
}

// Close stops accepting jobs and waits for the queue to drain. Jobs already
// enqueued still execute.
func (w *Worker) Close() {
	close(w.queue)
	<-w.stopped
}

// Do submits fn and waits for its transaction to commit or roll back. An
// error from fn aborts the transaction and comes back unwrapped, so sentinel
// errors keep their identity across the queue boundary. If ctx expires while
// the job is queued or running, Do returns early; the worker still finishes
// the transaction and the result is dropped into the buffered channel.
func (w *Worker) Do(ctx context.Context, fn TxFn) error {
	job := txJob{ctx: ctx, fn: fn, result: make(chan error, 1)}

	select {
	case w.queue <- job:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-job.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) run() {
	defer close(w.stopped)
	for job := range w.queue {
		job.result <- w.exec(job.ctx, job.fn)
	}
}

func (w *Worker) exec(ctx context.Context, fn TxFn) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
