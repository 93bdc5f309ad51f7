package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/atrium/internal/apperr"
	"github.com/starford/atrium/internal/controller"
)

// Entry is one recorded failure.
type Entry struct {
	ID         int64     `json:"id"`
	Resource   string    `json:"resource"`
	Op         string    `json:"op"`
	Target     string    `json:"target,omitempty"`
	Kind       string    `json:"kind"`
	Status     int       `json:"status,omitempty"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Filter narrows Recent.
type Filter struct {
	Resource string
	Kind     string
	Limit    int
}

// Record inserts e and returns its ID.
func (db *DB) Record(ctx context.Context, e Entry) (int64, error) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO failures (resource, op, target, kind, status, message, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.Resource, e.Op, e.Target, e.Kind, e.Status, e.Message, e.OccurredAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("journal: record: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns the newest entries first.
func (db *DB) Recent(ctx context.Context, f Filter) ([]Entry, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, resource, op, target, kind, status, message, occurred_at
		FROM failures
		WHERE (? = '' OR resource = ?) AND (? = '' OR kind = ?)
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	`, f.Resource, f.Resource, f.Kind, f.Kind, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Resource, &e.Op, &e.Target, &e.Kind, &e.Status, &e.Message, &e.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune deletes entries older than before and returns how many were removed.
func (db *DB) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM failures WHERE occurred_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("journal: prune: %w", err)
	}
	return res.RowsAffected()
}

// Reporter records controller failures in the journal.
type Reporter struct {
	db     *DB
	logger *slog.Logger
}

// NewReporter creates a Reporter writing to db.
func NewReporter(db *DB, logger *slog.Logger) *Reporter {
	return &Reporter{db: db, logger: logger}
}

// Report implements controller.Reporter. Journal write errors are logged
// and otherwise ignored.
func (r *Reporter) Report(ctx context.Context, f controller.Failure) {
	e := Entry{
		Resource:   f.Resource,
		Op:         f.Op,
		Target:     f.ID,
		Kind:       apperr.Kind(f.Err),
		Status:     apperr.Status(f.Err),
		OccurredAt: f.At,
	}
	if f.Err != nil {
		e.Message = f.Err.Error()
	}
	if _, err := r.db.Record(context.WithoutCancel(ctx), e); err != nil {
		r.logger.Warn("journal: record failed", slog.String("error", err.Error()))
	}
}
