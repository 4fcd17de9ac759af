// Package repo provides postgres access for the publish audit trail
package repo

import (
	"context"
	"time"

	"noterelay/internal/modkit/repokit"
	"noterelay/internal/platform/store"
)

// Repo defines the repository contract for publish auditing
type Repo interface {
	Record(ctx context.Context, rec Row) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Counts(ctx context.Context) (total, failures int64, err error)
}

// Row is one publish outcome, success or failure
type Row struct {
	NoteID     string
	Title      string
	Success    bool
	ErrorType  string
	XHSCode    *int
	ImageCount int
}

// Entry is one audit row as read back from postgres
type Entry struct {
	NoteID     string    `db:"note_id"`
	Title      string    `db:"title"`
	Success    bool      `db:"success"`
	ErrorType  string    `db:"error_type"`
	XHSCode    int       `db:"xhs_code"`
	ImageCount int       `db:"image_count"`
	CreatedAt  time.Time `db:"created_at"`
}

type (
	// PG implements the Repo interface using Postgres
	PG struct{}

	// queries holds the database query methods
	queries struct{ q repokit.Queryer }
)

// NewPG creates a new Postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Postgres queryer to the Repo implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) Record(ctx context.Context, rec Row) error {
	const sql = `
insert into publish_audit (note_id, title, success, error_type, xhs_code, image_count, created_at)
values ($1, $2, $3, nullif($4, ''), $5, $6, now())
`
	_, err := r.q.Exec(ctx, sql, rec.NoteID, rec.Title, rec.Success, rec.ErrorType, rec.XHSCode, rec.ImageCount)
	return err
}

func (r *queries) Recent(ctx context.Context, limit int) ([]Entry, error) {
	const sql = `
select note_id, title, success, error_type, xhs_code, image_count, created_at
from publish_audit
order by created_at desc
limit $1
`
	return store.StructsByName[Entry](ctx, r.q, sql, limit)
}

func (r *queries) Counts(ctx context.Context) (total, failures int64, err error) {
	total, err = store.Scalar[int64](ctx, r.q, `select count(*) from publish_audit`)
	if err != nil {
		return 0, 0, err
	}
	failures, err = store.Scalar[int64](ctx, r.q, `select count(*) from publish_audit where not success`)
	if err != nil {
		return 0, 0, err
	}
	return total, failures, nil
}
