package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-management/library/internal/model"
)

var auditColumns = []string{"id", "user_id", "book_copy_id", "action", "created_at"}

// AppendAudit inserts one entry; audit_log rejects updates and deletes.
func (r *queries) AppendAudit(ctx context.Context, e model.AuditLogEntry) (model.AuditLogEntry, error) {
	entry, err := selectOne[model.AuditLogEntry](ctx, r.db,
		qb.Insert(auditLogTableName).
			Columns("user_id", "book_copy_id", "action", "created_at").
			Values(e.UserID, e.CopyID, e.Action, e.CreatedAt).
			Suffix("returning id, user_id, book_copy_id, action, created_at"))
	if err != nil {
		return model.AuditLogEntry{}, errors.Wrap(err, "append audit")
	}
	return entry, nil
}

func (r *queries) ListAudit(ctx context.Context, f AuditFilter) ([]model.AuditLogEntry, error) {
	q := qb.Select(auditColumns...).
		From(auditLogTableName).
		OrderBy("id")
	if f.UserID != nil {
		q = q.Where(sq.Eq{"user_id": *f.UserID})
	}
	if f.CopyID != nil {
		q = q.Where(sq.Eq{"book_copy_id": *f.CopyID})
	}
	return selectMany[model.AuditLogEntry](ctx, r.db, q)
}
