package service

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/Astemirdum/library-management/library/internal/model"
	"github.com/Astemirdum/library-management/library/internal/repository"
)

// Audit is the read side of the audit trail. Entries are written only by
// appendAudit inside rental transactions.
type Audit struct {
	log  *zap.Logger
	repo repository.Repository
}

func NewAudit(repo repository.Repository, log *zap.Logger) *Audit {
	return &Audit{
		log:  log.Named("audit"),
		repo: repo,
	}
}

func (s *Audit) ByUser(ctx context.Context, userID int64) ([]model.AuditLogEntry, error) {
	return s.list(ctx, repository.AuditFilter{UserID: &userID})
}

func (s *Audit) ByCopy(ctx context.Context, copyID int64) ([]model.AuditLogEntry, error) {
	return s.list(ctx, repository.AuditFilter{CopyID: &copyID})
}

func (s *Audit) All(ctx context.Context) ([]model.AuditLogEntry, error) {
	return s.list(ctx, repository.AuditFilter{})
}

func (s *Audit) list(ctx context.Context, f repository.AuditFilter) ([]model.AuditLogEntry, error) {
	entries, err := s.repo.ListAudit(ctx, f)
	if err != nil {
		return nil, err
	}
	return orEmpty(entries), nil
}

func appendAudit(ctx context.Context, q repository.Queries, userID, copyID int64, action model.AuditAction, at time.Time) (model.AuditLogEntry, error) {
	if userID <= 0 || copyID <= 0 || strings.TrimSpace(string(action)) == "" {
		return model.AuditLogEntry{}, errors.Wrapf(errs.ErrInvalidArgument,
			"audit entry needs user, copy and action, got user=%d copy=%d action=%q", userID, copyID, action)
	}
	return q.AppendAudit(ctx, model.AuditLogEntry{
		UserID:    userID,
		CopyID:    copyID,
		Action:    action,
		CreatedAt: at,
	})
}
