package service

import (
	"context"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditLogger appends inventory log entries. It never returns an error:
// availability of the primary mutation wins over completeness of the
// trail, so persistence failures are logged server-side and swallowed.
// Entries join the ambient transaction through the context, committing
// together with the mutation they describe.
type AuditLogger interface {
	Record(ctx context.Context, entry *model.InventoryLog)
}

type auditLogger struct {
	logRepo repository.InventoryLogRepository
	logger  *zap.Logger
}

func NewAuditLogger(logRepo repository.InventoryLogRepository, logger *zap.Logger) AuditLogger {
	return &auditLogger{logRepo: logRepo, logger: logger}
}

func (l *auditLogger) Record(ctx context.Context, entry *model.InventoryLog) {
	// An entry with no identifiable actor is not created.
	if entry.UserID == uuid.Nil {
		l.logger.Error("audit entry dropped: missing actor",
			zap.String("action", string(entry.Action)))
		return
	}

	// Mirror the snapshot lab attribution onto the indexed column so the
	// entry stays attributable after its item reference is nulled. Inside
	// a Postgres transaction a failed insert poisons the whole tx, so
	// everything checkable is checked before touching the database.
	entry.LabID = snapshotLab(entry)
	if entry.LabID == uuid.Nil {
		l.logger.Error("audit entry dropped: no lab attribution",
			zap.String("action", string(entry.Action)),
			zap.String("user_id", entry.UserID.String()))
		return
	}

	if err := l.logRepo.Create(ctx, entry); err != nil {
		l.logger.Error("audit log write failed",
			zap.String("action", string(entry.Action)),
			zap.String("lab_id", entry.LabID.String()),
			zap.String("user_id", entry.UserID.String()),
			zap.Error(err))
	}
}

func snapshotLab(entry *model.InventoryLog) uuid.UUID {
	if entry.NewValues != nil && entry.NewValues.LabID != uuid.Nil {
		return entry.NewValues.LabID
	}
	if entry.PreviousValues != nil && entry.PreviousValues.LabID != uuid.Nil {
		return entry.PreviousValues.LabID
	}
	return uuid.Nil
}
