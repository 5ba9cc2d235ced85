package services

import (
	"context"
	"encoding/json"

	"pem-system/internal/entities"
	"pem-system/internal/repositories"
	"pem-system/pkg/types"
	"pem-system/pkg/utils"

	"go.uber.org/zap"
)

// AuditEntry - одно событие журнала аудита.
// UserID, IP и User-Agent берутся из контекста, если не заданы явно.
type AuditEntry struct {
	UserID   *uint64
	Action   entities.AuditAction
	Entity   string
	EntityID *uint64
	OldValue interface{}
	NewValue interface{}
}

type AuditServiceInterface interface {
	Record(ctx context.Context, entry AuditEntry)
	GetAuditLogs(ctx context.Context, filter types.Filter) ([]entities.AuditLog, uint64, error)
}

type AuditService struct {
	repo   repositories.AuditLogRepositoryInterface
	logger *zap.Logger
}

func NewAuditService(repo repositories.AuditLogRepositoryInterface, logger *zap.Logger) AuditServiceInterface {
	return &AuditService{repo: repo, logger: logger}
}

// Record никогда не возвращает ошибку: сбой записи только логируется.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	log := &entities.AuditLog{
		UserID:    entry.UserID,
		Action:    entry.Action,
		Entity:    entry.Entity,
		EntityID:  entry.EntityID,
		OldValues: s.snapshot(entry.OldValue),
		NewValues: s.snapshot(entry.NewValue),
	}
	if log.UserID == nil {
		if userID, err := utils.GetUserIDFromCtx(ctx); err == nil {
			log.UserID = &userID
		}
	}
	ip, userAgent := utils.ClientMetaFromCtx(ctx)
	if ip != "" {
		log.IPAddress = &ip
	}
	if userAgent != "" {
		log.UserAgent = &userAgent
	}

	if err := s.repo.CreateAuditLog(context.WithoutCancel(ctx), log); err != nil {
		s.logger.Error("Record: не удалось записать событие аудита",
			zap.String("action", string(entry.Action)),
			zap.String("entity", entry.Entity),
			zap.Error(err),
		)
	}
}

func (s *AuditService) snapshot(value interface{}) *string {
	if value == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("snapshot: не удалось сериализовать значение", zap.Error(err))
		return nil
	}
	text := string(raw)
	return &text
}

func (s *AuditService) GetAuditLogs(ctx context.Context, filter types.Filter) ([]entities.AuditLog, uint64, error) {
	return s.repo.GetAuditLogs(ctx, filter)
}

func idPtr(id uint64) *uint64 {
	return &id
}
