package services

import (
	"context"
	"net/http"

	"pem-system/internal/dto"
	"pem-system/internal/entities"
	apperrors "pem-system/pkg/errors"

	"go.uber.org/zap"
)

// DataSeeder реализуется seeders.Seeder.
type DataSeeder interface {
	SeedAll(ctx context.Context) (*dto.SeedResultDTO, error)
}

type SeedServiceInterface interface {
	Seed(ctx context.Context) (*dto.SeedResultDTO, error)
}

type SeedService struct {
	seeder DataSeeder
	audit  AuditServiceInterface
	logger *zap.Logger
}

func NewSeedService(seeder DataSeeder, audit AuditServiceInterface, logger *zap.Logger) SeedServiceInterface {
	return &SeedService{seeder: seeder, audit: audit, logger: logger}
}

func (s *SeedService) Seed(ctx context.Context) (*dto.SeedResultDTO, error) {
	result, err := s.seeder.SeedAll(ctx)
	if err != nil {
		s.logger.Error("Seed: ошибка наполнения БД", zap.Error(err))
		return nil, apperrors.NewHttpError(http.StatusInternalServerError, "Erro ao popular o banco de dados", err, nil)
	}
	s.audit.Record(ctx, AuditEntry{
		Action:   entities.AuditSeed,
		Entity:   "system",
		NewValue: result,
	})
	return result, nil
}
