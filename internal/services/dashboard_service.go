package services

import (
	"context"
	"time"

	"pem-system/internal/dto"
	"pem-system/internal/repositories"

	"github.com/jinzhu/now"
	"go.uber.org/zap"
)

const (
	dashboardLocationsLimit = 10
	dashboardActivityLimit  = 10
)

type DashboardServiceInterface interface {
	GetDashboard(ctx context.Context) (*dto.DashboardDTO, error)
}

type DashboardService struct {
	repo   repositories.DashboardRepositoryInterface
	logger *zap.Logger
	clock  func() time.Time
}

func NewDashboardService(repo repositories.DashboardRepositoryInterface, logger *zap.Logger) DashboardServiceInterface {
	return &DashboardService{repo: repo, logger: logger, clock: time.Now}
}

func (s *DashboardService) GetDashboard(ctx context.Context) (*dto.DashboardDTO, error) {
	month := now.With(s.clock())

	stats, err := s.repo.GetStats(ctx, month.BeginningOfMonth(), month.EndOfMonth())
	if err != nil {
		s.logger.Error("GetDashboard: ошибка получения статистики", zap.Error(err))
		return nil, err
	}
	byLocation, err := s.repo.GetEquipmentByLocation(ctx, dashboardLocationsLimit)
	if err != nil {
		return nil, err
	}
	activity, err := s.repo.GetLastActivity(ctx, dashboardActivityLimit)
	if err != nil {
		return nil, err
	}

	return &dto.DashboardDTO{
		Stats:        *stats,
		ByLocation:   byLocation,
		LastActivity: activity,
	}, nil
}
