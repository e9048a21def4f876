package services

import (
	"fmt"
	"math"
	"time"

	"medimind_backend/internal/dto"
	"medimind_backend/internal/models"
	"medimind_backend/internal/repositories"

	"gorm.io/gorm"
)

type AnalyticsService interface {
	Dashboard(db *gorm.DB) (*dto.DashboardResponse, error)
	Analytics(db *gorm.DB) (*dto.AnalyticsResponse, error)
}

type analyticsService struct {
	userRepo      *repositories.UserRepository
	subRepo       *repositories.SubscriptionRepository
	txRepo        *repositories.TransactionRepository
	consultRepo   *repositories.ConsultationRepository
	analyticsRepo *repositories.AnalyticsRepository
}

func NewAnalyticsService(
	userRepo *repositories.UserRepository,
	subRepo *repositories.SubscriptionRepository,
	txRepo *repositories.TransactionRepository,
	consultRepo *repositories.ConsultationRepository,
	analyticsRepo *repositories.AnalyticsRepository,
) AnalyticsService {
	return &analyticsService{
		userRepo:      userRepo,
		subRepo:       subRepo,
		txRepo:        txRepo,
		consultRepo:   consultRepo,
		analyticsRepo: analyticsRepo,
	}
}

func (s *analyticsService) Dashboard(db *gorm.DB) (*dto.DashboardResponse, error) {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prevMonthStart := monthStart.AddDate(0, -1, 0)
	weekAgo := now.AddDate(0, 0, -7)

	var stats dto.DashboardStats
	var err error

	if stats.TotalUsers, err = s.userRepo.CountAll(db); err != nil {
		return nil, err
	}
	if stats.ActiveSubscriptions, err = s.subRepo.CountByStatus(db, models.SubscriptionStatusActive); err != nil {
		return nil, err
	}
	if stats.MonthlyRevenue, err = s.txRepo.SumCompletedBetween(db, monthStart, now); err != nil {
		return nil, err
	}
	if stats.NewSignups, err = s.userRepo.CountCreatedSince(db, weekAgo); err != nil {
		return nil, err
	}
	if stats.TotalSessions, err = s.consultRepo.CountAll(db); err != nil {
		return nil, err
	}

	// Growth compares this month against the previous one.
	prevUsers, err := s.userRepo.CountCreatedSince(db, prevMonthStart)
	if err != nil {
		return nil, err
	}
	curUsers, err := s.userRepo.CountCreatedSince(db, monthStart)
	if err != nil {
		return nil, err
	}
	stats.UserGrowth = growthPercent(float64(curUsers), float64(prevUsers-curUsers))

	prevRevenue, err := s.txRepo.SumCompletedBetween(db, prevMonthStart, monthStart)
	if err != nil {
		return nil, err
	}
	stats.RevenueGrowth = growthPercent(stats.MonthlyRevenue, prevRevenue)

	activity, err := s.recentActivity(db)
	if err != nil {
		return nil, err
	}

	return &dto.DashboardResponse{Stats: stats, RecentActivity: activity}, nil
}

func (s *analyticsService) recentActivity(db *gorm.DB) ([]dto.ActivityItem, error) {
	items := []dto.ActivityItem{}

	users, err := s.userRepo.FindRecent(db, 5)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		items = append(items, dto.ActivityItem{
			Type:      "signup",
			Message:   fmt.Sprintf("%s signed up", u.Name),
			Timestamp: u.CreatedAt,
		})
	}

	txs, err := s.txRepo.FindRecentWithUser(db, 5)
	if err != nil {
		return nil, err
	}
	for _, t := range txs {
		items = append(items, dto.ActivityItem{
			Type:      "payment",
			Message:   fmt.Sprintf("%s paid %.2f %s", t.UserName, t.Amount, t.Currency),
			Timestamp: t.CreatedAt,
		})
	}

	return items, nil
}

func (s *analyticsService) Analytics(db *gorm.DB) (*dto.AnalyticsResponse, error) {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthAgo := now.AddDate(0, -1, 0)

	var overview dto.AnalyticsOverview
	var err error

	if overview.TotalUsers, err = s.userRepo.CountAll(db); err != nil {
		return nil, err
	}
	if overview.ActiveSubscriptions, err = s.subRepo.CountByStatus(db, models.SubscriptionStatusActive); err != nil {
		return nil, err
	}
	if overview.TotalRevenue, err = s.txRepo.SumCompleted(db); err != nil {
		return nil, err
	}
	if overview.MonthlyRevenue, err = s.txRepo.SumCompletedBetween(db, monthStart, now); err != nil {
		return nil, err
	}
	if overview.TotalSessions, err = s.consultRepo.CountAll(db); err != nil {
		return nil, err
	}
	if overview.RecentUsers, err = s.userRepo.CountCreatedSince(db, monthAgo); err != nil {
		return nil, err
	}

	if overview.TotalUsers > 0 {
		overview.ConversionRate = round2(float64(overview.ActiveSubscriptions) / float64(overview.TotalUsers) * 100)
		overview.ARPU = round2(overview.TotalRevenue / float64(overview.TotalUsers))
	}

	totalSubs, err := s.subRepo.CountAll(db)
	if err != nil {
		return nil, err
	}
	if totalSubs > 0 {
		overview.CustomerRetention = round2(float64(overview.ActiveSubscriptions) / float64(totalSubs) * 100)
	}

	usersByStatus, err := s.analyticsRepo.UsersBySubscriptionStatus(db)
	if err != nil {
		return nil, err
	}
	topPlans, err := s.analyticsRepo.TopPlans(db, 5)
	if err != nil {
		return nil, err
	}
	recentTxs, err := s.txRepo.FindRecentWithUser(db, 10)
	if err != nil {
		return nil, err
	}

	return &dto.AnalyticsResponse{
		Overview:           overview,
		UsersByStatus:      usersByStatus,
		TopPlans:           topPlans,
		RecentTransactions: recentTxs,
	}, nil
}

func growthPercent(current, previous float64) float64 {
	if previous <= 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return round2((current - previous) / previous * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
