package services

import (
	"encoding/json"
	"errors"

	"medimind_backend/internal/dto"
	"medimind_backend/internal/models"
	"medimind_backend/internal/repositories"
	"medimind_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PlanService interface {
	ListForUser(db *gorm.DB, userID string) (*dto.PlanListResponse, error)
	ListAll(db *gorm.DB) ([]models.Plan, error)
	Create(db *gorm.DB, req *dto.CreatePlanRequest) (*models.Plan, error)
	Update(db *gorm.DB, planID string, req *dto.UpdatePlanRequest) (*models.Plan, error)
	Delete(db *gorm.DB, planID string) error
}

type planService struct {
	planRepo *repositories.PlanRepository
	subRepo  *repositories.SubscriptionRepository
}

func NewPlanService(planRepo *repositories.PlanRepository, subRepo *repositories.SubscriptionRepository) PlanService {
	return &planService{planRepo: planRepo, subRepo: subRepo}
}

// ListForUser returns active plans with the caller's current plan
// flagged, plus their active subscription if any.
func (s *planService) ListForUser(db *gorm.DB, userID string) (*dto.PlanListResponse, error) {
	plans, err := s.planRepo.FindActive(db)
	if err != nil {
		return nil, err
	}

	var currentPlanID string
	sub, err := s.subRepo.FindActiveByUserID(db, userID)
	if err != nil && !errors.Is(err, repositories.ErrSubscriptionNotFound) {
		return nil, err
	}
	if sub != nil {
		currentPlanID = sub.PlanID
	}

	views := make([]dto.PlanView, 0, len(plans))
	for _, plan := range plans {
		views = append(views, toPlanView(plan, plan.ID == currentPlanID))
	}

	return &dto.PlanListResponse{Plans: views, CurrentSubscription: sub}, nil
}

func (s *planService) ListAll(db *gorm.DB) ([]models.Plan, error) {
	return s.planRepo.FindAll(db)
}

func (s *planService) Create(db *gorm.DB, req *dto.CreatePlanRequest) (*models.Plan, error) {
	features, err := json.Marshal(req.Features)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	plan := &models.Plan{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		Currency:      valueOr(req.Currency, "USD"),
		Interval:      valueOr(req.Interval, "month"),
		IntervalCount: maxInt(req.IntervalCount, 1),
		StripePriceID: nilIfEmpty(req.StripePriceID),
		Credits:       req.Credits,
		Features:      datatypes.JSON(features),
		Active:        true,
	}

	if err := s.planRepo.Create(db, plan); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrAlreadyExists(err)
		}
		return nil, err
	}
	return plan, nil
}

func (s *planService) Update(db *gorm.DB, planID string, req *dto.UpdatePlanRequest) (*models.Plan, error) {
	plan, err := s.planRepo.FindByID(db, planID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, err
	}

	if req.Name != nil {
		plan.Name = *req.Name
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.Price != nil {
		plan.Price = *req.Price
	}
	if req.Currency != nil {
		plan.Currency = *req.Currency
	}
	if req.Interval != nil {
		plan.Interval = *req.Interval
	}
	if req.IntervalCount != nil {
		plan.IntervalCount = *req.IntervalCount
	}
	if req.StripePriceID != nil {
		// An explicit empty string unbinds the price.
		plan.StripePriceID = nilIfEmpty(*req.StripePriceID)
	}
	if req.Credits != nil {
		plan.Credits = *req.Credits
	}
	if req.Features != nil {
		features, err := json.Marshal(req.Features)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		plan.Features = datatypes.JSON(features)
	}
	if req.Active != nil {
		plan.Active = *req.Active
	}

	if err := s.planRepo.Update(db, plan); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrAlreadyExists(err)
		}
		return nil, err
	}
	return plan, nil
}

func (s *planService) Delete(db *gorm.DB, planID string) error {
	err := s.planRepo.Delete(db, planID)
	if errors.Is(err, repositories.ErrPlanNotFound) {
		return apperrors.ErrNotFound(err)
	}
	return err
}

func toPlanView(plan models.Plan, current bool) dto.PlanView {
	var features []string
	if len(plan.Features) > 0 {
		_ = json.Unmarshal(plan.Features, &features)
	}
	return dto.PlanView{
		ID:            plan.ID,
		Name:          plan.Name,
		Description:   plan.Description,
		Price:         plan.Price,
		Currency:      plan.Currency,
		Interval:      plan.Interval,
		IntervalCount: plan.IntervalCount,
		StripePriceID: derefOr(plan.StripePriceID, ""),
		Credits:       plan.Credits,
		Features:      features,
		Active:        plan.Active,
		IsCurrentPlan: current,
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func maxInt(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}

func nilIfEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func derefOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
