package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/dto"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/repository"
)

var ErrCoachUserLinked = errors.New("user is already linked to a coach")

// CoachService coach profiles
type CoachService interface {
	Create(ctx context.Context, req *dto.CreateCoachRequest, caller Caller) (*dto.CoachResponse, error)
	GetByID(ctx context.Context, id string) (*dto.CoachResponse, error)
	List(ctx context.Context, req *dto.CoachListRequest) ([]dto.CoachResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateCoachRequest, caller Caller) (*dto.CoachResponse, error)
}

type coachService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCoachService creates a CoachService.
func NewCoachService(repo *repository.Repository, logger *zap.Logger) CoachService {
	return &coachService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *coachService) Create(ctx context.Context, req *dto.CreateCoachRequest, caller Caller) (*dto.CoachResponse, error) {
	if req.UserID != nil {
		if _, err := s.repo.User.GetByID(ctx, *req.UserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
		if _, err := s.repo.Coach.GetByUserID(ctx, *req.UserID); err == nil {
			return nil, ErrCoachUserLinked
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	coach := &model.Coach{
		Name:             strings.TrimSpace(req.Name),
		Email:            req.Email,
		Phone:            req.Phone,
		Bio:              req.Bio,
		PrivateRateCents: req.PrivateRateCents,
		IsActive:         true,
		UserID:           req.UserID,
	}
	coach.CreatedBy = &caller.UserID

	if err := s.repo.Coach.Create(ctx, coach); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCoachUserLinked
		}
		s.logger.Error("create coach", zap.Error(err))
		return nil, err
	}

	return toCoachResponse(coach), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *coachService) GetByID(ctx context.Context, id string) (*dto.CoachResponse, error) {
	coach, err := s.getCoach(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCoachResponse(coach), nil
}

// ────────────────────── List ──────────────────────

func (s *coachService) List(ctx context.Context, req *dto.CoachListRequest) ([]dto.CoachResponse, error) {
	coaches, err := s.repo.Coach.List(ctx, !req.IncludeInactive)
	if err != nil {
		s.logger.Error("list coaches", zap.Error(err))
		return nil, err
	}
	result := make([]dto.CoachResponse, 0, len(coaches))
	for i := range coaches {
		result = append(result, *toCoachResponse(&coaches[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *coachService) Update(ctx context.Context, id string, req *dto.UpdateCoachRequest, caller Caller) (*dto.CoachResponse, error) {
	if err := caller.canManageCoach(id); err != nil {
		return nil, err
	}
	coach, err := s.getCoach(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		coach.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		coach.Email = *req.Email
	}
	if req.Phone != nil {
		coach.Phone = *req.Phone
	}
	if req.Bio != nil {
		coach.Bio = *req.Bio
	}
	// rates and activation are the gym's call
	if caller.IsAdmin() {
		if req.PrivateRateCents != nil {
			coach.PrivateRateCents = *req.PrivateRateCents
		}
		if req.IsActive != nil {
			coach.IsActive = *req.IsActive
		}
	}
	coach.Version = req.Version
	coach.UpdatedBy = &caller.UserID

	if err := s.repo.Coach.Update(ctx, coach); err != nil {
		s.logger.Error("update coach", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toCoachResponse(coach), nil
}

func (s *coachService) getCoach(ctx context.Context, id string) (*model.Coach, error) {
	coach, err := s.repo.Coach.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCoachNotFound
		}
		s.logger.Error("get coach", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return coach, nil
}

func toCoachResponse(c *model.Coach) *dto.CoachResponse {
	return &dto.CoachResponse{
		ID:               c.CoachID,
		Name:             c.Name,
		Email:            c.Email,
		Phone:            c.Phone,
		Bio:              c.Bio,
		PrivateRateCents: c.PrivateRateCents,
		IsActive:         c.IsActive,
		UserID:           c.UserID,
		Version:          c.Version,
	}
}

func toCoachBrief(c *model.Coach) *dto.CoachBrief {
	if c == nil {
		return nil
	}
	return &dto.CoachBrief{ID: c.CoachID, Name: c.Name}
}
