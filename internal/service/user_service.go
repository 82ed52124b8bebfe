package service

import (
	"context"

	"go.uber.org/zap"

	"engage_backend/internal/model"
	"engage_backend/internal/repository"
)

type UpdateProfileReq struct {
	Name      *string `json:"name"`
	Age       *int    `json:"age"`
	Gender    *string `json:"gender"`
	Location  *string `json:"location"`
	Education *string `json:"education"`
	Company   *string `json:"company"`
}

// XPSummary 用户激励概览
type XPSummary struct {
	XPBalance             int `json:"xp_balance"`
	TotalXPEarned         int `json:"total_xp_earned"`
	SurveysCompletedCount int `json:"surveys_completed_count"`
}

type UserService struct {
	users  *repository.UserRepository
	logger *zap.Logger
}

func NewUserService(users *repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileReq) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Age != nil {
		user.Age = req.Age
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.Location != nil {
		user.Location = *req.Location
	}
	if req.Education != nil {
		user.Education = *req.Education
	}
	if req.Company != nil {
		user.Company = *req.Company
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) XPSummary(ctx context.Context, userID uint) (*XPSummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &XPSummary{
		XPBalance:             user.XPBalance,
		TotalXPEarned:         user.TotalXPEarned,
		SurveysCompletedCount: user.SurveysCompletedCount,
	}, nil
}

func (s *UserService) XPHistory(ctx context.Context, userID uint, page, perPage int) ([]model.XPEvent, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.users.ListXPEvents(ctx, userID, page, perPage)
}
