package service

import (
	"context"
	"fmt"

	"github.com/printready/proofdesk-backend/internal/repository"
	"github.com/printready/proofdesk-backend/internal/types"
)

type UserService interface {
	GetByID(ctx context.Context, id string) (*repository.Profile, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) (*repository.Profile, error)
	UpdateRole(ctx context.Context, callerID, targetID, role string) error
	UpdateStatus(ctx context.Context, callerID, targetID, status string) error
	List(ctx context.Context, limit, offset int) ([]*repository.Profile, error)
}

type userService struct {
	profileRepo repository.ProfileRepository
}

func NewUserService(profileRepo repository.ProfileRepository) UserService {
	return &userService{profileRepo: profileRepo}
}

func (s *userService) GetByID(ctx context.Context, id string) (*repository.Profile, error) {
	profile, err := s.profileRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	return profile, nil
}

func (s *userService) UpdateDisplayName(ctx context.Context, id, displayName string) (*repository.Profile, error) {
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrInvalidArgument)
	}
	if err := s.profileRepo.UpdateDisplayName(ctx, id, displayName); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return s.GetByID(ctx, id)
}

func (s *userService) UpdateRole(ctx context.Context, callerID, targetID, role string) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	if !types.IsValidRole(role) {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, role)
	}
	return s.profileRepo.UpdateRole(ctx, targetID, role)
}

func (s *userService) UpdateStatus(ctx context.Context, callerID, targetID, status string) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	if status != types.ProfileActive && status != types.ProfileInactive {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, status)
	}
	return s.profileRepo.UpdateStatus(ctx, targetID, status)
}

func (s *userService) List(ctx context.Context, limit, offset int) ([]*repository.Profile, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.profileRepo.List(ctx, limit, offset)
}

func (s *userService) requireAdmin(ctx context.Context, callerID string) error {
	if callerID == "" {
		return ErrUnauthenticated
	}
	caller, err := s.profileRepo.FindByID(ctx, callerID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if caller == nil || caller.Role != types.RoleAdmin {
		return fmt.Errorf("%w: admin role required", ErrPermissionDenied)
	}
	return nil
}
