package service

import (
	"context"
	"fmt"
	"strings"

	"snapfeed/internal/models"
	"snapfeed/internal/repository"
)

// Admin actions accepted by Apply.
const (
	AdminActionPromote = "promote"
	AdminActionDemote  = "demote"
	AdminActionDelete  = "delete"
)

const ErrSelfDelete = "You cannot delete your own admin account."

type AdminService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
}

// AdminResult describes the outcome of an admin action. User is nil after a delete.
type AdminResult struct {
	Message string           `json:"message"`
	User    *models.SafeUser `json:"user,omitempty"`
}

func NewAdminService(users repository.UserRepository, sessions repository.SessionRepository) *AdminService {
	return &AdminService{users: users, sessions: sessions}
}

// ListAll returns every user newest first with follow counts.
func (s *AdminService) ListAll(ctx context.Context, adminID string) ([]models.UserListing, error) {
	rows, err := s.users.ListWithCounts(ctx, 0)
	if err != nil {
		return nil, err
	}
	return toListings(rows, adminID), nil
}

func (s *AdminService) Apply(ctx context.Context, adminID, userID, action string) (*AdminResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, models.NewValidationError("userId is required.")
	}

	switch strings.ToLower(strings.TrimSpace(action)) {
	case AdminActionDelete:
		if userID == adminID {
			return nil, models.NewValidationError(ErrSelfDelete)
		}
		// Sessions cascade with the user; clearing them first also drops their cache entries.
		if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
			return nil, err
		}
		if err := s.users.Delete(ctx, userID); err != nil {
			return nil, err
		}
		return &AdminResult{Message: "User deleted."}, nil
	case AdminActionPromote:
		return s.setRole(ctx, userID, models.RoleAdmin)
	case AdminActionDemote:
		return s.setRole(ctx, userID, models.RoleUser)
	default:
		return nil, models.NewValidationError("action must be one of promote, demote, delete.")
	}
}

// SetRoleByUsername changes a user's role by username. Used by the admin CLI.
func (s *AdminService) SetRoleByUsername(ctx context.Context, username string, role models.Role) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	if err := s.users.UpdateRole(ctx, user.ID, role); err != nil {
		return nil, err
	}
	user.Role = role
	return user, nil
}

func (s *AdminService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.users.ListByRole(ctx, models.RoleAdmin)
}

func (s *AdminService) setRole(ctx context.Context, userID string, role models.Role) (*AdminResult, error) {
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	safe := user.Safe()
	return &AdminResult{
		Message: fmt.Sprintf("User role updated to %s.", role),
		User:    &safe,
	}, nil
}
