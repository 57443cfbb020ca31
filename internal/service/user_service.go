package service

import (
	"context"
	"strings"

	"snapfeed/internal/models"
	"snapfeed/internal/repository"
	"snapfeed/internal/validation"

	"golang.org/x/sync/errgroup"
)

const (
	// UserListLimit is the size of the public people list.
	UserListLimit = 25
	// ProfilePostLimit is how many posts a profile page shows.
	ProfilePostLimit = 20
)

type UserService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	posts   repository.PostStore
}

// UpdateProfileInput changes only the fields that are set. A set field that
// trims to empty clears the stored value.
type UpdateProfileInput struct {
	DisplayName  *string
	Bio          *string
	ProfileImage *string
}

func NewUserService(users repository.UserRepository, follows repository.FollowRepository, posts repository.PostStore) *UserService {
	return &UserService{users: users, follows: follows, posts: posts}
}

// ListUsers returns the newest users with follow counts, flagging the viewer's own row.
func (s *UserService) ListUsers(ctx context.Context, viewerID string) ([]models.UserListing, error) {
	rows, err := s.users.ListWithCounts(ctx, UserListLimit)
	if err != nil {
		return nil, err
	}
	return toListings(rows, viewerID), nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*models.User, error) {
	fields := make(map[string]interface{})

	set := func(column string, value *string, validate func(string) error) error {
		if value == nil {
			return nil
		}
		trimmed := strings.TrimSpace(*value)
		if trimmed == "" {
			fields[column] = nil
			return nil
		}
		if err := validate(trimmed); err != nil {
			return models.NewValidationError(err.Error())
		}
		fields[column] = trimmed
		return nil
	}

	if err := set("display_name", in.DisplayName, validation.ValidateDisplayName); err != nil {
		return nil, err
	}
	if err := set("bio", in.Bio, validation.ValidateBio); err != nil {
		return nil, err
	}
	if err := set("profile_image", in.ProfileImage, validation.ValidateImageURL); err != nil {
		return nil, err
	}

	return s.users.UpdateProfile(ctx, userID, fields)
}

// Profile assembles a user's public page as seen by viewerID (empty for anonymous).
func (s *UserService) Profile(ctx context.Context, username, viewerID string) (*models.UserProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}

	profile := &models.UserProfile{
		PublicProfile: user.Profile(),
		Bio:           user.Bio,
		IsSelf:        viewerID == user.ID,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		followers, err := s.follows.Followers(gctx, user.ID)
		profile.FollowerCount = int64(len(followers))
		return err
	})
	g.Go(func() error {
		following, err := s.follows.Following(gctx, user.ID)
		profile.FollowingCount = int64(len(following))
		return err
	})
	g.Go(func() error {
		n, err := s.posts.CountPostsByAuthor(gctx, user.ID)
		profile.PostCount = n
		return err
	})
	g.Go(func() error {
		entries, err := s.posts.ListFeed(gctx, repository.FeedQuery{
			Limit:    ProfilePostLimit,
			AuthorID: user.ID,
			ViewerID: viewerID,
		})
		profile.Posts = entries
		return err
	})
	if viewerID != "" && !profile.IsSelf {
		g.Go(func() error {
			follows, err := s.follows.IsFollowing(gctx, viewerID, user.ID)
			profile.ViewerFollowsUser = follows
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if profile.Posts == nil {
		profile.Posts = []models.FeedEntry{}
	}
	return profile, nil
}

func toListings(rows []models.UserWithCounts, viewerID string) []models.UserListing {
	out := make([]models.UserListing, 0, len(rows))
	for i := range rows {
		out = append(out, models.UserListing{
			SafeUser:       rows[i].User.Safe(),
			FollowerCount:  rows[i].FollowerCount,
			FollowingCount: rows[i].FollowingCount,
			IsCurrentUser:  viewerID != "" && rows[i].ID == viewerID,
		})
	}
	return out
}
