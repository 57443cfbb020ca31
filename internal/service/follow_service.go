package service

import (
	"context"
	"strings"

	"snapfeed/internal/models"
	"snapfeed/internal/repository"

	"golang.org/x/sync/errgroup"
)

// SuggestionLimit caps the "people to follow" list.
const SuggestionLimit = 10

const (
	ErrSelfFollow = "You cannot follow yourself."
	MsgFollowing  = "Now following this user."
	MsgUnfollowed = "Unfollowed user."
)

type FollowService struct {
	follows repository.FollowRepository
}

// FollowResult is the follow state after a toggle.
type FollowResult struct {
	Following bool   `json:"following"`
	Message   string `json:"message"`
}

func NewFollowService(follows repository.FollowRepository) *FollowService {
	return &FollowService{follows: follows}
}

// Overview loads who the user follows, who follows them and suggestions in parallel.
func (s *FollowService) Overview(ctx context.Context, userID string) (*models.FollowOverview, error) {
	var following, followers, suggestions []models.User

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		following, err = s.follows.Following(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		followers, err = s.follows.Followers(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		suggestions, err = s.follows.Suggestions(gctx, userID, SuggestionLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.FollowOverview{
		Following:   profiles(following),
		Followers:   profiles(followers),
		Suggestions: profiles(suggestions),
	}, nil
}

func (s *FollowService) Toggle(ctx context.Context, userID, targetID string) (*FollowResult, error) {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return nil, models.NewValidationError("userId is required.")
	}
	if targetID == userID {
		return nil, models.NewValidationError(ErrSelfFollow)
	}

	following, err := s.follows.Toggle(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}
	if following {
		return &FollowResult{Following: true, Message: MsgFollowing}, nil
	}
	return &FollowResult{Following: false, Message: MsgUnfollowed}, nil
}

func profiles(users []models.User) []models.PublicProfile {
	out := make([]models.PublicProfile, 0, len(users))
	for i := range users {
		out = append(out, users[i].Profile())
	}
	return out
}
