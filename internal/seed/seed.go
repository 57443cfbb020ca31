// Package seed provisions the platform admin, the starter posts of a fresh
// install and optional demo data for development.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"snapfeed/internal/cache"
	"snapfeed/internal/middleware"
	"snapfeed/internal/models"
	"snapfeed/internal/repository"
	"snapfeed/internal/service"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrAdminNotConfigured is returned when any ADMIN_* value is missing.
var ErrAdminNotConfigured = errors.New("ADMIN_EMAIL, ADMIN_USERNAME, and ADMIN_PASSWORD must be set")

const (
	adminDisplayName = "Platform Admin"
	adminBio         = "Runs the platform and keeps the vibes healthy."
)

// Options configures a seeding run.
type Options struct {
	AdminEmail    string
	AdminUsername string
	AdminPassword string
	// DemoUsers is the number of fake accounts to create. Zero skips demo data.
	DemoUsers int
	// FakerSeed makes demo data reproducible. Zero seeds from the clock.
	FakerSeed  int64
	BcryptCost int
}

// Report summarises what a run created.
type Report struct {
	Admin        *models.User
	StarterPosts int
	Demo         DemoReport
}

type starterPost struct {
	imageURL string
	caption  string
}

var starterPosts = []starterPost{
	{"https://images.unsplash.com/photo-1470770841072-f978cf4d019e?auto=format&fit=crop&w=900&q=80", "Sunset meetup with the squad 🌅"},
	{"https://images.unsplash.com/photo-1494790108377-be9c29b29330?auto=format&fit=crop&w=900&q=80", "Coffee chats + product ideas ☕️"},
	{"https://images.unsplash.com/photo-1500530855697-b586d89ba3ee?auto=format&fit=crop&w=900&q=80", "Weekend city strolls hit different 🏙️"},
}

// Run ensures the admin exists, adds the starter posts when the database has
// no posts yet and then creates demo data if requested.
func Run(ctx context.Context, db *gorm.DB, store repository.PostStore, opts Options) (*Report, error) {
	admin, err := EnsureAdmin(ctx, db, opts)
	if err != nil {
		return nil, err
	}
	report := &Report{Admin: admin}

	n, err := SeedStarterPosts(ctx, db, store, admin)
	if err != nil {
		return nil, err
	}
	report.StarterPosts = n
	if n > 0 {
		middleware.Logger.Info("Seeded starter photo posts", slog.Int("count", n))
	}

	if opts.DemoUsers > 0 {
		demo, err := NewFactory(db, store, opts).SeedDemo(ctx, opts.DemoUsers)
		if err != nil {
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
		report.Demo = *demo
	}

	middleware.Logger.Info("Admin ready", slog.String("email", admin.Email))
	return report, nil
}

// EnsureAdmin creates the admin account, or resets the existing account with
// the configured email to the configured username and password and the admin
// role.
func EnsureAdmin(ctx context.Context, db *gorm.DB, opts Options) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	username := strings.ToLower(strings.TrimSpace(opts.AdminUsername))
	if email == "" || username == "" || opts.AdminPassword == "" {
		return nil, ErrAdminNotConfigured
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcryptCost(opts))
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}

	var admin models.User
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		findErr := tx.Where("email = ?", email).First(&admin).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			display, bio := adminDisplayName, adminBio
			admin = models.User{
				Email:        email,
				Username:     username,
				PasswordHash: string(hash),
				DisplayName:  &display,
				Bio:          &bio,
				Role:         models.RoleAdmin,
				IsVerified:   true,
			}
			return tx.Create(&admin).Error
		case findErr != nil:
			return findErr
		default:
			if err := tx.Model(&admin).Updates(map[string]any{
				"username":      username,
				"password_hash": string(hash),
				"role":          models.RoleAdmin,
				"is_verified":   true,
				"bio":           adminBio,
			}).Error; err != nil {
				return err
			}
			return tx.First(&admin, "id = ?", admin.ID).Error
		}
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("username %q belongs to another account: %w", username, err)
		}
		return nil, fmt.Errorf("upsert admin: %w", err)
	}

	cache.InvalidateUser(ctx, admin.ID)
	return &admin, nil
}

// SeedStarterPosts shares the starter photos as author when no posts exist.
// It returns how many posts were created.
func SeedStarterPosts(ctx context.Context, db *gorm.DB, store repository.PostStore, author *models.User) (int, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Post{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	for i, p := range starterPosts {
		caption := p.caption
		if _, err := store.CreatePost(ctx, repository.NewPost{
			Author:   author.Public(),
			ImageURL: p.imageURL,
			Caption:  &caption,
		}); err != nil {
			return i, fmt.Errorf("create starter post: %w", err)
		}
	}
	return len(starterPosts), nil
}

func bcryptCost(opts Options) int {
	if opts.BcryptCost > 0 {
		return opts.BcryptCost
	}
	return service.DefaultBcryptCost
}
