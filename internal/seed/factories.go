package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"snapfeed/internal/models"
	"snapfeed/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every demo account.
const DemoPassword = "password123"

// DemoReport counts the demo rows created.
type DemoReport struct {
	Users    int
	Posts    int
	Likes    int
	Comments int
	Follows  int
}

// Factory builds demo accounts and routes their posts, likes and comments
// through the post store so demo data takes the same path as API traffic.
type Factory struct {
	db      *gorm.DB
	store   repository.PostStore
	follows repository.FollowRepository
	faker   *gofakeit.Faker
	cost    int
}

// NewFactory creates a Factory bound to db and store.
func NewFactory(db *gorm.DB, store repository.PostStore, opts Options) *Factory {
	seed := opts.FakerSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:      db,
		store:   store,
		follows: repository.NewFollowRepository(db),
		faker:   gofakeit.New(seed),
		cost:    bcryptCost(opts),
	}
}

// CreateUser persists a fake verified account. Overrides run before the insert.
func (f *Factory) CreateUser(ctx context.Context, passwordHash string, overrides ...func(*models.User)) (*models.User, error) {
	username := f.username()
	display := f.faker.Name()
	if len([]rune(display)) > 40 {
		display = string([]rune(display)[:40])
	}
	bio := f.faker.Sentence(8)
	if len([]rune(bio)) > 280 {
		bio = string([]rune(bio)[:280])
	}
	avatar := fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username)

	user := &models.User{
		Email:        username + "@demo.snapfeed.dev",
		Username:     username,
		PasswordHash: passwordHash,
		DisplayName:  &display,
		Bio:          &bio,
		ProfileImage: &avatar,
		Role:         models.RoleUser,
		IsVerified:   true,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost shares a random picsum photo as user.
func (f *Factory) CreatePost(ctx context.Context, user *models.User) (*models.FeedEntry, error) {
	caption := f.faker.Sentence(f.faker.Number(3, 10))
	return f.store.CreatePost(ctx, repository.NewPost{
		Author:   user.Public(),
		ImageURL: fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID()),
		Caption:  &caption,
	})
}

// SeedDemo creates n users, a few posts each, and a random mesh of follows,
// likes and comments between them.
func (f *Factory) SeedDemo(ctx context.Context, n int) (*DemoReport, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), f.cost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	report := &DemoReport{}
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		u, err := f.CreateUser(ctx, string(hash))
		if err != nil {
			return report, fmt.Errorf("create demo user: %w", err)
		}
		users = append(users, u)
		report.Users++
	}

	var posts []*models.FeedEntry
	for _, u := range users {
		for j := f.faker.Number(1, 3); j > 0; j-- {
			p, err := f.CreatePost(ctx, u)
			if err != nil {
				return report, fmt.Errorf("create demo post: %w", err)
			}
			posts = append(posts, p)
			report.Posts++
		}
	}

	for _, u := range users {
		for _, other := range users {
			if other.ID == u.ID || !f.faker.Bool() {
				continue
			}
			if _, err := f.follows.Toggle(ctx, u.ID, other.ID); err != nil {
				return report, fmt.Errorf("create demo follow: %w", err)
			}
			report.Follows++
		}

		for _, p := range posts {
			if f.faker.Number(1, 100) <= 40 {
				if _, err := f.store.ToggleLike(ctx, p.ID, u.ID); err != nil {
					return report, fmt.Errorf("create demo like: %w", err)
				}
				report.Likes++
			}
			if f.faker.Number(1, 100) <= 15 {
				if _, err := f.store.AddComment(ctx, repository.NewComment{
					PostID:  p.ID,
					Author:  u.Public(),
					Content: f.faker.Sentence(f.faker.Number(2, 12)),
				}); err != nil {
					return report, fmt.Errorf("create demo comment: %w", err)
				}
				report.Comments++
			}
		}
	}

	return report, nil
}

// username returns a fresh lower-case username of at most 20 characters
// matching the registration rules.
func (f *Factory) username() string {
	base := strings.ToLower(f.faker.Username())
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return -1
		}
	}, base)
	if len(base) > 14 {
		base = base[:14]
	}
	if len(base) < 3 {
		base = "user"
	}
	return fmt.Sprintf("%s_%05d", base, f.faker.Number(0, 99999))
}
