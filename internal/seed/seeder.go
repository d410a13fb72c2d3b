package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/zfogg/snapshare/internal/logger"
	"github.com/zfogg/snapshare/internal/models"
	"github.com/zfogg/snapshare/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations. Posts, comments and reactions
// go through the engagement repository so seeded data obeys the same rules as
// API traffic.
type Seeder struct {
	db         *gorm.DB
	users      repository.UserRepository
	engagement repository.EngagementRepository
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	// Seed returns an error only for invalid sources
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:         db,
		users:      repository.NewUserRepository(db),
		engagement: repository.NewEngagementRepository(db),
	}
}

// Counts sizes a seeding run
type Counts struct {
	Users    int
	Posts    int
	Comments int
	// Probability that a given user reacts to a given post
	LikeRate     float32
	FavoriteRate float32
}

// DevCounts fills a development database
var DevCounts = Counts{Users: 25, Posts: 120, Comments: 400, LikeRate: 0.3, FavoriteRate: 0.1}

// TestCounts is enough to exercise every screen
var TestCounts = Counts{Users: 5, Posts: 10, Comments: 20, LikeRate: 0.5, FavoriteRate: 0.2}

// Summary reports what a run created
type Summary struct {
	Users     int
	Posts     int
	Comments  int
	Likes     int
	Favorites int
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev(ctx context.Context) (*Summary, error) {
	return s.Seed(ctx, DevCounts)
}

// SeedTest seeds the test database with the fixed users and a little content
func (s *Seeder) SeedTest(ctx context.Context) (*Summary, error) {
	users, err := s.seedTestUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to seed test users: %w", err)
	}
	return s.seedContent(ctx, users, TestCounts)
}

// Seed creates users and then content from them
func (s *Seeder) Seed(ctx context.Context, counts Counts) (*Summary, error) {
	logger.Log.Info("Creating users...", zap.Int("count", counts.Users))
	users, err := s.seedUsers(ctx, counts.Users)
	if err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}
	return s.seedContent(ctx, users, counts)
}

func (s *Seeder) seedContent(ctx context.Context, users []*models.User, counts Counts) (*Summary, error) {
	summary := &Summary{Users: len(users)}

	logger.Log.Info("Creating posts...", zap.Int("count", counts.Posts))
	posts, err := s.seedPosts(ctx, users, counts.Posts)
	if err != nil {
		return nil, fmt.Errorf("failed to seed posts: %w", err)
	}
	summary.Posts = len(posts)

	logger.Log.Info("Creating comments...", zap.Int("count", counts.Comments))
	summary.Comments, err = s.seedComments(ctx, users, posts, counts.Comments)
	if err != nil {
		return nil, fmt.Errorf("failed to seed comments: %w", err)
	}

	logger.Log.Info("Creating reactions...")
	summary.Likes, err = s.seedReactions(ctx, users, posts, models.ReactionLike, counts.LikeRate)
	if err != nil {
		return nil, fmt.Errorf("failed to seed likes: %w", err)
	}
	summary.Favorites, err = s.seedReactions(ctx, users, posts, models.ReactionFavorite, counts.FavoriteRate)
	if err != nil {
		return nil, fmt.Errorf("failed to seed favorites: %w", err)
	}

	logger.Log.Info("Seeding complete",
		zap.Int("users", summary.Users),
		zap.Int("posts", summary.Posts),
		zap.Int("comments", summary.Comments),
		zap.Int("likes", summary.Likes),
		zap.Int("favorites", summary.Favorites))

	return summary, nil
}

// Clean removes every row this service owns, in reverse dependency order
func (s *Seeder) Clean(ctx context.Context) error {
	for _, table := range []string{"favorites", "likes", "comments", "posts", "users"} {
		if err := s.db.WithContext(ctx).Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) seedTestUsers(ctx context.Context) ([]*models.User, error) {
	fixtures := []struct{ id, name string }{
		{"00000000-0000-7000-8000-000000000001", "Alice Smith"},
		{"00000000-0000-7000-8000-000000000002", "Bob Johnson"},
		{"00000000-0000-7000-8000-000000000003", "Charlie Brown"},
		{"00000000-0000-7000-8000-000000000004", "Diana Prince"},
		{"00000000-0000-7000-8000-000000000005", "Eve Wilson"},
	}

	users := make([]*models.User, 0, len(fixtures))
	for _, f := range fixtures {
		if existing, err := s.users.GetUser(ctx, f.id); err == nil {
			users = append(users, existing)
			continue
		}

		user := &models.User{ID: f.id, Name: f.name, Image: avatarURL(f.name)}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create test user %s: %w", f.name, err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedUsers(ctx context.Context, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		name := gofakeit.Name()
		user := &models.User{Name: name, Image: avatarURL(gofakeit.Username())}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedPosts(ctx context.Context, users []*models.User, count int) ([]*models.Post, error) {
	if len(users) == 0 {
		return nil, nil
	}

	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		params := repository.CreatePostParams{AuthorID: author.ID}

		// Roughly a third text-only, a third image-only, a third both
		switch rand.Intn(3) {
		case 0:
			params.Content = ptr(gofakeit.HipsterSentence())
		case 1:
			params.Images = randomImages()
		default:
			params.Content = ptr(gofakeit.HipsterSentence())
			params.Images = randomImages()
		}

		if len(params.Images) > 0 {
			params.AITags = []string{gofakeit.Word(), gofakeit.Word(), gofakeit.Color()}
			params.AIDescription = ptr(gofakeit.HipsterSentence())
		}

		post, err := s.engagement.CreatePost(ctx, params)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) seedComments(ctx context.Context, users []*models.User, posts []*models.Post, count int) (int, error) {
	if len(users) == 0 || len(posts) == 0 {
		return 0, nil
	}

	templates := []string{
		"Love this!",
		"Great shot",
		"Where was this taken?",
		"So good",
		"This made my day",
	}

	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		content := gofakeit.HipsterSentence()
		if rand.Float32() < 0.5 {
			content = templates[rand.Intn(len(templates))]
		}

		if _, err := s.engagement.CreateComment(ctx, user.ID, post.ID, content); err != nil {
			return i, err
		}
	}
	return count, nil
}

// seedReactions visits every (user, post) pair at most once so each toggle activates
func (s *Seeder) seedReactions(ctx context.Context, users []*models.User, posts []*models.Post, kind models.ReactionKind, rate float32) (int, error) {
	created := 0
	for _, post := range posts {
		for _, user := range users {
			if rand.Float32() >= rate {
				continue
			}
			if _, err := s.engagement.Toggle(ctx, user.ID, post.ID, kind); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

func randomImages() []string {
	n := 1 + rand.Intn(3)
	images := make([]string, 0, n)
	for i := 0; i < n; i++ {
		images = append(images, fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.LetterN(10)))
	}
	return images
}

func avatarURL(seed string) string {
	return fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", seed)
}

func ptr(s string) *string {
	return &s
}
