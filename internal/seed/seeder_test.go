package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/snapshare/internal/models"
	"github.com/zfogg/snapshare/internal/testutil"
)

func count(t *testing.T, s *Seeder, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(model).Count(&n).Error)
	return n
}

func TestSeedMatchesSummary(t *testing.T) {
	s := NewSeeder(testutil.NewTestDB(t))
	ctx := context.Background()

	summary, err := s.Seed(ctx, Counts{Users: 4, Posts: 12, Comments: 15, LikeRate: 0.5, FavoriteRate: 0.25})
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Users)
	assert.Equal(t, 12, summary.Posts)
	assert.Equal(t, 15, summary.Comments)

	assert.Equal(t, int64(summary.Users), count(t, s, &models.User{}))
	assert.Equal(t, int64(summary.Posts), count(t, s, &models.Post{}))
	assert.Equal(t, int64(summary.Comments), count(t, s, &models.Comment{}))
	assert.Equal(t, int64(summary.Likes), count(t, s, &models.Like{}))
	assert.Equal(t, int64(summary.Favorites), count(t, s, &models.Favorite{}))
}

func TestSeededPostsHaveContentOrImages(t *testing.T) {
	s := NewSeeder(testutil.NewTestDB(t))
	_, err := s.Seed(context.Background(), Counts{Users: 2, Posts: 20})
	require.NoError(t, err)

	var posts []models.Post
	require.NoError(t, s.db.Find(&posts).Error)
	for _, p := range posts {
		assert.True(t, p.Content != nil || len(p.Images) > 0, p.ID)
		if len(p.Images) > 0 {
			assert.Len(t, p.AITags, 3)
		}
	}
}

func TestSeedTestIsIdempotentForUsers(t *testing.T) {
	s := NewSeeder(testutil.NewTestDB(t))
	ctx := context.Background()

	_, err := s.SeedTest(ctx)
	require.NoError(t, err)
	_, err = s.SeedTest(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(5), count(t, s, &models.User{}))
	assert.Equal(t, int64(2*TestCounts.Posts), count(t, s, &models.Post{}))
}

func TestClean(t *testing.T) {
	s := NewSeeder(testutil.NewTestDB(t))
	ctx := context.Background()

	_, err := s.Seed(ctx, Counts{Users: 3, Posts: 5, Comments: 5, LikeRate: 1, FavoriteRate: 1})
	require.NoError(t, err)
	require.NoError(t, s.Clean(ctx))

	for _, m := range []interface{}{&models.User{}, &models.Post{}, &models.Comment{}, &models.Like{}, &models.Favorite{}} {
		assert.Zero(t, count(t, s, m))
	}
}
