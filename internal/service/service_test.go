package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"snapgram/internal/auth"
	"snapgram/internal/domain"
	"snapgram/internal/repository/sqlite"
	"snapgram/internal/storage"
)

type fixture struct {
	store    *sqlite.Store
	users    UserService
	posts    PostService
	comments CommentService
	likes    LikeService
	follows  FollowService
	feed     FeedService
	logs     *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := sqlite.NewStore(db)
	require.NoError(t, store.Init(context.Background()))

	issuer, err := auth.NewIssuer("service-test-secret", time.Minute, time.Hour)
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	pager := NewPager(DefaultPageSize, MaxPageSize)

	return &fixture{
		store:    store,
		users:    NewUserService(store.Users, issuer, storage.Unconfigured{}, pager),
		posts:    NewPostService(store.Posts, storage.Unconfigured{}),
		comments: NewCommentService(store.Comments, store.Posts),
		likes:    NewLikeService(store.Likes, store.Posts, pager, logger),
		follows:  NewFollowService(store.Follows, store.Users, pager, logger),
		feed:     NewFeedService(store.Posts, store.Comments, pager),
		logs:     hook,
	}
}

// register creates an account and returns the actor a valid token for it would carry.
func (f *fixture) register(t *testing.T, username string) domain.Actor {
	t.Helper()
	user, err := f.users.Register(context.Background(), Registration{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
	})
	require.NoError(t, err)
	return domain.Actor{UserID: user.ID, Username: user.Username}
}

func (f *fixture) post(t *testing.T, author domain.Actor, content string) *domain.Post {
	t.Helper()
	post, err := f.posts.Create(context.Background(), author, PostInput{Content: content})
	require.NoError(t, err)
	return post
}
