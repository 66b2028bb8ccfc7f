package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapgram/internal/domain"
	"snapgram/internal/repository"
)

// scriptedEdges replays canned Remove/Insert results.
type scriptedEdges struct {
	removes []bool
	inserts []error
	calls   []string
}

func (s *scriptedEdges) Remove(context.Context, int64, int64) (bool, error) {
	s.calls = append(s.calls, "remove")
	r := s.removes[0]
	s.removes = s.removes[1:]
	return r, nil
}

func (s *scriptedEdges) Insert(context.Context, int64, int64) (int64, error) {
	s.calls = append(s.calls, "insert")
	err := s.inserts[0]
	s.inserts = s.inserts[1:]
	if err != nil {
		return 0, err
	}
	return 42, nil
}

func TestToggleCreatesThenRemoves(t *testing.T) {
	edges := &scriptedEdges{removes: []bool{false}, inserts: []error{nil}}
	tg := toggler{log: logrus.New()}

	out, err := tg.toggle(context.Background(), edges, 1, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ToggleCreated, out.Result)
	assert.Equal(t, int64(42), out.EdgeID)

	edges.removes = []bool{true}
	out, err = tg.toggle(context.Background(), edges, 1, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ToggleRemoved, out.Result)
	assert.Equal(t, []string{"remove", "insert", "remove"}, edges.calls)
}

func TestToggleLostRaceBecomesRemoval(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	edges := &scriptedEdges{
		removes: []bool{false, true},
		inserts: []error{fmt.Errorf("insert like: %w", repository.ErrDuplicate)},
	}

	out, err := toggler{log: logger}.toggle(context.Background(), edges, 1, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ToggleRemoved, out.Result)
	assert.Equal(t, []string{"remove", "insert", "remove"}, edges.calls)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, 1, hook.LastEntry().Data["attempt"])
}

func TestToggleValidationStopsInsert(t *testing.T) {
	edges := &scriptedEdges{removes: []bool{false}}
	wantErr := fmt.Errorf("%w: nope", domain.ErrInvalidTarget)

	_, err := toggler{log: logrus.New()}.toggle(context.Background(), edges, 1, 1,
		func(context.Context) error { return wantErr })
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)
	assert.Equal(t, []string{"remove"}, edges.calls)
}

func TestToggleGivesUpAfterBoundedAttempts(t *testing.T) {
	edges := &scriptedEdges{}
	for i := 0; i < maxToggleAttempts; i++ {
		edges.removes = append(edges.removes, false)
		edges.inserts = append(edges.inserts, repository.ErrDuplicate)
	}

	_, err := toggler{log: logrus.New()}.toggle(context.Background(), edges, 1, 2, nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, repository.ErrDuplicate))
	assert.Len(t, edges.calls, 2*maxToggleAttempts)
}

func TestLikeDoubleToggleRestoresState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice")
	post := f.post(t, alice, "hello")

	result, err := f.likes.Toggle(ctx, alice, post.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ToggleCreated, result)

	likes, err := f.likes.List(ctx, post.ID, PageRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(1), likes.Total)
	assert.Equal(t, "alice", likes.Items[0].Username)

	result, err = f.likes.Toggle(ctx, alice, post.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ToggleRemoved, result)

	likes, err = f.likes.List(ctx, post.ID, PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), likes.Total)
}

func TestLikeRequiresAuthAndExistingPost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice")
	post := f.post(t, alice, "hello")

	_, err := f.likes.Toggle(ctx, domain.Actor{}, post.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.likes.Toggle(ctx, alice, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.likes.List(ctx, 999, PageRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConcurrentLikeTogglesNeverDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice")
	post := f.post(t, alice, "hello")

	const workers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		removed int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.likes.Toggle(ctx, alice, post.ID)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if result == domain.ToggleCreated {
				created++
			} else {
				removed++
			}
		}()
	}
	wg.Wait()

	count, err := f.store.Likes.CountByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, count, int64(1))
	assert.Equal(t, int64(created-removed), count)
	assert.Equal(t, workers, created+removed)
}

func TestFollowToggle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	result, follow, err := f.follows.Toggle(ctx, alice, bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.ToggleCreated, result)
	require.NotNil(t, follow)
	assert.Equal(t, alice.UserID, follow.FollowerID)
	assert.Equal(t, bob.UserID, follow.FollowedID)
	assert.Equal(t, "bob", follow.FollowedUsername)

	followers, err := f.follows.Followers(ctx, bob.UserID, PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers.Total)

	result, follow, err = f.follows.Toggle(ctx, alice, bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.ToggleRemoved, result)
	assert.Nil(t, follow)

	following, err := f.follows.Following(ctx, alice.UserID, PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), following.Total)
}

func TestFollowInvalidTargets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice")

	_, _, err := f.follows.Toggle(ctx, alice, alice.UserID)
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)

	_, _, err = f.follows.Toggle(ctx, alice, 999)
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)

	_, _, err = f.follows.Toggle(ctx, alice, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = f.follows.Toggle(ctx, domain.Actor{}, alice.UserID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	count, err := f.store.Follows.CountFollowing(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	_, err = f.follows.Followers(ctx, 999, PageRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
