package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/blogposts/backend/internal/models"
)

func TestVoteService_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a")
	b := f.user(t, "b")
	p := f.post(t, a, "p")

	counts, transition, err := f.votes.Cast(ctx, p.ID, b.ID, models.Upvote)
	require.NoError(t, err)
	assert.Equal(t, models.VoteCount{Upvotes: 1, Downvotes: 0}, counts)
	assert.Equal(t, models.VoteCreated, transition)

	counts, transition, err = f.votes.Cast(ctx, p.ID, a.ID, models.Downvote)
	require.NoError(t, err)
	assert.Equal(t, models.VoteCount{Upvotes: 1, Downvotes: 1}, counts)
	assert.Equal(t, models.VoteCreated, transition)

	counts, transition, err = f.votes.Cast(ctx, p.ID, b.ID, models.Upvote)
	require.NoError(t, err)
	assert.Equal(t, models.VoteCount{Upvotes: 1, Downvotes: 1}, counts)
	assert.Equal(t, models.VoteUnchanged, transition)
}

func TestVoteService_Switch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a")
	p := f.post(t, a, "p")

	_, _, err := f.votes.Cast(ctx, p.ID, a.ID, models.Upvote)
	require.NoError(t, err)

	counts, transition, err := f.votes.Cast(ctx, p.ID, a.ID, models.Downvote)
	require.NoError(t, err)
	assert.Equal(t, models.VoteCount{Upvotes: 0, Downvotes: 1}, counts)
	assert.Equal(t, models.VoteSwitched, transition)
	assert.EqualValues(t, 1, f.count(t, &models.Vote{}, "user_id = ? AND post_id = ?", a.ID, p.ID))

	vote, err := f.votes.VoteOf(ctx, p.ID, a.ID)
	require.NoError(t, err)
	require.NotNil(t, vote)
	assert.Equal(t, models.Downvote, vote.VoteType)
}

func TestVoteService_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a")
	p := f.post(t, a, "p")

	_, _, err := f.votes.Cast(ctx, p.ID+100, a.ID, models.Upvote)
	assert.ErrorIs(t, err, ErrPostNotFound)

	_, _, err = f.votes.Cast(ctx, p.ID, a.ID, models.VoteType("sideways"))
	assert.ErrorIs(t, err, ErrInvalidVote)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.votes.CountsForPost(ctx, p.ID+100)
	assert.ErrorIs(t, err, ErrPostNotFound)

	_, err = f.votes.VoteOf(ctx, p.ID+100, a.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)

	vote, err := f.votes.VoteOf(ctx, p.ID, a.ID)
	require.NoError(t, err)
	assert.Nil(t, vote)

	assert.Zero(t, f.count(t, &models.Vote{}, "1 = 1"))
}

func TestVoteService_CountsForPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a")
	b := f.user(t, "b")
	c := f.user(t, "c")
	p1 := f.post(t, a, "p1")
	p2 := f.post(t, a, "p2")
	p3 := f.post(t, a, "p3")

	for _, v := range []struct {
		post uint
		user uint
		vote models.VoteType
	}{
		{p1.ID, a.ID, models.Upvote},
		{p1.ID, b.ID, models.Upvote},
		{p1.ID, c.ID, models.Downvote},
		{p2.ID, b.ID, models.Downvote},
	} {
		_, _, err := f.votes.Cast(ctx, v.post, v.user, v.vote)
		require.NoError(t, err)
	}

	counts, err := f.votes.CountsForPosts(ctx, []uint{p1.ID, p2.ID, p3.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint]models.VoteCount{
		p1.ID: {Upvotes: 2, Downvotes: 1},
		p2.ID: {Upvotes: 0, Downvotes: 1},
		p3.ID: {},
	}, counts)

	posts, err := f.posts.List(ctx)
	require.NoError(t, err)
	decorated, err := f.votes.Decorate(ctx, posts)
	require.NoError(t, err)
	require.Len(t, decorated, 3)
	assert.Equal(t, p3.ID, decorated[0].ID)
	assert.Equal(t, p1.ID, decorated[2].ID)
	assert.EqualValues(t, 2, decorated[2].Upvotes)

	empty, err := f.votes.CountsForPosts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestVoteService_ConcurrentCastsKeepOneRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a")
	b := f.user(t, "b")
	p := f.post(t, a, "p")

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		voteType := models.Upvote
		if i%2 == 1 {
			voteType = models.Downvote
		}
		wg.Add(1)
		go func(vt models.VoteType) {
			defer wg.Done()
			_, _, err := f.votes.Cast(ctx, p.ID, b.ID, vt)
			errs <- err
		}(voteType)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	assert.EqualValues(t, 1, f.count(t, &models.Vote{}, "user_id = ? AND post_id = ?", b.ID, p.ID))

	counts, err := f.votes.CountsForPost(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.Upvotes+counts.Downvotes)
}
