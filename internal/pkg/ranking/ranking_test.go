package ranking

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func ids(scores []Score) []string {
	out := make([]string, 0, len(scores))
	for _, s := range scores {
		out = append(out, s.BusinessID)
	}
	return out
}

func TestComputeProBoostOrdersDaily(t *testing.T) {
	businesses := []Business{
		{ID: "a", Upvotes: 10, Plan: "free"},
		{ID: "b", Upvotes: 0, Plan: "pro"},
	}

	scores := Scores(now, businesses, nil, nil)
	require.Len(t, scores, 2)
	assert.Equal(t, 5.0, scores[0].Daily)
	assert.Equal(t, 10.0, scores[1].Daily)

	boards := Compute(now, businesses, nil, nil)
	assert.Equal(t, []string{"b", "a"}, ids(boards.BusinessOfTheDay))
}

func TestScoresFormulas(t *testing.T) {
	businesses := []Business{{ID: "x", Upvotes: 4, Plan: "pro"}}
	reviews := []Review{
		{BusinessID: "x", Rating: 5, CreatedAt: now.Add(-time.Hour)},
		{BusinessID: "x", Rating: 3, CreatedAt: now.Add(-48 * time.Hour)},
	}
	views := []View{
		{BusinessID: "x", CreatedAt: now.Add(-time.Minute)},
		{BusinessID: "x", CreatedAt: now.Add(-2 * time.Hour)},
		{BusinessID: "x", CreatedAt: now.Add(-72 * time.Hour)},
	}

	s := Scores(now, businesses, reviews, views)[0]
	assert.Equal(t, 1, s.RecentReviews)
	assert.Equal(t, 2, s.RecentViews)
	assert.Equal(t, 2, s.AllReviews)
	assert.Equal(t, 3, s.AllViews)
	assert.Equal(t, 4.0, s.AverageRating)

	// 1*100 + 2*5 + 4*0.5 + 10
	assert.Equal(t, 122.0, s.Daily)
	// 4*20 + 2*50 + 4*100 + 3*2 + 200
	assert.Equal(t, 786.0, s.Lifetime)
}

func TestScoresWindowIsStrict(t *testing.T) {
	businesses := []Business{{ID: "x"}}
	reviews := []Review{{BusinessID: "x", Rating: 4, CreatedAt: now.Add(-Window)}}
	views := []View{
		{BusinessID: "x", CreatedAt: now.Add(-Window)},
		{BusinessID: "x", CreatedAt: now.Add(-Window + time.Nanosecond)},
	}

	s := Scores(now, businesses, reviews, views)[0]
	assert.Equal(t, 0, s.RecentReviews)
	assert.Equal(t, 1, s.RecentViews)
	assert.Equal(t, 1, s.AllReviews)
	assert.Equal(t, 2, s.AllViews)
}

func TestScoresNoReviewsMeansZeroAverage(t *testing.T) {
	s := Scores(now, []Business{{ID: "x", Upvotes: 1}}, nil, nil)[0]
	assert.Zero(t, s.AverageRating)
	assert.Equal(t, 20.0, s.Lifetime)
}

func TestScoresIgnoreUnknownBusinesses(t *testing.T) {
	businesses := []Business{{ID: "known"}}
	reviews := []Review{{BusinessID: "ghost", Rating: 5, CreatedAt: now}}
	views := []View{{BusinessID: "ghost", CreatedAt: now}}

	scores := Scores(now, businesses, reviews, views)
	require.Len(t, scores, 1)
	assert.Zero(t, scores[0].AllReviews)
	assert.Zero(t, scores[0].AllViews)
}

func TestComputeTieBreakByBusinessID(t *testing.T) {
	forward := []Business{{ID: "c"}, {ID: "a"}, {ID: "b"}}
	backward := []Business{{ID: "b"}, {ID: "a"}, {ID: "c"}}

	first := Compute(now, forward, nil, nil)
	second := Compute(now, backward, nil, nil)

	assert.Equal(t, []string{"a", "b", "c"}, ids(first.BusinessOfTheDay))
	assert.Equal(t, ids(first.BusinessOfTheDay), ids(second.BusinessOfTheDay))
	assert.Equal(t, ids(first.CommunityFavorites), ids(second.CommunityFavorites))
}

func TestComputeIsDeterministic(t *testing.T) {
	var businesses []Business
	var reviews []Review
	var views []View
	for i := 0; i < 40; i++ {
		id := fmt.Sprintf("biz-%02d", i)
		businesses = append(businesses, Business{ID: id, Upvotes: int64(i % 7), Plan: []string{"free", "pro"}[i%2]})
		for j := 0; j < i%4; j++ {
			reviews = append(reviews, Review{BusinessID: id, Rating: 1 + (i+j)%5, CreatedAt: now.Add(-time.Duration(i+j) * time.Hour)})
		}
		for j := 0; j < i%6; j++ {
			views = append(views, View{BusinessID: id, CreatedAt: now.Add(-time.Duration(j*7) * time.Hour)})
		}
	}

	first := Compute(now, businesses, reviews, views)
	for i := 0; i < 5; i++ {
		again := Compute(now, businesses, reviews, views)
		assert.Equal(t, first, again)
	}
	assert.Len(t, first.BusinessOfTheDay, DailyLimit)
	assert.Len(t, first.CommunityFavorites, FavoritesLimit)
}

func TestRecentFiveStarReviewIsMonotonic(t *testing.T) {
	businesses := []Business{
		{ID: "x", Upvotes: 3, Plan: "free"},
		{ID: "y", Upvotes: 8, Plan: "pro"},
	}
	reviews := []Review{
		{BusinessID: "x", Rating: 5, CreatedAt: now.Add(-30 * time.Hour)},
		{BusinessID: "y", Rating: 4, CreatedAt: now.Add(-time.Hour)},
	}
	views := []View{{BusinessID: "y", CreatedAt: now.Add(-time.Hour)}}

	before := Scores(now, businesses, reviews, views)
	withReview := append(append([]Review{}, reviews...), Review{BusinessID: "x", Rating: 5, CreatedAt: now.Add(-time.Minute)})
	after := Scores(now, businesses, withReview, views)

	assert.Greater(t, after[0].Daily, before[0].Daily)
	assert.Greater(t, after[0].Lifetime, before[0].Lifetime)
	assert.Equal(t, before[1], after[1])
}

func TestTopHandlesShortInput(t *testing.T) {
	scores := Scores(now, []Business{{ID: "only"}}, nil, nil)
	assert.Len(t, Top(scores, func(s Score) float64 { return s.Daily }, DailyLimit), 1)
	assert.Empty(t, Compute(now, nil, nil, nil).BusinessOfTheDay)
}

func TestFind(t *testing.T) {
	scores := Scores(now, []Business{{ID: "a"}, {ID: "b", Upvotes: 2}}, nil, nil)

	s, ok := Find(scores, "b")
	require.True(t, ok)
	assert.Equal(t, int64(2), s.Upvotes)

	_, ok = Find(scores, "zzz")
	assert.False(t, ok)
}
