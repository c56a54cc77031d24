// Package ranking computes the "Business of the Day" and "Community
// Favorites" leaderboards from raw upvote, review and page view data.
//
// Scores are recomputed from the input rows on every call. Nothing is cached
// or persisted, so the result is only as fresh as the snapshot passed in.
package ranking

import (
	"sort"
	"strings"
	"time"
)

const (
	// Window is the momentum period of the daily score. Rows exactly Window
	// old no longer count.
	Window = 24 * time.Hour

	DailyLimit     = 3
	FavoritesLimit = 5

	planPro = "pro"
)

// Business is the per-business input of the engine.
type Business struct {
	ID      string
	Upvotes int64
	Plan    string
}

// Review is a rating row as seen by the engine.
type Review struct {
	BusinessID string
	Rating     int
	CreatedAt  time.Time
}

// View is a page view row as seen by the engine.
type View struct {
	BusinessID string
	CreatedAt  time.Time
}

// Score is the full breakdown of one business.
type Score struct {
	BusinessID    string
	Upvotes       int64
	Pro           bool
	RecentReviews int
	RecentViews   int
	AllReviews    int
	AllViews      int
	AverageRating float64
	Daily         float64
	Lifetime      float64
}

// Leaderboards holds both ordered lists.
type Leaderboards struct {
	BusinessOfTheDay   []Score
	CommunityFavorites []Score
}

type tally struct {
	recentReviews int
	recentViews   int
	allReviews    int
	allViews      int
	ratingSum     int
}

// Scores returns one score per business, in input order. Reviews and views
// are aggregated in a single pass; rows for unknown businesses are skipped.
func Scores(now time.Time, businesses []Business, reviews []Review, views []View) []Score {
	cutoff := now.Add(-Window)

	tallies := make(map[string]*tally, len(businesses))
	for _, b := range businesses {
		if _, ok := tallies[b.ID]; !ok {
			tallies[b.ID] = &tally{}
		}
	}

	for _, r := range reviews {
		t, ok := tallies[r.BusinessID]
		if !ok {
			continue
		}
		t.allReviews++
		t.ratingSum += r.Rating
		if r.CreatedAt.After(cutoff) {
			t.recentReviews++
		}
	}

	for _, v := range views {
		t, ok := tallies[v.BusinessID]
		if !ok {
			continue
		}
		t.allViews++
		if v.CreatedAt.After(cutoff) {
			t.recentViews++
		}
	}

	scores := make([]Score, 0, len(businesses))
	for _, b := range businesses {
		t := tallies[b.ID]
		s := Score{
			BusinessID:    b.ID,
			Upvotes:       b.Upvotes,
			Pro:           strings.EqualFold(b.Plan, planPro),
			RecentReviews: t.recentReviews,
			RecentViews:   t.recentViews,
			AllReviews:    t.allReviews,
			AllViews:      t.allViews,
		}
		if t.allReviews > 0 {
			s.AverageRating = float64(t.ratingSum) / float64(t.allReviews)
		}
		s.Daily = dailyScore(s)
		s.Lifetime = lifetimeScore(s)
		scores = append(scores, s)
	}
	return scores
}

func dailyScore(s Score) float64 {
	score := float64(s.RecentReviews)*100 + float64(s.RecentViews)*5 + float64(s.Upvotes)*0.5
	if s.Pro {
		score += 10
	}
	return score
}

func lifetimeScore(s Score) float64 {
	score := float64(s.Upvotes)*20 + float64(s.AllReviews)*50 + s.AverageRating*100 + float64(s.AllViews)*2
	if s.Pro {
		score += 200
	}
	return score
}

// Compute builds both leaderboards.
func Compute(now time.Time, businesses []Business, reviews []Review, views []View) Leaderboards {
	scores := Scores(now, businesses, reviews, views)
	return Leaderboards{
		BusinessOfTheDay:   Top(scores, func(s Score) float64 { return s.Daily }, DailyLimit),
		CommunityFavorites: Top(scores, func(s Score) float64 { return s.Lifetime }, FavoritesLimit),
	}
}

// Top returns the n highest scores by key. Equal keys are ordered by
// business id ascending so the result does not depend on input order.
func Top(scores []Score, key func(Score) float64, n int) []Score {
	ranked := make([]Score, len(scores))
	copy(ranked, scores)
	sort.Slice(ranked, func(i, j int) bool {
		ki, kj := key(ranked[i]), key(ranked[j])
		if ki != kj {
			return ki > kj
		}
		return ranked[i].BusinessID < ranked[j].BusinessID
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Find returns the score of one business from a Scores result.
func Find(scores []Score, businessID string) (Score, bool) {
	for _, s := range scores {
		if s.BusinessID == businessID {
			return s, true
		}
	}
	return Score{}, false
}
