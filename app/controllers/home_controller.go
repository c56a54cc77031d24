package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/sync/errgroup"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/ranking"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/statistics"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/viewmodel"
)

// loadLeaderboards reads the raw rows and ranks them. Scores are recomputed
// on every request.
func loadLeaderboards(now time.Time) (ranking.Leaderboards, map[string]*models.Business, error) {
	var (
		businesses []models.Business
		reviews    []models.Review
		views      []models.PageView
	)
	r := repos()
	var g errgroup.Group
	g.Go(func() (err error) {
		businesses, err = r.Business.ListForRanking()
		return err
	})
	g.Go(func() (err error) {
		reviews, err = r.Review.ListForRanking()
		return err
	})
	g.Go(func() (err error) {
		views, err = r.PageView.ListForRanking()
		return err
	})
	if err := g.Wait(); err != nil {
		return ranking.Leaderboards{}, nil, err
	}

	byID := make(map[string]*models.Business, len(businesses))
	for i := range businesses {
		byID[businesses[i].ID] = &businesses[i]
	}
	bs, rs, vs := ranking.FromModels(businesses, reviews, views)
	return ranking.Compute(now, bs, rs, vs), byID, nil
}

func scoreCards(scores []ranking.Score, byID map[string]*models.Business, daily bool) []viewmodel.BusinessCard {
	cards := make([]viewmodel.BusinessCard, 0, len(scores))
	for _, s := range scores {
		b, ok := byID[s.BusinessID]
		if !ok {
			continue
		}
		card := viewmodel.NewBusinessCard(b)
		card.Score = s.Lifetime
		if daily {
			card.Score = s.Daily
		}
		cards = append(cards, card)
	}
	return cards
}

func HandleHome(c *fiber.Ctx) error {
	boards, byID, err := loadLeaderboards(time.Now())
	if err != nil {
		log.Errorf("[Home] leaderboards: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not load leaderboards")
	}

	return render(c, "home", "Discover local businesses", fiber.Map{
		"BusinessOfTheDay":   scoreCards(boards.BusinessOfTheDay, byID, true),
		"CommunityFavorites": scoreCards(boards.CommunityFavorites, byID, false),
		"Stats":              statistics.GetStatisticsData(repos()),
	})
}

// HandleRankingsAPI returns both leaderboards as JSON.
func HandleRankingsAPI(c *fiber.Ctx) error {
	boards, byID, err := loadLeaderboards(time.Now())
	if err != nil {
		log.Errorf("[Home] leaderboards: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "could not load rankings")
	}
	return c.JSON(fiber.Map{
		"businessOfTheDay":   rankingEntries(boards.BusinessOfTheDay, byID, true),
		"communityFavorites": rankingEntries(boards.CommunityFavorites, byID, false),
	})
}

type rankingEntry struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Slug    string  `json:"slug"`
	Upvotes int64   `json:"upvotes"`
	Score   float64 `json:"score"`
}

func rankingEntries(scores []ranking.Score, byID map[string]*models.Business, daily bool) []rankingEntry {
	out := make([]rankingEntry, 0, len(scores))
	for _, s := range scores {
		b := byID[s.BusinessID]
		e := rankingEntry{ID: s.BusinessID, Upvotes: s.Upvotes, Score: s.Lifetime}
		if daily {
			e.Score = s.Daily
		}
		if b != nil {
			e.Name = b.DisplayName()
			e.Slug = b.Slug()
		}
		out = append(out, e)
	}
	return out
}
