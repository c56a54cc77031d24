package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/sync/errgroup"

	"github.com/ManuelReschke/Marktplatz/app/repository"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/constants"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/entitlements"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/ranking"
)

// Analytics is the pro dashboard summary of one business.
type Analytics struct {
	TotalViews    int64                   `json:"totalViews"`
	ViewsLastDay  int64                   `json:"viewsLastDay"`
	ViewsLastWeek int64                   `json:"viewsLastWeek"`
	Upvotes       int64                   `json:"upvotes"`
	Reviews       *repository.ReviewStats `json:"reviews"`
	DailyScore    float64                 `json:"dailyScore"`
	LifetimeScore float64                 `json:"lifetimeScore"`
}

func loadAnalytics(businessID string, now time.Time) (*Analytics, error) {
	r := repos()
	out := &Analytics{}
	var g errgroup.Group
	g.Go(func() (err error) {
		out.TotalViews, err = r.PageView.CountByBusinessSince(businessID, time.Time{})
		return err
	})
	g.Go(func() (err error) {
		out.ViewsLastDay, err = r.PageView.CountByBusinessSince(businessID, now.Add(-24*time.Hour))
		return err
	})
	g.Go(func() (err error) {
		out.ViewsLastWeek, err = r.PageView.CountByBusinessSince(businessID, now.Add(-7*24*time.Hour))
		return err
	})
	g.Go(func() (err error) {
		out.Reviews, err = r.Review.StatsByBusiness(businessID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func HandleAnalytics(c *fiber.Ctx) error {
	biz, err := currentBusiness(c)
	if err != nil {
		log.Errorf("[Analytics] load: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not load your business")
	}
	if !entitlements.AllowsAnalytics(entitlements.Of(biz)) {
		return flashError(c, "Analytics are part of the pro plan", constants.DashboardRoute)
	}

	now := time.Now()
	a, err := loadAnalytics(biz.ID, now)
	if err != nil {
		log.Errorf("[Analytics] %s: %v", biz.ID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not load analytics")
	}
	a.Upvotes = biz.Upvotes
	if s, ok := scoreOf(biz.ID, now); ok {
		a.DailyScore, a.LifetimeScore = s.Daily, s.Lifetime
	}

	return render(c, "analytics", "Analytics", fiber.Map{
		"Business":  biz,
		"Analytics": a,
	})
}

// scoreOf computes the ranking breakdown of a single business.
func scoreOf(businessID string, now time.Time) (ranking.Score, bool) {
	r := repos()
	businesses, err := r.Business.ListForRanking()
	if err != nil {
		log.Warnf("[Analytics] ranking input: %v", err)
		return ranking.Score{}, false
	}
	reviews, err := r.Review.ListForRanking()
	if err != nil {
		log.Warnf("[Analytics] ranking input: %v", err)
		return ranking.Score{}, false
	}
	views, err := r.PageView.ListForRanking()
	if err != nil {
		log.Warnf("[Analytics] ranking input: %v", err)
		return ranking.Score{}, false
	}
	bs, rs, vs := ranking.FromModels(businesses, reviews, views)
	return ranking.Find(ranking.Scores(now, bs, rs, vs), businessID)
}
