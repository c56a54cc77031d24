package ranking

import "github.com/ManuelReschke/Marktplatz/app/models"

// FromModels converts stored rows into engine input.
func FromModels(businesses []models.Business, reviews []models.Review, views []models.PageView) ([]Business, []Review, []View) {
	bs := make([]Business, 0, len(businesses))
	for _, b := range businesses {
		bs = append(bs, Business{ID: b.ID, Upvotes: b.Upvotes, Plan: b.Plan})
	}

	rs := make([]Review, 0, len(reviews))
	for _, r := range reviews {
		rs = append(rs, Review{BusinessID: r.BusinessID, Rating: r.Rating, CreatedAt: r.CreatedAt})
	}

	vs := make([]View, 0, len(views))
	for _, v := range views {
		vs = append(vs, View{BusinessID: v.BusinessID, CreatedAt: v.CreatedAt})
	}
	return bs, rs, vs
}
