package viewmodel

import (
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/constants"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/content"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/entitlements"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/utils"
)

// BusinessCard is one entry in the directory and the leaderboards.
type BusinessCard struct {
	ID       string
	Name     string
	URL      string
	LogoURL  string
	Location string
	Category string
	Excerpt  string
	Upvotes  int64
	Verified bool
	Score    float64
}

func NewBusinessCard(b *models.Business) BusinessCard {
	logo := b.LogoURL
	if logo == "" {
		logo = utils.GetGravatarURL(b.Email, 160)
	}
	return BusinessCard{
		ID:       b.ID,
		Name:     b.DisplayName(),
		URL:      constants.StorefrontURL(b.Slug()),
		LogoURL:  logo,
		Location: b.Location,
		Category: b.Category,
		Excerpt:  content.Truncate(content.PlainText(b.Description), 140),
		Upvotes:  b.Upvotes,
		Verified: b.IsVerified && entitlements.ShowsVerifiedBadge(entitlements.Of(b)),
	}
}

// ProductCard is a product as shown on a storefront.
type ProductCard struct {
	ID             uint
	Name           string
	Description    string
	Price          string
	ImageURL       string
	WebPURL        string
	OrderWhatsApp  string
	OrderInstagram string
}

func NewProductCard(b *models.Business, p *models.Product) ProductCard {
	return ProductCard{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          FormatPrice(p.Price),
		ImageURL:       p.ImageURL,
		WebPURL:        p.ImageWebPURL,
		OrderWhatsApp:  content.WhatsAppLink(b.WhatsAppNumber, content.OrderMessage(b.DisplayName(), p.Name, p.Price)),
		OrderInstagram: content.InstagramLink(b.InstagramHandle),
	}
}

// ReviewView is a published review.
type ReviewView struct {
	AuthorName string
	Rating     int
	Comment    string
	Date       string
}

func NewReviewView(r *models.Review) ReviewView {
	return ReviewView{
		AuthorName: r.AuthorName,
		Rating:     r.Rating,
		Comment:    r.Comment,
		Date:       r.CreatedAt.Format("Jan 2, 2006"),
	}
}

// Storefront is the public business page.
type Storefront struct {
	Business        BusinessCard
	Slug            string
	DescriptionHTML template.HTML
	Products        []ProductCard
	Reviews         []ReviewView
	ReviewCount     int64
	AverageRating   string
	WhatsAppLink    string
	InstagramLink   string
	AlreadyUpvoted  bool
	ChatEnabled     bool
	ChatWelcome     string
	HCaptchaSiteKey string
}

// FormatPrice renders a whole currency amount with thousands separators.
func FormatPrice(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatRating shows one decimal, or "–" without reviews.
func FormatRating(avg float64, count int64) string {
	if count == 0 {
		return "–"
	}
	return fmt.Sprintf("%.1f", math.Round(avg*10)/10)
}
