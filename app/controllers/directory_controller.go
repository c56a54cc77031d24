package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Marktplatz/internal/pkg/viewmodel"
)

const directoryPageSize = 24

func HandleDirectory(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	category := strings.TrimSpace(c.Query("category"))
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	r := repos()
	businesses, total, err := r.Business.Search(query, category, (page-1)*directoryPageSize, directoryPageSize)
	if err != nil {
		log.Errorf("[Directory] search %q: %v", query, err)
		return fiber.NewError(fiber.StatusInternalServerError, "search failed")
	}
	categories, err := r.Business.Categories()
	if err != nil {
		log.Warnf("[Directory] categories: %v", err)
	}

	cards := make([]viewmodel.BusinessCard, 0, len(businesses))
	for i := range businesses {
		cards = append(cards, viewmodel.NewBusinessCard(&businesses[i]))
	}

	totalPages := int((total + directoryPageSize - 1) / directoryPageSize)
	return render(c, "directory", "Directory", fiber.Map{
		"Query":      query,
		"Category":   category,
		"Categories": categories,
		"Businesses": cards,
		"Total":      total,
		"Page":       page,
		"HasPrev":    page > 1,
		"HasNext":    page < totalPages,
		"PrevPage":   page - 1,
		"NextPage":   page + 1,
	})
}
