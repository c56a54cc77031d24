package controllers

import (
	"fmt"
	"html"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/content"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/env"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/mail"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/usercontext"
)

type feedbackRequest struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// HandleFeedbackAPI stores owner feedback and mails a copy to the team.
func HandleFeedbackAPI(c *fiber.Ctx) error {
	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	fb := &models.Feedback{
		BusinessID: usercontext.GetUserID(c),
		Type:       strings.ToLower(strings.TrimSpace(req.Type)),
		Message:    content.PlainText(req.Message),
	}
	if fb.Type == "" {
		fb.Type = models.FeedbackTypeGeneral
	}
	if err := fb.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "type must be bug, feature or general and message must be 3 to 5000 characters")
	}

	if err := repos().Feedback.Create(fb); err != nil {
		log.Errorf("[Feedback] store: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "Could not save feedback")
	}

	go notifyFeedback(fb, usercontext.GetUserContext(c).Email)

	return c.JSON(fiber.Map{"success": true})
}

// notifyFeedback is best effort; the feedback row is already stored.
func notifyFeedback(fb *models.Feedback, from string) {
	to := env.GetEnv("FEEDBACK_EMAIL", "")
	if to == "" {
		return
	}
	subject := fmt.Sprintf("[Marktplatz] %s feedback from %s", fb.Type, from)
	htmlBody := fmt.Sprintf("<p><strong>%s</strong> (%s)</p><p>%s</p>",
		html.EscapeString(from), html.EscapeString(fb.Type),
		strings.ReplaceAll(html.EscapeString(fb.Message), "\n", "<br>"))
	plain := fmt.Sprintf("%s (%s)\n\n%s", from, fb.Type, fb.Message)
	if err := mail.Default().Send(to, subject, htmlBody, plain); err != nil {
		log.Warnf("[Feedback] notification mail failed: %v", err)
	}
}
