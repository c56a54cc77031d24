package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Marktplatz/internal/pkg/env"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/metrics"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/security"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/upvote"
)

type upvoteRequest struct {
	UserID string `json:"userId"`
}

// upvoteCodec fails when APP_SECRET is missing. Without a signing key no
// marker can be issued and every request would count.
func upvoteCodec() (*upvote.MarkerCodec, error) {
	key, err := security.DeriveKey(env.GetEnv("APP_SECRET", ""), security.PurposeUpvoteMarker)
	if err != nil {
		return nil, err
	}
	return upvote.NewMarkerCodec(key), nil
}

// HandleUpvoteAPI adds one upvote per device. The device marker is a
// client-held cookie; clearing it allows another vote.
func HandleUpvoteAPI(c *fiber.Ctx) error {
	var req upvoteRequest
	if err := c.BodyParser(&req); err != nil {
		metrics.Default().Upvote("invalid")
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	codec, err := upvoteCodec()
	if err != nil {
		metrics.Default().Upvote("not_configured")
		log.Errorf("[Upvote] APP_SECRET is not set: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "upvote marker is not configured")
	}
	state := codec.Decode(c.Cookies(upvote.CookieName))

	svc := upvote.NewService(repos().Business)
	count, next, err := svc.UpvoteFromDevice(c.UserContext(), state, req.UserID)
	switch {
	case errors.Is(err, upvote.ErrMissingBusinessID):
		metrics.Default().Upvote("invalid")
		return jsonError(c, fiber.StatusBadRequest, "userId is required")
	case errors.Is(err, upvote.ErrAlreadyUpvoted):
		metrics.Default().Upvote("duplicate")
		return jsonErrorCode(c, fiber.StatusConflict, "ALREADY_UPVOTED", "You already upvoted this business")
	case errors.Is(err, upvote.ErrNotFound):
		metrics.Default().Upvote("not_found")
		return jsonError(c, fiber.StatusNotFound, "Business not found")
	case err != nil:
		metrics.Default().Upvote("error")
		log.Errorf("[Upvote] %s: %v", req.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "Could not save upvote")
	}

	if token, err := codec.Encode(next); err == nil {
		c.Cookie(&fiber.Cookie{
			Name:     upvote.CookieName,
			Value:    token,
			Path:     "/",
			Expires:  time.Now().Add(365 * 24 * time.Hour),
			HTTPOnly: false,
			Secure:   !env.IsDev(),
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	} else {
		log.Warnf("[Upvote] marker not issued: %v", err)
	}

	metrics.Default().Upvote("ok")
	return c.JSON(fiber.Map{"success": true, "upvotes": count})
}
