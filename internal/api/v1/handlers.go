package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/ManuelReschke/Marktplatz/app/controllers"
)

// Pong is the ping response.
type Pong struct {
	Ping string `json:"ping"`
}

// APIServer serves the operations of the public OpenAPI document.
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(Pong{Ping: "pong"})
}

func (s *APIServer) PostUpvote(c *fiber.Ctx) error {
	return controllers.HandleUpvoteAPI(c)
}

func (s *APIServer) PostChat(c *fiber.Ctx) error {
	return controllers.HandleChatAPI(c)
}

// PostCheckout needs a signed-in owner; the router attaches the session check.
func (s *APIServer) PostCheckout(c *fiber.Ctx) error {
	return controllers.HandleCheckoutAPI(c)
}

// PostFeedback needs a signed-in owner; the router attaches the session check.
func (s *APIServer) PostFeedback(c *fiber.Ctx) error {
	return controllers.HandleFeedbackAPI(c)
}

func (s *APIServer) GetRankings(c *fiber.Ctx) error {
	return controllers.HandleRankingsAPI(c)
}

// RegisterHandlers mounts every operation on api, which is the /api group.
// Session-protected operations run auth before the document validation so
// anonymous callers get 401 rather than a body error.
func RegisterHandlers(api fiber.Router, s *APIServer, v *Validator, auth fiber.Handler) {
	validate := v.Middleware()

	api.Get("/v1/ping", s.GetPing)
	api.Post("/upvote", validate, s.PostUpvote)
	api.Post("/chat", validate, s.PostChat)
	api.Get("/rankings", s.GetRankings)
	api.Post("/checkout/:provider", auth, validate, s.PostCheckout)
	api.Post("/feedback", auth, validate, s.PostFeedback)
}
