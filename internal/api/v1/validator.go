package apiv1

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// Validator checks incoming requests against the published OpenAPI document.
type Validator struct {
	router routers.Router
}

// NewValidator loads and validates the document at path.
func NewValidator(path string) (*Validator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	return &Validator{router: router}, nil
}

// Middleware rejects requests whose parameters or body do not match the
// document with a 400. Operations the document does not describe pass
// through unchecked.
func (v *Validator) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if v == nil {
			return c.Next()
		}
		req, err := adaptor.ConvertRequest(c, false)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}

		route, pathParams, err := v.router.FindRoute(req)
		if err != nil {
			if !errors.Is(err, routers.ErrPathNotFound) && !errors.Is(err, routers.ErrMethodNotAllowed) {
				log.Warnf("[OpenAPI] route lookup for %s %s: %v", c.Method(), c.Path(), err)
			}
			return c.Next()
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				MultiError:         false,
			},
		}
		if err := openapi3filter.ValidateRequest(c.UserContext(), input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": describe(err)})
		}
		return c.Next()
	}
}

// describe turns a validation error into a short client message.
func describe(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.RequestBody != nil {
			msg := "invalid request body"
			var schemaErr *openapi3.SchemaError
			if errors.As(err, &schemaErr) {
				if field := strings.Join(schemaErr.JSONPointer(), "."); field != "" {
					msg += ": " + field + " " + schemaErr.Reason
				} else {
					msg += ": " + schemaErr.Reason
				}
			}
			return msg
		}
		if reqErr.Parameter != nil {
			return "invalid parameter " + reqErr.Parameter.Name
		}
	}
	return "invalid request"
}
