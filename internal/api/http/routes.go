package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/geo-feature-maps/internal/imagery"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// "roi" rejects values a caller would consider absent: missing, null, empty array/object/string.
	_ = v.RegisterValidation("roi", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.Slice {
			return false
		}
		switch string(bytes.TrimSpace(fl.Field().Bytes())) {
		case "", "null", "[]", "{}", `""`:
			return false
		}
		return true
	})
	return v
}

// generateMapRequest is the POST /generate_map body.
type generateMapRequest struct {
	ROI     json.RawMessage `json:"roi" validate:"roi"`
	Feature string          `json:"feature" validate:"required"`
}

// requiredMessages maps struct fields to their "missing" error message.
var requiredMessages = map[string]string{
	"ROI":     "ROI is required",
	"Feature": "Feature is required",
}

func (r generateMapRequest) validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := requiredMessages[verrs[0].StructField()]; ok {
			return errors.New(msg)
		}
	}
	return err
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *imagery.Service) {
	app.Post("/generate_map", func(c *fiber.Ctx) error {
		var req generateMapRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := req.validate(); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		gen, err := service.Generate(c.UserContext(), req.ROI, req.Feature)
		if err != nil {
			return toHTTPError(c, err)
		}

		return c.JSON(gen)
	})

	v1 := app.Group("/api/v1")

	v1.Get("/features", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"features": service.Catalog().Specs(),
		})
	})
}

// toHTTPError maps domain errors onto status codes. Upstream detail is logged, not returned.
func toHTTPError(c *fiber.Ctx, err error) error {
	var (
		verr *imagery.ValidationError
		uerr *imagery.UpstreamError
	)
	switch {
	case errors.As(err, &verr):
		return fiber.NewError(fiber.StatusBadRequest, verr.Message)
	case errors.Is(err, imagery.ErrImageryUnavailable):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &uerr):
		log.Printf("ERROR: request %v: %v", c.Locals("requestid"), err)
		return fiber.NewError(fiber.StatusBadGateway, "imagery service request failed")
	default:
		log.Printf("ERROR: request %v: %v", c.Locals("requestid"), err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate map")
	}
}

// ErrorHandler renders every error as {"error": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	return c.Status(code).JSON(fiber.Map{
		"error": msg,
	})
}
