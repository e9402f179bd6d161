// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"time"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	businessflow "github.com/clearwater-medical/outreach-portal/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// importTimeout bounds bulk CSV imports, which run longer than normal requests
const importTimeout = 2 * time.Minute

func errorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func successResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// validationErrors flattens validator output into user-facing messages
func validationErrors(err error) []string {
	var out []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, v := range verrs {
			out = append(out, getValidationErrorMessage(v))
		}
	} else {
		out = append(out, err.Error())
	}
	return out
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "uuid4":
		return err.Field() + " must be a valid UUID"
	case "min":
		return err.Field() + " must be at least " + err.Param()
	case "max":
		return err.Field() + " must be at most " + err.Param()
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	default:
		return err.Field() + " is invalid"
	}
}

// currentUserID reads the authenticated user set by the auth middleware
func currentUserID(c fiber.Ctx) uint {
	if id, ok := c.Locals("user_id").(uint); ok {
		return id
	}
	return 0
}

func clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	if requestID := c.Get("X-Request-ID"); requestID != "" {
		metadata.SetRequestID(requestID)
	}
	return metadata
}

// requestContext creates a context with request-scoped values for observability
// and a bounded timeout
func requestContext(c fiber.Ctx, endpoint string) context.Context {
	return requestContextWithTimeout(c, endpoint, 30*time.Second)
}

func requestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	ctx = context.WithValue(ctx, businessflow.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, "user_agent", c.Get("User-Agent"))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel)

	return ctx
}

// mapBusinessError translates the flow error taxonomy into HTTP responses.
// Handlers call this after their operation-specific checks.
func mapBusinessError(c fiber.Ctx, err error, fallbackMessage, fallbackCode string) error {
	switch {
	case businessflow.IsNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, err.Error(), "NOT_FOUND", nil)
	case businessflow.IsInvalidInput(err):
		return errorResponse(c, fiber.StatusBadRequest, err.Error(), "INVALID_INPUT", nil)
	case businessflow.IsInvalidTransition(err):
		return errorResponse(c, fiber.StatusConflict, err.Error(), "INVALID_TRANSITION", nil)
	case businessflow.IsMissingConfiguration(err):
		return errorResponse(c, fiber.StatusUnprocessableEntity, err.Error(), "MISSING_CONFIGURATION", nil)
	case businessflow.IsDependencyFailure(err):
		return errorResponse(c, fiber.StatusServiceUnavailable, err.Error(), "DEPENDENCY_FAILURE", nil)
	case businessflow.IsAccountInactive(err):
		return errorResponse(c, fiber.StatusUnauthorized, "Account is inactive", "ACCOUNT_INACTIVE", nil)
	case businessflow.IsIncorrectPassword(err):
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid credentials", "INVALID_CREDENTIALS", nil)
	default:
		return errorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
	}
}
