package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/grillhouse/internal/apperr"
	"github.com/example/grillhouse/internal/logger"
)

const genericInternalMessage = "something went wrong, please try again later"

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// ErrorHandler renders every error as {"success": false, "error": {...}}.
// In production internal failures are reported without their cause.
func ErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		appErr, ok := apperr.As(err)
		if !ok {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				appErr = fromFiber(fiberErr)
			} else {
				appErr = apperr.Internal(err)
			}
		}

		body := errorBody{
			Code:      appErr.Code,
			Message:   appErr.Message,
			Details:   appErr.Details,
			Retryable: appErr.Retryable,
		}

		if appErr.Status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", appErr.Status,
				"error", err,
			)
		}
		if appErr.Code == apperr.CodeInternal {
			if production {
				body.Message = genericInternalMessage
				body.Details = nil
			} else if appErr.Err != nil {
				body.Message = appErr.Err.Error()
			}
		}

		return c.Status(appErr.Status).JSON(fiber.Map{
			"success": false,
			"error":   body,
		})
	}
}

func fromFiber(err *fiber.Error) *apperr.Error {
	switch err.Code {
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return apperr.Validation(err.Message, nil)
	case fiber.StatusNotFound:
		return apperr.NotFound(err.Message, nil)
	case fiber.StatusUnauthorized:
		return apperr.Unauthorized(err.Message)
	case fiber.StatusForbidden:
		return apperr.Forbidden(err.Message)
	case fiber.StatusTooManyRequests:
		return apperr.RateLimited(err.Message)
	}

	if err.Code >= fiber.StatusInternalServerError {
		return apperr.Internal(err)
	}
	return &apperr.Error{Status: err.Code, Code: "HTTP_ERROR", Message: err.Message}
}
