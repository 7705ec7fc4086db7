package auth

import (
	goerrors "github.com/goliatone/go-errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorMessage is a single entry of the wire error body.
type ErrorMessage struct {
	Msg string `json:"msg"`
}

// ErrorBody is the one and only failure shape clients ever see:
// {"errors":[{"msg":...}]}. Exactly one kind per response; the message
// list may carry multiple entries for validation failures.
type ErrorBody struct {
	Errors []ErrorMessage `json:"errors"`
}

// serverErrorMessage is what unclassified failures degrade to. Raw internal
// messages never reach the client.
const serverErrorMessage = "Server Error"

// NewErrorResponder returns the fiber error handler that is the single exit
// point for every failure in the subsystem. Handlers and middleware return
// typed errors; only this function translates them to HTTP.
func NewErrorResponder(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) {
			if fe, ok := err.(*fiber.Error); ok && fe.Code == fiber.StatusNotFound {
				rich = NewNotFoundError("Resource not found")
			} else if fe, ok := err.(*fiber.Error); ok && fe.Code == fiber.StatusMethodNotAllowed {
				rich = NewNotFoundError("Resource not found")
			} else {
				logger.Error("unclassified error", "error", err)
				return respond(c, fiber.StatusInternalServerError, []string{serverErrorMessage})
			}
		}

		status := statusFor(rich)
		if status >= fiber.StatusInternalServerError {
			logger.Error("internal error",
				"error", rich.Message,
				"category", rich.Category,
				"text_code", rich.TextCode,
			)
			return respond(c, status, []string{serverErrorMessage})
		}

		logger.Debug("request failed",
			"status", status,
			"category", rich.Category,
			"text_code", rich.TextCode,
		)

		return respond(c, status, messagesFor(rich))
	}
}

func respond(c *fiber.Ctx, status int, msgs []string) error {
	body := ErrorBody{Errors: make([]ErrorMessage, 0, len(msgs))}
	for _, msg := range msgs {
		body.Errors = append(body.Errors, ErrorMessage{Msg: msg})
	}
	return c.Status(status).JSON(body)
}

func statusFor(rich *goerrors.Error) int {
	if rich.Code > 0 {
		return rich.Code
	}

	switch rich.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput, goerrors.CategoryConflict:
		return fiber.StatusBadRequest
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return fiber.StatusUnauthorized
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// messagesFor recovers the ordered message list from metadata, falling back
// to the error's own message.
func messagesFor(rich *goerrors.Error) []string {
	if rich.Metadata != nil {
		switch msgs := rich.Metadata[messagesMetadataKey].(type) {
		case []string:
			if len(msgs) > 0 {
				return msgs
			}
		case []any:
			out := make([]string, 0, len(msgs))
			for _, m := range msgs {
				if s, ok := m.(string); ok {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return []string{rich.Message}
}
