package serverutils

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// StatusMapper translates domain errors into HTTP status codes. It
// returns 0 when it does not recognise the error.
type StatusMapper func(err error) int

func statusOf(err error, mappers []StatusMapper) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	for _, m := range mappers {
		if code := m(err); code != 0 {
			return code
		}
	}
	return http.StatusInternalServerError
}

// ErrorHandlerMiddleware turns errors returned by handlers into the
// standard error response body. Mappers are consulted in order.
func ErrorHandlerMiddleware(mappers ...StatusMapper) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		code := statusOf(err, mappers)
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}
