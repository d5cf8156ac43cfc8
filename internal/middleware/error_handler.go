package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/Eursukkul/railconnect/internal/dto"
	"github.com/labstack/echo/v4"
)

// ErrorHandler renders every error as {"message": ...}. Errors that are not
// *echo.HTTPError are logged and reported as 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	} else {
		log.Printf("[HTTP] %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, dto.ErrorResponse{Message: msg})
}
