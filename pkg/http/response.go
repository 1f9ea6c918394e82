package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// KindErrorResponse writes an ErrorResponse with the given HTTP status.
func KindErrorResponse(c echo.Context, status int, kind string, errs interface{}) error {
	return c.JSON(status, ErrorResponse{
		Status:    status,
		Message:   http.StatusText(status),
		ErrorKind: kind,
		Errors:    errs,
	})
}

// BadRequestResponse writes a 400 with validation details.
func BadRequestResponse(c echo.Context, kind string, errs interface{}) error {
	return KindErrorResponse(c, http.StatusBadRequest, kind, errs)
}

// TooManyRequestsResponse writes a 429 response.
func TooManyRequestsResponse(c echo.Context) error {
	return KindErrorResponse(c, http.StatusTooManyRequests, "RateLimited", nil)
}

// AppErrorResponse writes an AppError with its own status; any other error is a 500.
func AppErrorResponse(c echo.Context, kind string, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return KindErrorResponse(c, appErr.Status, kind, []*AppError{appErr})
	}
	return KindErrorResponse(c, http.StatusInternalServerError, kind, nil)
}
