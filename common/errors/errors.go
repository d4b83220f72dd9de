package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is an application error carrying the HTTP status it maps to.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on status code and message so wrapped copies of the sentinels
// below compare equal to them.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// Wrap returns a copy of e carrying err as its cause.
func (e *Error) Wrap(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err}
}

func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

var (
	ErrUnauthorized   = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrInternalServer = New(http.StatusInternalServerError, "Internal server error", nil)
)

var (
	ErrInvalidSignature = New(http.StatusBadRequest, "invalid webhook signature", nil)
	ErrInvalidEvent     = New(http.StatusBadRequest, "invalid webhook event", nil)
	ErrInvalidInput     = New(http.StatusBadRequest, "Invalid input", nil)
	ErrEmptyCart        = New(http.StatusNotFound, "cart is empty", nil)
	ErrDatabaseQuery    = New(http.StatusInternalServerError, "Database query error", nil)
)

// Provider maps a payment provider failure to a 500 whose message is the
// provider's own text.
func Provider(message string, err error) *Error {
	return New(http.StatusInternalServerError, message, err)
}

// As returns err as *Error, turning anything else into an internal server error.
func As(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer.Wrap(err)
}

// ErrorMiddleware renders the last error attached with c.Error.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		appErr := As(c.Errors.Last().Err)
		c.AbortWithStatusJSON(appErr.Code, appErr)
	}
}
