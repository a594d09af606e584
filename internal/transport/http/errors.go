package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/chat"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// mapDomainError converts domain errors to HTTP errors.
func mapDomainError(err error) *echo.HTTPError {
	var (
		he           *echo.HTTPError
		validateErrs validator.ValidationErrors
	)

	switch {
	case errors.As(err, &he):
		return he

	case errors.As(err, &validateErrs):
		return echo.NewHTTPError(http.StatusBadRequest, validateErrs.Error())

	case errors.Is(err, domain.ErrJobNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "sync job not found")

	case errors.Is(err, domain.ErrShopNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "shop not found")

	case errors.Is(err, domain.ErrChatNotWatched):
		return echo.NewHTTPError(http.StatusNotFound, "chat is not watched")

	case errors.Is(err, chat.ErrChatNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())

	case errors.Is(err, domain.ErrEmptyShopName),
		errors.Is(err, domain.ErrEmptyCredential),
		errors.Is(err, domain.ErrUnknownJobStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())

	case errors.Is(err, domain.ErrCursorConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())

	case errors.Is(err, domain.ErrCursorNotFound):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "request timed out")

	case errors.Is(err, context.Canceled):
		return echo.NewHTTPError(499, "request canceled")

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

// errorHandler writes ErrorResponse bodies and logs server-side failures.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if err == nil || c.Response().Committed {
			return
		}

		he := mapDomainError(err)
		if he.Code >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		resp := ErrorResponse{Code: he.Code, Message: messageOf(he)}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(he.Code)
		} else {
			err = c.JSON(he.Code, resp)
		}
		if err != nil {
			logger.Error("could not write error response", zap.Int("code", he.Code), zap.Error(err))
		}
	}
}

func messageOf(he *echo.HTTPError) string {
	if s, ok := he.Message.(string); ok {
		return s
	}
	return http.StatusText(he.Code)
}
