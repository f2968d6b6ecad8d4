package handler

import (
	stdErrors "errors"

	"github.com/johnquangdev/todo-maker/errors"
	"github.com/johnquangdev/todo-maker/internal/adapter/dto/common"
	"github.com/johnquangdev/todo-maker/internal/domain/entities"
	jobUsecase "github.com/johnquangdev/todo-maker/internal/usecase/job"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().Header.Get("X-Request-ID")
}

// HandleSuccess writes data as JSON with the given status
func HandleSuccess(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
	}

	return c.JSON(status, data)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)
	appErr := toAppError(c, err)

	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Any("app_code", appErr.Code),
			zap.Error(err),
		)
	}

	info := ""
	if appErr.Raw != nil {
		info = appErr.Raw.Error()
	}

	body := common.ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Info:    info,
		Details: appErr.Details,
	}

	return c.JSON(appErr.HTTPCode, body)
}

// toAppError maps domain errors onto the HTTP error catalogue
func toAppError(c echo.Context, err error) errors.AppError {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	jobID := c.Param("id")
	var enqueueErr *jobUsecase.EnqueueError
	switch {
	case stdErrors.Is(err, entities.ErrJobNotFound):
		return errors.ErrJobNotFound(jobID)
	case stdErrors.Is(err, entities.ErrResultNotReady):
		return errors.ErrResultNotReady(jobID)
	case stdErrors.Is(err, entities.ErrInvalidJobID):
		return errors.ErrInvalidArgument("invalid job id")
	case stdErrors.As(err, &enqueueErr):
		return errors.ErrEnqueueFailed(enqueueErr.JobID, enqueueErr.Err)
	}

	return errors.ErrInternal(err)
}
