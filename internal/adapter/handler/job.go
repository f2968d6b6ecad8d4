package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/johnquangdev/todo-maker/errors"
	"github.com/johnquangdev/todo-maker/internal/adapter/dto/common"
	jobUsecase "github.com/johnquangdev/todo-maker/internal/usecase/job"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Job handles job submission and retrieval
type Job struct {
	jobService  jobUsecase.Service
	maxUploadMB int
	logger      *zap.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobService jobUsecase.Service, maxUploadMB int, logger *zap.Logger) *Job {
	return &Job{
		jobService:  jobService,
		maxUploadMB: maxUploadMB,
		logger:      logger,
	}
}

// Upload handles POST /jobs/upload
// @Summary      Submit an audio file
// @Description  Stores the uploaded audio as a new job and queues it for processing
// @Tags         Jobs
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Meeting audio"
// @Success      200   {object}  common.UploadResponse
// @Failure      400   {object}  common.ErrorResponse  "Missing file"
// @Failure      413   {object}  common.ErrorResponse  "Upload too large"
// @Failure      503   {object}  common.ErrorResponse  "Queue unavailable"
// @Router       /jobs/upload [post]
func (h *Job) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var httpErr *echo.HTTPError
		if stdErrors.As(err, &httpErr) && httpErr.Code == http.StatusRequestEntityTooLarge {
			return HandleError(h.logger, c, errors.ErrUploadTooLarge(h.maxUploadMB))
		}
		return HandleError(h.logger, c, errors.ErrInvalidPayload().WithDetail("file", "multipart field 'file' is required"))
	}
	if h.maxUploadMB > 0 && fileHeader.Size > int64(h.maxUploadMB)<<20 {
		return HandleError(h.logger, c, errors.ErrUploadTooLarge(h.maxUploadMB))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	defer src.Close()

	job, err := h.jobService.Submit(c.Request().Context(), fileHeader.Filename, src)
	if err != nil {
		var enqueueErr *jobUsecase.EnqueueError
		if stdErrors.As(err, &enqueueErr) {
			return HandleError(h.logger, c, err)
		}
		return HandleError(h.logger, c, errors.ErrStorageFailed("create job", err))
	}

	return HandleSuccess(h.logger, c, http.StatusOK, common.UploadResponse{
		JobID:  job.JobID,
		Status: string(job.Status),
	})
}

// Status handles GET /jobs/:id
// @Summary      Get job status
// @Tags         Jobs
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  entities.Job
// @Failure      404  {object}  common.ErrorResponse  "Job not found"
// @Router       /jobs/{id} [get]
func (h *Job) Status(c echo.Context) error {
	jobID, err := h.bindJobID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	job, err := h.jobService.Status(c.Request().Context(), jobID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, http.StatusOK, job)
}

// Result handles GET /jobs/:id/result
// @Summary      Get the grouped todo report
// @Tags         Jobs
// @Produce      plain
// @Param        id   path      string  true  "Job ID"
// @Success      200  {string}  string  "Todos grouped by owner"
// @Failure      404  {object}  common.ErrorResponse  "Result not ready"
// @Router       /jobs/{id}/result [get]
func (h *Job) Result(c echo.Context) error {
	jobID, err := h.bindJobID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	report, err := h.jobService.Result(c.Request().Context(), jobID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return c.String(http.StatusOK, report)
}

func (h *Job) bindJobID(c echo.Context) (string, error) {
	var param common.JobPathParam
	if err := (&echo.DefaultBinder{}).BindPathParams(c, &param); err != nil {
		return "", errors.ErrInvalidArgument("invalid job id")
	}
	if err := c.Validate(&param); err != nil {
		return "", errors.ErrInvalidArgument("invalid job id").WithDetail("id", param.ID)
	}
	return param.ID, nil
}
