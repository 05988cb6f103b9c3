package handler

import (
	"net/http"
	"strconv"

	"github.com/dinerozz/tracking-backend/internal/entity"
	"github.com/dinerozz/tracking-backend/internal/model/response"
	"github.com/dinerozz/tracking-backend/internal/model/response/wrapper"
	service "github.com/dinerozz/tracking-backend/internal/service/experiment"
	"github.com/gin-gonic/gin"
)

type ExperimentHandler struct {
	service service.ExperimentService
}

func NewExperimentHandler(service service.ExperimentService) *ExperimentHandler {
	return &ExperimentHandler{
		service: service,
	}
}

// GetVariant godoc
// @Summary      Get the session's variant
// @Description  Assigns a variant on first call to an active experiment. variant is null for unknown or inactive experiments.
// @Tags         /experiments
// @Produce      json
// @Param        slug       query     string  true  "Experiment slug"
// @Param        sessionId  query     string  true  "Session token"
// @Success      200        {object}  entity.VariantResponse
// @Failure      400        {object}  wrapper.ErrorWrapper
// @Failure      500        {object}  wrapper.ErrorWrapper
// @Router       /experiments/variant [get]
func (h *ExperimentHandler) GetVariant(c *gin.Context) {
	variant, err := h.service.GetVariant(c.Request.Context(), c.Query("slug"), c.Query("sessionId"))
	if err != nil {
		wrapper.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.VariantResponse{Variant: variant})
}

// RecordConversion godoc
// @Summary      Record a conversion for an assigned session
// @Tags         /experiments
// @Accept       json
// @Produce      json
// @Param        conversion  body      entity.RecordConversionRequest  true  "Conversion payload"
// @Success      200         {object}  entity.SuccessResponse
// @Failure      400         {object}  wrapper.ErrorWrapper
// @Failure      404         {object}  wrapper.ErrorWrapper
// @Failure      500         {object}  wrapper.ErrorWrapper
// @Router       /experiments/conversion [post]
func (h *ExperimentHandler) RecordConversion(c *gin.Context) {
	var req entity.RecordConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, wrapper.ErrorWrapper{
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	if err := h.service.RecordConversion(c.Request.Context(), req); err != nil {
		wrapper.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Success: true})
}

// CreateExperiment godoc
// @Summary      Create an experiment
// @Tags         /admin/experiments
// @Accept       json
// @Produce      json
// @Param        experiment  body      entity.CreateExperimentRequest  true  "Experiment"
// @Success      201         {object}  wrapper.ResponseWrapper{data=entity.Experiment}
// @Failure      400         {object}  wrapper.ErrorWrapper
// @Failure      401         {object}  wrapper.ErrorWrapper
// @Failure      403         {object}  wrapper.ErrorWrapper
// @Router       /admin/experiments [post]
func (h *ExperimentHandler) CreateExperiment(c *gin.Context) {
	var req entity.CreateExperimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, wrapper.ErrorWrapper{
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	experiment, err := h.service.CreateExperiment(c.Request.Context(), req)
	if err != nil {
		wrapper.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, wrapper.ResponseWrapper{
		Data:    experiment,
		Success: true,
	})
}

// ListExperiments godoc
// @Summary      List experiments
// @Tags         /admin/experiments
// @Produce      json
// @Param        page      query     int  false  "Page number"  default(1)
// @Param        per_page  query     int  false  "Items per page"  default(20)
// @Success      200       {object}  wrapper.PaginatedResponseWrapper{data=[]entity.Experiment}
// @Failure      401       {object}  wrapper.ErrorWrapper
// @Failure      403       {object}  wrapper.ErrorWrapper
// @Router       /admin/experiments [get]
func (h *ExperimentHandler) ListExperiments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	experiments, err := h.service.ListExperiments(c.Request.Context())
	if err != nil {
		wrapper.AbortWithError(c, err)
		return
	}

	meta := response.NewPaginationMeta(page, perPage, len(experiments))
	start, end := meta.Bounds()

	c.JSON(http.StatusOK, wrapper.PaginatedResponseWrapper{
		Data:    experiments[start:end],
		Meta:    meta,
		Success: true,
	})
}

// UpdateStatus godoc
// @Summary      Change experiment status
// @Description  draft -> active -> completed; completed is terminal
// @Tags         /admin/experiments
// @Accept       json
// @Produce      json
// @Param        slug    path      string                                true  "Experiment slug"
// @Param        status  body      entity.UpdateExperimentStatusRequest  true  "New status"
// @Success      200     {object}  wrapper.ResponseWrapper{data=entity.Experiment}
// @Failure      400     {object}  wrapper.ErrorWrapper
// @Failure      404     {object}  wrapper.ErrorWrapper
// @Router       /admin/experiments/{slug}/status [put]
func (h *ExperimentHandler) UpdateStatus(c *gin.Context) {
	var req entity.UpdateExperimentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, wrapper.ErrorWrapper{
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	experiment, err := h.service.UpdateStatus(c.Request.Context(), c.Param("slug"), req.Status)
	if err != nil {
		wrapper.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, wrapper.ResponseWrapper{
		Data:    experiment,
		Success: true,
	})
}

// GetResults godoc
// @Summary      Per-variant results
// @Tags         /admin/experiments
// @Produce      json
// @Param        slug  path      string  true  "Experiment slug"
// @Success      200   {object}  wrapper.ResponseWrapper{data=entity.ExperimentResults}
// @Failure      404   {object}  wrapper.ErrorWrapper
// @Router       /admin/experiments/{slug}/results [get]
func (h *ExperimentHandler) GetResults(c *gin.Context) {
	results, err := h.service.GetResults(c.Request.Context(), c.Param("slug"))
	if err != nil {
		wrapper.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, wrapper.ResponseWrapper{
		Data:    results,
		Success: true,
	})
}
