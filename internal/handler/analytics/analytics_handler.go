package handler

import (
	"net/http"

	"github.com/dinerozz/tracking-backend/internal/model/response/wrapper"
	service "github.com/dinerozz/tracking-backend/internal/service/analytics"
	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	service service.AnalyticsService
}

func NewAnalyticsHandler(service service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
	}
}

// GetAnalytics godoc
// @Summary      Traffic, device mix and top posts
// @Description  Aggregates visits on demand. Figures undercount when truncated is true.
// @Tags         /admin/analytics
// @Produce      json
// @Param        period  query     string  false  "today, 7d, 30d or year"  default(7d)
// @Success      200     {object}  entity.AdminAnalyticsResponse
// @Failure      400     {object}  wrapper.ErrorWrapper
// @Failure      401     {object}  wrapper.ErrorWrapper
// @Failure      403     {object}  wrapper.ErrorWrapper
// @Failure      500     {object}  wrapper.ErrorWrapper
// @Router       /admin/analytics [get]
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	report, err := h.service.AdminReport(c.Request.Context(), c.Query("period"))
	if err != nil {
		wrapper.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
