package handler

import (
	"net/http"
	"strconv"

	"github.com/dinerozz/tracking-backend/internal/entity"
	"github.com/dinerozz/tracking-backend/internal/model/response/wrapper"
	eventService "github.com/dinerozz/tracking-backend/internal/service/event"
	"github.com/dinerozz/tracking-backend/internal/service/identity"
	visitService "github.com/dinerozz/tracking-backend/internal/service/visit"
	"github.com/gin-gonic/gin"
)

type TrackingHandler struct {
	visits        visitService.VisitService
	events        eventService.EventService
	fingerprinter *identity.Fingerprinter
}

func NewTrackingHandler(visits visitService.VisitService, events eventService.EventService, fingerprinter *identity.Fingerprinter) *TrackingHandler {
	return &TrackingHandler{
		visits:        visits,
		events:        events,
		fingerprinter: fingerprinter,
	}
}

// TrackView godoc
// @Summary      Track a page view
// @Description  kind=init starts a visit and returns its id, kind=heartbeat adds seconds to an existing visit
// @Tags         /tracking
// @Accept       json
// @Produce      json
// @Param        view  body      entity.TrackViewRequest  true  "View payload"
// @Success      200   {object}  entity.InitVisitResponse
// @Success      200   {object}  entity.OKResponse
// @Failure      400   {object}  wrapper.ErrorWrapper
// @Failure      429   {object}  wrapper.ErrorWrapper
// @Failure      500   {object}  wrapper.ErrorWrapper
// @Router       /tracking/view [post]
func (h *TrackingHandler) TrackView(c *gin.Context) {
	var req entity.TrackViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, wrapper.ErrorWrapper{
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	switch req.Kind {
	case entity.ViewKindInit:
		userAgent := req.UserAgent
		if userAgent == "" {
			userAgent = c.Request.UserAgent()
		}

		visitID, err := h.visits.InitVisit(c.Request.Context(), entity.InitVisitInput{
			ContentRef:  req.TargetRef.Ptr(),
			Path:        req.Path,
			Fingerprint: h.fingerprinter.Fingerprint(c.ClientIP(), userAgent),
			Referrer:    req.Referrer,
			UserAgent:   userAgent,
		})
		if err != nil {
			wrapper.AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, entity.InitVisitResponse{VisitID: visitID.String()})

	case entity.ViewKindHeartbeat:
		if err := h.visits.Heartbeat(c.Request.Context(), req.VisitID, req.Seconds); err != nil {
			wrapper.AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, entity.OKResponse{OK: true})

	default:
		c.JSON(http.StatusBadRequest, wrapper.ErrorWrapper{
			Message: "kind must be init or heartbeat",
		})
	}
}

// TrackEvent godoc
// @Summary      Record an interaction event
// @Tags         /tracking
// @Accept       json
// @Produce      json
// @Param        event  body      entity.RecordEventRequest  true  "Event payload"
// @Success      200    {object}  entity.SuccessResponse
// @Failure      400    {object}  wrapper.ErrorWrapper
// @Failure      429    {object}  wrapper.ErrorWrapper
// @Router       /tracking/event [post]
func (h *TrackingHandler) TrackEvent(c *gin.Context) {
	var req entity.RecordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, wrapper.ErrorWrapper{
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	if err := h.events.Record(c.Request.Context(), req); err != nil {
		wrapper.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Success: true})
}

// GetTrending godoc
// @Summary      Trending targets for today
// @Tags         /tracking
// @Produce      json
// @Param        limit  query     int  false  "Number of items (default 10, max 50)"
// @Success      200    {object}  wrapper.ResponseWrapper{data=[]entity.TrendingItem}
// @Failure      500    {object}  wrapper.ErrorWrapper
// @Router       /tracking/trending [get]
func (h *TrackingHandler) GetTrending(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	items, err := h.events.Trending(c.Request.Context(), limit)
	if err != nil {
		wrapper.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, wrapper.ResponseWrapper{
		Data:    items,
		Success: true,
	})
}
