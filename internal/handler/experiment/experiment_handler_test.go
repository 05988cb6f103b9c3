package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinerozz/tracking-backend/internal/entity"
	"github.com/dinerozz/tracking-backend/internal/model/response"
	"github.com/dinerozz/tracking-backend/internal/repository/memory"
	service "github.com/dinerozz/tracking-backend/internal/service/experiment"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T) (*gin.Engine, service.ExperimentService) {
	t.Helper()
	svc := service.NewExperimentService(memory.NewExperimentRepository(), nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	h := NewExperimentHandler(svc)

	r := gin.New()
	r.GET("/experiments", h.ListExperiments)
	r.POST("/experiments", h.CreateExperiment)
	r.GET("/variant", h.GetVariant)
	return r, svc
}

func TestListExperimentsPaginates(t *testing.T) {
	t.Parallel()
	r, svc := newRouter(t)

	for _, slug := range []string{"a", "b", "c"} {
		_, err := svc.CreateExperiment(context.Background(), entity.CreateExperimentRequest{
			Slug:     slug,
			Variants: entity.Variants{{ID: "control", Weight: 1}},
		})
		require.NoError(t, err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/experiments?page=2&per_page=2", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []entity.Experiment     `json:"data"`
		Meta response.PaginationMeta `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, 3, body.Meta.TotalItems)
	assert.Equal(t, 2, body.Meta.TotalPages)
}

func TestListExperimentsHugePage(t *testing.T) {
	t.Parallel()
	r, svc := newRouter(t)

	_, err := svc.CreateExperiment(context.Background(), entity.CreateExperimentRequest{
		Slug:     "a",
		Variants: entity.Variants{{ID: "control", Weight: 1}},
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/experiments?page=4611686018427387904", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []entity.Experiment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Data)
}

func TestCreateExperimentRejectsBadInput(t *testing.T) {
	t.Parallel()
	r, _ := newRouter(t)

	for _, body := range []string{
		`{`,
		`{"slug":"Bad Slug","variants":[{"id":"a","weight":1}]}`,
		`{"slug":"ok","variants":[]}`,
		`{"slug":"ok","variants":[{"id":"a","weight":-1}]}`,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/experiments", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestGetVariantRequiresParams(t *testing.T) {
	t.Parallel()
	r, _ := newRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/variant?slug=hero", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
