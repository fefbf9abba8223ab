package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Alfthrpy/shortener-api/constant"
	"github.com/Alfthrpy/shortener-api/internal/middleware"
	"github.com/Alfthrpy/shortener-api/internal/model"
	"github.com/Alfthrpy/shortener-api/internal/repository"
	"github.com/Alfthrpy/shortener-api/internal/service"
	"github.com/Alfthrpy/shortener-api/pkg/logging"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupRouter 内存 sqlite + TestMode 路由，路由注册方式与 serve 保持一致
func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	logging.InitTestLogger()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repository.Migrate(db))
	repository.DB = db
	repository.RedisPool = nil
	Recorder = nil

	r := gin.New()
	r.Use(middleware.GlobalErrorMiddleware())

	api := r.Group("/api")
	{
		api.POST("/links", CreateLinkHandler)
		api.GET("/links", ListLinksHandler)
		api.GET("/links/:id", GetLinkHandler)
		api.DELETE("/links/:id", DeleteLinkHandler)
		api.GET("/stats/:linkId", GetStatsHandler)
	}
	r.GET("/:shortCode", RedirectHandler)

	return r
}

func seedLink(t *testing.T, code string, redirectCode int) *model.Link {
	t.Helper()
	link := &model.Link{
		Title:        "test " + code,
		ShortCode:    code,
		OriginalURL:  "https://example.com/" + code,
		RedirectCode: redirectCode,
	}
	require.NoError(t, repository.DB.Create(link).Error)
	return link
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRedirectFound(t *testing.T) {
	r := setupRouter(t)
	seedLink(t, "abc123", 302)

	w := doRequest(r, http.MethodGet, "/abc123", "")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/abc123", w.Header().Get("Location"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
}

func TestRedirectPermanent(t *testing.T) {
	r := setupRouter(t)
	seedLink(t, "perm", 301)

	w := doRequest(r, http.MethodGet, "/perm", "")

	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "https://example.com/perm", w.Header().Get("Location"))
}

func TestRedirectUnknownCode(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(r, http.MethodGet, "/missing", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Link not found"}`, w.Body.String())

	// 未命中的短码不能留下任何点击桶
	var count int64
	require.NoError(t, repository.DB.Model(&model.ClickBucket{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRedirectRecordsClick(t *testing.T) {
	r := setupRouter(t)
	link := seedLink(t, "tracked", 302)

	Recorder = service.NewClickRecorder(16, 1, nil)
	defer func() { Recorder = nil }()

	w := doRequest(r, http.MethodGet, "/tracked", "")
	assert.Equal(t, http.StatusFound, w.Code)

	// Stop 会排空队列，之后桶一定已经落库
	Recorder.Stop()

	var bucket model.ClickBucket
	require.NoError(t, repository.DB.Where("link_id = ?", link.ID).First(&bucket).Error)
	assert.Equal(t, int64(1), bucket.Clicks)
	assert.Equal(t, constant.BucketDateKey(time.Now()), bucket.Date)
}

func TestStatsTotal(t *testing.T) {
	r := setupRouter(t)
	link := seedLink(t, "sumup", 302)
	require.NoError(t, service.RecordClick(link.ID, "2025-03-01", "Jakarta", "Indonesia", "Windows"))
	require.NoError(t, service.RecordClick(link.ID, "2025-03-01", "Jakarta", "Indonesia", "Windows"))

	w := doRequest(r, http.MethodGet, "/api/stats/total", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total_clicks":2}`, w.Body.String())
}

func TestStatsInvalidID(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(r, http.MethodGet, "/api/stats/notanumber", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid link id"}`, w.Body.String())
}

func TestStatsUnknownLink(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(r, http.MethodGet, "/api/stats/999", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Link not found"}`, w.Body.String())
}

func TestStatsReportShape(t *testing.T) {
	r := setupRouter(t)
	link := seedLink(t, "shaped", 302)
	for i := 0; i < 3; i++ {
		require.NoError(t, service.RecordClick(link.ID, "2025-03-05", "Jakarta", "Indonesia", "Windows"))
	}
	require.NoError(t, service.RecordClick(link.ID, "2025-03-06", "Bandung", "Indonesia", "Android"))

	w := doRequest(r, http.MethodGet, fmt.Sprintf("/api/stats/%d", link.ID), "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		TotalClicks int64 `json:"total_clicks"`
		DailyClicks map[string]struct {
			Clicks       int64            `json:"clicks"`
			CityCounts   map[string]int64 `json:"city_counts"`
			DeviceCounts map[string]int64 `json:"device_counts"`
		} `json:"daily_clicks"`
		WeeklyClicks  map[string]json.RawMessage `json:"weekly_clicks"`
		MonthlyClicks map[string]json.RawMessage `json:"monthly_clicks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, int64(4), body.TotalClicks)
	require.Contains(t, body.DailyClicks, "2025-03-05")
	assert.Equal(t, int64(3), body.DailyClicks["2025-03-05"].Clicks)
	assert.Equal(t, int64(3), body.DailyClicks["2025-03-05"].CityCounts["Jakarta"])
	assert.Equal(t, int64(3), body.DailyClicks["2025-03-05"].DeviceCounts["Windows"])
	assert.Contains(t, body.WeeklyClicks, "2025-W10")
	assert.Contains(t, body.MonthlyClicks, "2025-03")
}

func TestCreateLinkEndpoint(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(r, http.MethodPost, "/api/links",
		`{"title":"Docs","original_url":"example.com/docs"}`)

	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			ShortCode    string `json:"shortCode"`
			OriginalURL  string `json:"originalUrl"`
			RedirectCode int    `json:"redirectCode"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Len(t, body.Data.ShortCode, 8)
	assert.Equal(t, "http://example.com/docs", body.Data.OriginalURL)
	assert.Equal(t, 302, body.Data.RedirectCode)
}

func TestCreateLinkInvalidBody(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(r, http.MethodPost, "/api/links", `{"title":""}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteLinkEndpointCascades(t *testing.T) {
	r := setupRouter(t)
	link := seedLink(t, "gone", 302)
	require.NoError(t, service.RecordClick(link.ID, "2025-03-01", "Jakarta", "Indonesia", "Windows"))

	w := doRequest(r, http.MethodDelete, fmt.Sprintf("/api/links/%d", link.ID), "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, fmt.Sprintf("/api/stats/%d", link.ID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	var count int64
	require.NoError(t, repository.DB.Model(&model.BucketDimension{}).Count(&count).Error)
	assert.Zero(t, count)
}
