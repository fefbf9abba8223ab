package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Alfthrpy/shortener-api/internal/apperrors"
	"github.com/Alfthrpy/shortener-api/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetStatsHandler 查询单个短链的聚合统计。
// linkId 为字面量 "total" 时走跨链接聚合，只返回全站总点击数。
// 响应体保持固定形状，不走统一 envelope。
func GetStatsHandler(c *gin.Context) {
	idStr := c.Param("linkId")

	if idStr == "total" {
		total, err := service.TotalClicksAllLinks()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"total_clicks": total})
		return
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid link id"})
		return
	}

	report, err := service.AggregateStats(uint(id))
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == http.StatusNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
			return
		}
		zap.L().Error("Failed to aggregate stats",
			zap.Uint64("link_id", id),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_clicks":   report.TotalClicks,
		"daily_clicks":   report.DailyClicks,
		"weekly_clicks":  report.WeeklyClicks,
		"monthly_clicks": report.MonthlyClicks,
	})
}
