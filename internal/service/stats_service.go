package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Alfthrpy/shortener-api/internal/apperrors"
	"github.com/Alfthrpy/shortener-api/internal/dto"
	"github.com/Alfthrpy/shortener-api/internal/model"
	"github.com/Alfthrpy/shortener-api/internal/repository"
	"github.com/Alfthrpy/shortener-api/pkg/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AggregateStats 聚合单个短链的统计：总点击数 + 日/周/月三种粒度的桶。
// 纯读操作，每次调用都从原始日桶重新计算，不维护缓存的 rollup 状态，
// 代价是 O(桶数)，但桶数以每天一个为上界，可接受。
func AggregateStats(linkID uint) (*dto.StatsReport, error) {
	var link model.Link
	if err := repository.DB.First(&link, linkID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.LinkNotFoundError()
		}
		logging.Logger.Error("Failed to load link for stats",
			zap.Uint("link_id", linkID),
			zap.Error(err))
		return nil, apperrors.SystemErrorDefault()
	}

	var buckets []model.ClickBucket
	if err := repository.DB.
		Where("link_id = ?", linkID).
		Order("date ASC").
		Find(&buckets).Error; err != nil {
		logging.Logger.Error("Failed to load click buckets",
			zap.Uint("link_id", linkID),
			zap.Error(err))
		return nil, apperrors.SystemErrorDefault()
	}

	var dims []model.BucketDimension
	if err := repository.DB.
		Where("link_id = ?", linkID).
		Find(&dims).Error; err != nil {
		logging.Logger.Error("Failed to load bucket dimensions",
			zap.Uint("link_id", linkID),
			zap.Error(err))
		return nil, apperrors.SystemErrorDefault()
	}

	report := &dto.StatsReport{
		DailyClicks:   make(map[string]*dto.BucketStats, len(buckets)),
		WeeklyClicks:  make(map[string]*dto.BucketStats),
		MonthlyClicks: make(map[string]*dto.BucketStats),
	}

	// 零点击是合法的空报表，不是错误
	for i := range buckets {
		bs := dto.NewBucketStats()
		bs.Clicks = buckets[i].Clicks
		report.DailyClicks[buckets[i].Date] = bs
		report.TotalClicks += buckets[i].Clicks
	}

	for i := range dims {
		bs, ok := report.DailyClicks[dims[i].Date]
		if !ok {
			continue
		}
		switch dims[i].Dimension {
		case model.DimensionCity:
			bs.CityCounts[dims[i].Value] += dims[i].Count
		case model.DimensionCountry:
			bs.CountryCounts[dims[i].Value] += dims[i].Count
		case model.DimensionDevice:
			bs.DeviceCounts[dims[i].Value] += dims[i].Count
		}
	}

	for date, daily := range report.DailyClicks {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			logging.Logger.Warn("Skipping bucket with malformed date",
				zap.Uint("link_id", linkID),
				zap.String("date", date))
			continue
		}

		// 周键用 ISO-8601 周序数，年边界上和朴素的周序数不一致，
		// 例如 2024-12-30（周一）属于 2025-W1 而不是 2024-W53
		isoYear, isoWeek := day.ISOWeek()
		weekKey := fmt.Sprintf("%d-W%d", isoYear, isoWeek)
		monthKey := fmt.Sprintf("%d-%02d", day.Year(), int(day.Month()))

		mergeInto(report.WeeklyClicks, weekKey, daily)
		mergeInto(report.MonthlyClicks, monthKey, daily)
	}

	return report, nil
}

// TotalClicksAllLinks 全站总点击数，/api/stats/total 专用的跨链接聚合
func TotalClicksAllLinks() (int64, error) {
	var total int64
	if err := repository.DB.
		Model(&model.ClickBucket{}).
		Select("COALESCE(SUM(clicks), 0)").
		Scan(&total).Error; err != nil {
		logging.Logger.Error("Failed to sum clicks across links", zap.Error(err))
		return 0, apperrors.SystemErrorDefault()
	}
	return total, nil
}

func mergeInto(rollup map[string]*dto.BucketStats, key string, daily *dto.BucketStats) {
	bs, ok := rollup[key]
	if !ok {
		bs = dto.NewBucketStats()
		rollup[key] = bs
	}
	bs.Merge(daily)
}
