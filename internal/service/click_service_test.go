package service

import (
	"sync"
	"testing"

	"github.com/Alfthrpy/shortener-api/internal/model"
	"github.com/Alfthrpy/shortener-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordClickCreatesBucketLazily(t *testing.T) {
	setupTestDB(t)
	link := createTestLink(t, "abc123")

	require.NoError(t, RecordClick(link.ID, "2025-03-01", "Jakarta", "Indonesia", "Android"))

	var bucket model.ClickBucket
	require.NoError(t, repository.DB.
		Where("link_id = ? AND date = ?", link.ID, "2025-03-01").
		First(&bucket).Error)
	assert.EqualValues(t, 1, bucket.Clicks)

	var dims []model.BucketDimension
	require.NoError(t, repository.DB.Where("link_id = ?", link.ID).Find(&dims).Error)
	require.Len(t, dims, 3)
	byDim := map[string]model.BucketDimension{}
	for _, d := range dims {
		byDim[d.Dimension] = d
	}
	assert.Equal(t, "Jakarta", byDim[model.DimensionCity].Value)
	assert.Equal(t, "Indonesia", byDim[model.DimensionCountry].Value)
	assert.Equal(t, "Android", byDim[model.DimensionDevice].Value)
}

func TestRecordClickIncrementsSameBucket(t *testing.T) {
	setupTestDB(t)
	link := createTestLink(t, "abc123")

	for i := 0; i < 5; i++ {
		require.NoError(t, RecordClick(link.ID, "2025-03-01", "Jakarta", "Indonesia", "Android"))
	}

	// 同一天只有一个桶，绝不新建第二行
	var count int64
	require.NoError(t, repository.DB.Model(&model.ClickBucket{}).
		Where("link_id = ?", link.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var bucket model.ClickBucket
	require.NoError(t, repository.DB.
		Where("link_id = ? AND date = ?", link.ID, "2025-03-01").
		First(&bucket).Error)
	assert.EqualValues(t, 5, bucket.Clicks)
}

// 并发点击同一个 (link, day) 不允许丢更新：N 次 record 之后 clicks 必须恰好为 N
func TestRecordClickConcurrent(t *testing.T) {
	setupTestDB(t)
	link := createTestLink(t, "abc123")

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, RecordClick(link.ID, "2025-03-01", "Jakarta", "Indonesia", "Android"))
		}()
	}
	wg.Wait()

	var bucket model.ClickBucket
	require.NoError(t, repository.DB.
		Where("link_id = ? AND date = ?", link.ID, "2025-03-01").
		First(&bucket).Error)
	assert.EqualValues(t, n, bucket.Clicks)

	var dim model.BucketDimension
	require.NoError(t, repository.DB.
		Where("link_id = ? AND dimension = ?", link.ID, model.DimensionDevice).
		First(&dim).Error)
	assert.EqualValues(t, n, dim.Count)
}

func TestClickRecorderProcessesQueuedEvents(t *testing.T) {
	setupTestDB(t)
	link := createTestLink(t, "abc123")

	// geo 为 nil：解析退化为 Unknown，落库路径保持完整
	recorder := NewClickRecorder(64, 2, nil)
	const n = 20
	for i := 0; i < n; i++ {
		recorder.Record(ClickEvent{
			LinkID:    link.ID,
			IP:        "203.0.113.7",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36",
		})
	}
	recorder.Stop()

	report, err := AggregateStats(link.ID)
	require.NoError(t, err)
	assert.EqualValues(t, n, report.TotalClicks)

	// 地理信息不可用时回退 Unknown，而不是丢弃事件
	var total int64
	for _, bucket := range report.DailyClicks {
		total += bucket.CityCounts["Unknown"]
	}
	assert.EqualValues(t, n, total)
}
