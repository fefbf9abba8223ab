package service

import (
	"context"
	"sync"
	"time"

	"github.com/Alfthrpy/shortener-api/constant"
	"github.com/Alfthrpy/shortener-api/internal/enrich"
	"github.com/Alfthrpy/shortener-api/internal/model"
	"github.com/Alfthrpy/shortener-api/internal/repository"
	"github.com/Alfthrpy/shortener-api/pkg/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClickEvent 重定向热路径上产生的原始点击事件，入队后由 worker 异步补全落库
type ClickEvent struct {
	LinkID    uint
	IP        string
	UserAgent string
	At        time.Time
}

// ClickRecorder 持有点击事件队列和 worker 池。
// 重定向响应先行返回，地理解析、UA 解析和落库都发生在响应之后，
// 队列满时丢弃样本——丢一条统计可以接受，拖慢一次重定向不行。
type ClickRecorder struct {
	events chan ClickEvent
	geo    *enrich.GeoResolver
	wg     sync.WaitGroup
}

// NewClickRecorder 创建并启动 worker 池
func NewClickRecorder(bufferSize, workers int, geo *enrich.GeoResolver) *ClickRecorder {
	if bufferSize < 1 {
		bufferSize = 1024
	}
	if workers < 1 {
		workers = 2
	}

	r := &ClickRecorder{
		events: make(chan ClickEvent, bufferSize),
		geo:    geo,
	}

	logging.Logger.Info("Starting click workers",
		zap.Int("workers", workers),
		zap.Int("buffer", bufferSize))

	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

// Record 非阻塞入队，绝不让调用方等待
func (r *ClickRecorder) Record(ev ClickEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	select {
	case r.events <- ev:
	default:
		logging.Logger.Warn("Click event dropped, buffer full",
			zap.Uint("link_id", ev.LinkID))
	}
}

// Stop 关闭队列并等待积压事件处理完毕，优雅停机时调用
func (r *ClickRecorder) Stop() {
	close(r.events)
	r.wg.Wait()
}

func (r *ClickRecorder) worker() {
	defer r.wg.Done()
	for ev := range r.events {
		r.process(ev)
	}
}

// process 补全单条点击事件并落库。失败只记日志，重定向早已返回
func (r *ClickRecorder) process(ev ClickEvent) {
	loc := r.geo.Resolve(context.Background(), ev.IP)
	device := enrich.ParseDevice(ev.UserAgent)
	day := constant.BucketDateKey(ev.At)

	if err := RecordClick(ev.LinkID, day, loc.City, loc.Country, device.OS); err != nil {
		logging.Logger.Error("Failed to record click",
			zap.Uint("link_id", ev.LinkID),
			zap.String("date", day),
			zap.Error(err))
	}
}

// RecordClick 对 (linkID, day) 桶做 find-or-create 加自增，并累加三个维度的频次。
// 桶自增必须是单条原子 upsert，读改写在并发点击下会丢更新；
// 维度行与桶共用一个事务，保证每个桶的频次之和等于点击数。
func RecordClick(linkID uint, day, city, country, device string) error {
	now := time.Now()
	return repository.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "link_id"}, {Name: "date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"clicks":     gorm.Expr("clicks + 1"),
				"updated_at": now,
			}),
		}).Create(&model.ClickBucket{LinkID: linkID, Date: day, Clicks: 1}).Error; err != nil {
			return err
		}

		dims := []model.BucketDimension{
			{LinkID: linkID, Date: day, Dimension: model.DimensionCity, Value: city, Count: 1},
			{LinkID: linkID, Date: day, Dimension: model.DimensionCountry, Value: country, Count: 1},
			{LinkID: linkID, Date: day, Dimension: model.DimensionDevice, Value: device, Count: 1},
		}
		for i := range dims {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "link_id"}, {Name: "date"}, {Name: "dimension"}, {Name: "value"},
				},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"count":      gorm.Expr("count + 1"),
					"updated_at": now,
				}),
			}).Create(&dims[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
