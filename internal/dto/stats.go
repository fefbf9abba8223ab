package dto

// BucketStats 单个桶（日/周/月）的点击数与维度频次
type BucketStats struct {
	Clicks        int64            `json:"clicks"`
	CityCounts    map[string]int64 `json:"city_counts"`
	CountryCounts map[string]int64 `json:"country_counts"`
	DeviceCounts  map[string]int64 `json:"device_counts"`
}

// StatsReport 单个短链的聚合统计。
// daily 键为 YYYY-MM-DD，weekly 键为 {ISO年}-W{ISO周}，monthly 键为 {年}-{月:2位}
type StatsReport struct {
	TotalClicks   int64                   `json:"total_clicks"`
	DailyClicks   map[string]*BucketStats `json:"daily_clicks"`
	WeeklyClicks  map[string]*BucketStats `json:"weekly_clicks"`
	MonthlyClicks map[string]*BucketStats `json:"monthly_clicks"`
}

// NewBucketStats 构造空桶
func NewBucketStats() *BucketStats {
	return &BucketStats{
		CityCounts:    make(map[string]int64),
		CountryCounts: make(map[string]int64),
		DeviceCounts:  make(map[string]int64),
	}
}

// Merge 把另一个桶累加进来（计数逐键求和，不是并集）
func (b *BucketStats) Merge(other *BucketStats) {
	b.Clicks += other.Clicks
	for k, v := range other.CityCounts {
		b.CityCounts[k] += v
	}
	for k, v := range other.CountryCounts {
		b.CountryCounts[k] += v
	}
	for k, v := range other.DeviceCounts {
		b.DeviceCounts[k] += v
	}
}
