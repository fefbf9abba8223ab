package model

import "gorm.io/gorm"

// 频次维度名，作为 BucketDimension.Dimension 的取值
const (
	DimensionCity    = "city"
	DimensionCountry = "country"
	DimensionDevice  = "device"
)

// ClickBucket 是点击统计的聚合粒度：每个 (link_id, date) 至多一行。
// 首次点击时创建，当天后续点击只做原子自增，不会被替换。
type ClickBucket struct {
	gorm.Model
	LinkID uint   `gorm:"uniqueIndex:idx_bucket_link_date;not null" json:"linkId"`
	Date   string `gorm:"uniqueIndex:idx_bucket_link_date;size:10;not null" json:"date"` // YYYY-MM-DD
	Clicks int64  `gorm:"default:0" json:"clicks"`
}

// BucketDimension 记录某个桶内单个维度取值的出现次数，
// 例如 (linkId=3, date=2025-01-02, dimension=city, value=Jakarta) -> 5。
// 按行存储而不是 JSON 列，是为了让并发自增保持原子性。
type BucketDimension struct {
	gorm.Model
	LinkID    uint   `gorm:"uniqueIndex:idx_bucket_dim;not null" json:"linkId"`
	Date      string `gorm:"uniqueIndex:idx_bucket_dim;size:10;not null" json:"date"`
	Dimension string `gorm:"uniqueIndex:idx_bucket_dim;size:16;not null" json:"dimension"`
	Value     string `gorm:"uniqueIndex:idx_bucket_dim;size:128;not null" json:"value"`
	Count     int64  `gorm:"default:0" json:"count"`
}
