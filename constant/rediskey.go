package constant

import (
	"fmt"
	"time"
)

// 常量定义
const (
	BasePrefix = "shortener:"
	Separator  = ":"
)

// Redis 键模板
const (
	ShortCode = BasePrefix + "shortcode" + Separator + "%s" // shortener:shortcode:<code>
)

// 缓存过期时间（秒）
const (
	LinkCacheTTL      = 3600 // 短链缓存 1 小时
	EmptyLinkCacheTTL = 300  // 空值缓存 5 分钟，防止缓存穿透
)

// BucketTimezone 点击桶使用的固定时区（WIB, UTC+7）。
// 桶日期必须在单一时区下归一化，否则跨时区的同一天点击会落进两个桶。
var BucketTimezone = time.FixedZone("WIB", 7*3600)

// GetShortCodeKey 生成 shortCode 缓存 key
func GetShortCodeKey(shortcode string) string {
	return fmt.Sprintf(ShortCode, shortcode)
}

// BucketDateKey 生成点击桶的日期键（格式：yyyy-MM-dd，WIB 时区）
func BucketDateKey(t time.Time) string {
	return t.In(BucketTimezone).Format("2006-01-02")
}
