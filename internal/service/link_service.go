package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Alfthrpy/shortener-api/constant"
	"github.com/Alfthrpy/shortener-api/internal/apperrors"
	"github.com/Alfthrpy/shortener-api/internal/dto"
	"github.com/Alfthrpy/shortener-api/internal/model"
	"github.com/Alfthrpy/shortener-api/internal/repository"
	"github.com/Alfthrpy/shortener-api/pkg/logging"
	"github.com/Alfthrpy/shortener-api/pkg/utils"
	"github.com/Alfthrpy/shortener-api/response"
	"github.com/gomodule/redigo/redis"
	"github.com/lithammer/shortuuid/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const generatedCodeLength = 8

// CreateLink 创建短链，short_code 省略时自动生成
func CreateLink(ctx context.Context, req dto.CreateLinkRequest) (*model.Link, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.InvalidRequestError(err.Error())
	}

	originalURL := utils.NormalizeTargetURL(req.OriginalURL)
	redirectCode := req.RedirectCode
	if redirectCode == 0 {
		redirectCode = http.StatusFound
	}

	shortCode := req.ShortCode
	if shortCode == "" {
		code, err := generateShortCode()
		if err != nil {
			return nil, err
		}
		shortCode = code
	} else {
		// 检查指定的短码是否已被占用
		var existing model.Link
		err := repository.DB.Where("short_code = ?", shortCode).First(&existing).Error
		if err == nil {
			return nil, apperrors.BusinessError(http.StatusConflict, "error.shortcode_taken")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logging.Logger.Error("Failed to check short code", zap.Error(err))
			return nil, apperrors.SystemErrorDefault()
		}
	}

	link := &model.Link{
		Title:        req.Title,
		ShortCode:    shortCode,
		OriginalURL:  originalURL,
		RedirectCode: redirectCode,
	}

	if err := repository.DB.Create(link).Error; err != nil {
		logging.Logger.Error("Failed to create link",
			zap.String("short_code", shortCode),
			zap.Error(err))
		return nil, apperrors.SystemErrorDefault()
	}
	return link, nil
}

// generateShortCode 基于 shortuuid 截断生成短码，碰撞时重试
func generateShortCode() (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code := strings.ToLower(shortuuid.New()[:generatedCodeLength])

		var existing model.Link
		err := repository.DB.Where("short_code = ?", code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return code, nil
		}
		if err != nil {
			logging.Logger.Error("Failed to check generated short code", zap.Error(err))
			return "", apperrors.SystemErrorDefault()
		}
	}
	return "", apperrors.SystemError("error.shortcode_generation_failed")
}

// ListLinks 分页查询短链列表
func ListLinks(ctx context.Context, page, size int, shortCode string) (*response.PageResponse[model.Link], error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10 // 默认每页10条，最大100条
	}

	db := repository.DB.Model(&model.Link{})
	if shortCode != "" {
		db = db.Where("short_code LIKE ?", "%"+shortCode+"%")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		logging.Logger.Error("Failed to count links", zap.Error(err))
		return nil, apperrors.SystemErrorDefault()
	}

	if total == 0 {
		return &response.PageResponse[model.Link]{
			Page:      page,
			Size:      size,
			Total:     0,
			TotalPage: 0,
			List:      []model.Link{},
		}, nil
	}

	var links []model.Link
	if err := db.
		Limit(size).
		Offset((page - 1) * size).
		Order("id DESC").
		Find(&links).Error; err != nil {
		logging.Logger.Error("Failed to list links", zap.Error(err))
		return nil, apperrors.SystemErrorDefault()
	}

	totalPage := (int(total) + size - 1) / size

	return &response.PageResponse[model.Link]{
		Page:      page,
		Size:      size,
		Total:     int(total),
		TotalPage: totalPage,
		List:      links,
	}, nil
}

// GetLink 按 ID 查询短链
func GetLink(id uint) (*model.Link, error) {
	var link model.Link
	if err := repository.DB.First(&link, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.LinkNotFoundError()
		}
		logging.Logger.Error("Failed to load link", zap.Uint("id", id), zap.Error(err))
		return nil, apperrors.SystemErrorDefault()
	}
	return &link, nil
}

// DeleteLink 删除短链并级联清除它的所有点击桶、维度行和缓存
func DeleteLink(ctx context.Context, id uint) error {
	var link model.Link
	if err := repository.DB.First(&link, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.LinkNotFoundError()
		}
		logging.Logger.Error("Failed to load link for delete", zap.Uint("id", id), zap.Error(err))
		return apperrors.SystemErrorDefault()
	}

	err := repository.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&link).Error; err != nil {
			return err
		}
		if err := tx.Where("link_id = ?", link.ID).Delete(&model.ClickBucket{}).Error; err != nil {
			return err
		}
		return tx.Where("link_id = ?", link.ID).Delete(&model.BucketDimension{}).Error
	})
	if err != nil {
		logging.Logger.Error("Failed to delete link",
			zap.Uint("id", id),
			zap.Error(err))
		return apperrors.SystemErrorDefault()
	}

	evictLinkCache(link.ShortCode)
	return nil
}

// FindLinkByShortCode 按短码查找链接，带 Redis 缓存和空值缓存。
// Redis 未配置时直接退化为数据库查询。
// 返回 LinkNotFoundError 或 SystemError，供重定向路径区分 404 和 500。
func FindLinkByShortCode(shortCode string) (*model.Link, error) {
	if err := utils.ValidateShortCode(shortCode); err != nil {
		return nil, apperrors.LinkNotFoundError()
	}

	if link, found, hit := cacheGetLink(shortCode); hit {
		if !found {
			return nil, apperrors.LinkNotFoundError()
		}
		return link, nil
	}

	var link model.Link
	if err := repository.DB.Where("short_code = ?", shortCode).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 缓存空值，防止缓存穿透
			cacheSetLink(shortCode, nil)
			return nil, apperrors.LinkNotFoundError()
		}
		logging.Logger.Error("Failed to query link by short code",
			zap.String("short_code", shortCode),
			zap.Error(err))
		return nil, apperrors.SystemErrorDefault()
	}

	cacheSetLink(shortCode, &link)
	return &link, nil
}

// cacheGetLink 返回 (link, found, hit)；hit 为 false 表示缓存不可用或未命中
func cacheGetLink(shortCode string) (*model.Link, bool, bool) {
	if repository.RedisPool == nil {
		return nil, false, false
	}

	conn := repository.RedisPool.Get()
	defer closeRedisConn(conn)

	cacheKey := constant.GetShortCodeKey(shortCode)
	cachedValue, err := redis.Bytes(conn.Do("GET", cacheKey))
	if err != nil {
		if err != redis.ErrNil {
			logging.Logger.Warn("Error getting from Redis",
				zap.String("cache_key", cacheKey),
				zap.Error(err))
		}
		return nil, false, false
	}

	if len(cachedValue) == 0 {
		// 命中空值缓存
		return nil, false, true
	}

	var link model.Link
	if err := json.Unmarshal(cachedValue, &link); err != nil {
		logging.Logger.Warn("Failed to unmarshal cached link",
			zap.String("cache_key", cacheKey),
			zap.Error(err))
		return nil, false, false
	}
	return &link, true, true
}

func cacheSetLink(shortCode string, link *model.Link) {
	if repository.RedisPool == nil {
		return
	}

	conn := repository.RedisPool.Get()
	defer closeRedisConn(conn)

	cacheKey := constant.GetShortCodeKey(shortCode)

	var value []byte
	ttl := constant.EmptyLinkCacheTTL
	if link != nil {
		value, _ = json.Marshal(link)
		ttl = constant.LinkCacheTTL
	}

	if _, err := conn.Do("SET", cacheKey, value, "EX", ttl); err != nil {
		logging.Logger.Error("Failed to set link cache",
			zap.String("cache_key", cacheKey),
			zap.Error(err))
	}
}

func evictLinkCache(shortCode string) {
	if repository.RedisPool == nil {
		return
	}

	conn := repository.RedisPool.Get()
	defer closeRedisConn(conn)

	cacheKey := constant.GetShortCodeKey(shortCode)
	if _, err := conn.Do("DEL", cacheKey); err != nil {
		logging.Logger.Warn("Failed to evict link cache",
			zap.String("cache_key", cacheKey),
			zap.Error(err))
	}
}

func closeRedisConn(conn redis.Conn) {
	if err := conn.Close(); err != nil {
		logging.Logger.Error("Failed to close Redis connection",
			zap.Error(err))
	}
}
