package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/Alfthrpy/shortener-api/internal/apperrors"
	"github.com/Alfthrpy/shortener-api/internal/dto"
	"github.com/Alfthrpy/shortener-api/internal/i18n"
	"github.com/Alfthrpy/shortener-api/internal/service"
	"github.com/Alfthrpy/shortener-api/response"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Recorder 全局点击记录器，serve 启动时注入。
// 为 nil 时（部分单测）重定向仍然工作，只是不记录点击。
var Recorder *service.ClickRecorder

// RedirectHandler 短码重定向。点击事件在响应前入队、响应后异步落库，
// 统计失败或变慢都不影响重定向本身。
func RedirectHandler(c *gin.Context) {
	shortCode := c.Param("shortCode")

	link, err := service.FindLinkByShortCode(shortCode)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == http.StatusNotFound {
			// 未注册的短码不产生任何点击桶
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	if Recorder != nil {
		Recorder.Record(service.ClickEvent{
			LinkID:    link.ID,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			At:        time.Now(),
		})
	}

	if link.RedirectCode == http.StatusFound {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	}
	c.Redirect(link.RedirectCode, link.OriginalURL)
}

// CreateLinkHandler 创建短链
func CreateLinkHandler(c *gin.Context) {
	var req dto.CreateLinkRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Warn("Request body binding failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		// 校验失败时优先用字段上的 msg 标签作为提示
		if validationErrs, ok := err.(validator.ValidationErrors); ok {
			for _, e := range validationErrs {
				field, found := reflect.TypeOf(req).FieldByName(e.Field())
				if !found {
					break
				}
				if customMsg := field.Tag.Get("msg"); customMsg != "" {
					_ = c.Error(apperrors.InvalidRequestError(customMsg))
					return
				}
			}
		}
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	link, err := service.CreateLink(c.Request.Context(), req)
	if err != nil {
		zap.L().Warn("Link creation failed",
			zap.Error(err),
			zap.String("short_code", req.ShortCode),
		)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, response.OK(link, i18n.T(c.Request.Context(), "link_created", nil)))
}

// ListLinksHandler 分页查询短链列表
func ListLinksHandler(c *gin.Context) {
	pageStr := c.DefaultQuery("page", "1")
	sizeStr := c.DefaultQuery("size", "10")
	shortCode := c.Query("shortCode")

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		_ = c.Error(apperrors.InvalidRequestError("error.page_invalid"))
		return
	}

	size, err := strconv.Atoi(sizeStr)
	if err != nil || size < 1 || size > 100 {
		_ = c.Error(apperrors.InvalidRequestError("error.size_invalid"))
		return
	}

	pageResp, err := service.ListLinks(c.Request.Context(), page, size, shortCode)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(pageResp, "success"))
}

// GetLinkHandler 按 ID 查询短链详情
func GetLinkHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	link, err := service.GetLink(id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(link, "success"))
}

// DeleteLinkHandler 删除短链，并级联清除其点击统计
func DeleteLinkHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := service.DeleteLink(c.Request.Context(), id); err != nil {
		zap.L().Warn("Link deletion failed",
			zap.Error(err),
			zap.Uint("id", id),
		)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(struct{}{}, i18n.T(c.Request.Context(), "link_deleted", nil)))
}

func parseIDParam(c *gin.Context) (uint, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id < 1 {
		_ = c.Error(apperrors.InvalidRequestError("error.id_invalid"))
		return 0, false
	}
	return uint(id), true
}
