package dto

import (
	"github.com/Alfthrpy/shortener-api/pkg/utils"
	"github.com/gin-gonic/gin"
)

// CreateLinkRequest 用于创建短链的请求参数
type CreateLinkRequest struct {
	Title       string `json:"title" binding:"required,max=255" msg:"title is required"`
	OriginalURL string `json:"original_url" binding:"required" msg:"original_url is required"`
	// 可选，留空时服务端自动生成
	ShortCode    string `json:"short_code" binding:"omitempty,max=32" msg:"short_code is too long"`
	RedirectCode int    `json:"redirect_code" binding:"omitempty,oneof=301 302" msg:"redirect_code must be 301 or 302"` // 仅允许301/302
}

// Validate 自定义验证逻辑
func (r *CreateLinkRequest) Validate() error {
	// OriginalURL 在 Normalize 之后再做格式校验，这里只查长度等硬性约束
	if err := utils.ValidateTargetURL(utils.NormalizeTargetURL(r.OriginalURL)); err != nil {
		return gin.Error{
			Err:  err,
			Type: gin.ErrorTypeBind,
		}
	}

	if r.ShortCode != "" {
		if err := utils.ValidateShortCode(r.ShortCode); err != nil {
			return gin.Error{
				Err:  err,
				Type: gin.ErrorTypeBind,
			}
		}
	}

	return nil
}
