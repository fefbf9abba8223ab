package middleware

import (
	"errors"
	"net/http"

	"github.com/Alfthrpy/shortener-api/internal/apperrors"
	"github.com/Alfthrpy/shortener-api/internal/i18n"
	"github.com/Alfthrpy/shortener-api/response"
	"github.com/gin-gonic/gin"
)

// GlobalErrorMiddleware 全局错误中间件，把 AppError 映射为统一的错误响应。
// 消息是 i18n key 时会先做本地化。
func GlobalErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			for _, err := range c.Errors {
				var appErr *apperrors.AppError
				if errors.As(err.Err, &appErr) {
					localized := *appErr
					localized.Message = i18n.T(c.Request.Context(), appErr.Message, nil)
					c.AbortWithStatusJSON(localized.Code, response.ErrorFromAppError(&localized))
					return
				}
			}

			// 默认处理未定义的错误
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error("Internal server error"))
			return
		}
	}
}
