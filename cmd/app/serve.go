package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Alfthrpy/shortener-api/internal/enrich"
	"github.com/Alfthrpy/shortener-api/internal/handler"
	"github.com/Alfthrpy/shortener-api/internal/i18n"
	"github.com/Alfthrpy/shortener-api/internal/middleware"
	"github.com/Alfthrpy/shortener-api/internal/monitor"
	"github.com/Alfthrpy/shortener-api/internal/repository"
	"github.com/Alfthrpy/shortener-api/internal/service"
	"github.com/Alfthrpy/shortener-api/pkg/logging"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() {
	logging.InitLoggerFromConfig()
	logging.Logger.Info("Application started")

	repository.InitDB(logging.Logger, logging.AtomicLevel)
	repository.InitRedis()

	// 初始化 i18n（加载 TOML 文件）
	bundle, err := i18n.InitI18n([]string{
		"./i18n/en.toml",
		"./i18n/id.toml",
	}, "en")
	if err != nil {
		logging.Logger.Fatal("Failed to init i18n", zap.Error(err))
	}

	// 点击记录器：地理解析超时必须有上界，worker 在响应之后异步落库
	geo := enrich.NewGeoResolver(
		viper.GetString("geo.endpoint"),
		time.Duration(viper.GetInt("geo.timeout_ms"))*time.Millisecond,
	)
	handler.Recorder = service.NewClickRecorder(
		viper.GetInt("click.buffer"),
		viper.GetInt("click.workers"),
		geo,
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.GlobalErrorMiddleware())
	r.Use(middleware.ZapGinLogger(logging.Logger))
	r.Use(middleware.CorsMiddleware())
	r.Use(middleware.I18nMiddleware(bundle))

	api := r.Group("/api")
	{
		api.POST("/links", handler.CreateLinkHandler)
		api.GET("/links", handler.ListLinksHandler)
		api.GET("/links/:id", handler.GetLinkHandler)
		api.DELETE("/links/:id", handler.DeleteLinkHandler)

		api.GET("/stats/:linkId", handler.GetStatsHandler)
	}

	// 重定向路由挂在根路径
	r.GET("/:shortCode", handler.RedirectHandler)

	// 定时任务：目标 URL 健康检查
	c := cron.New()
	urlMonitor := monitor.NewURLMonitor(time.Duration(viper.GetInt("monitor.timeout_ms")) * time.Millisecond)
	spec := viper.GetString("monitor.cron")
	if spec == "" {
		spec = "*/10 * * * *"
	}
	if _, addErr := c.AddFunc(spec, urlMonitor.CheckAll); addErr != nil {
		logging.Logger.Fatal("Failed to schedule monitor job", zap.Error(addErr))
	}
	c.Start()

	startServer(r)

	// HTTP 已停止，清空点击事件积压再退出
	handler.Recorder.Stop()
	c.Stop()
	logging.Logger.Info("Server exiting")
}

func startServer(r *gin.Engine) {
	addr := viper.GetString("server.addr")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logging.Logger.Info("Server is running on " + addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Error("Server forced to shutdown", zap.Error(err))
	}
}
