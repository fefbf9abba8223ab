package monitor

import (
	"net/http"
	"sync"
	"time"

	"github.com/Alfthrpy/shortener-api/internal/model"
	"github.com/Alfthrpy/shortener-api/internal/repository"
	"github.com/Alfthrpy/shortener-api/pkg/logging"
	"go.uber.org/zap"
)

// URLMonitor 周期性探测目标 URL 的可达性，只在状态翻转时告警。
// 由 cron 调度，见 serve 命令。
type URLMonitor struct {
	knownStates map[uint]bool // 上一轮的可达状态
	mu          sync.Mutex
	httpClient  *http.Client
}

func NewURLMonitor(timeout time.Duration) *URLMonitor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &URLMonitor{
		knownStates: make(map[uint]bool),
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// CheckAll 对所有短链的目标 URL 做一次状态检查
func (m *URLMonitor) CheckAll() {
	var links []model.Link
	if err := repository.DB.Find(&links).Error; err != nil {
		logging.Logger.Error("Monitor failed to load links", zap.Error(err))
		return
	}

	for i := range links {
		accessible := m.isAccessible(links[i].OriginalURL)

		m.mu.Lock()
		previous, seen := m.knownStates[links[i].ID]
		m.knownStates[links[i].ID] = accessible
		m.mu.Unlock()

		if seen && previous != accessible {
			logging.Logger.Warn("Destination URL state changed",
				zap.Uint("link_id", links[i].ID),
				zap.String("short_code", links[i].ShortCode),
				zap.String("url", links[i].OriginalURL),
				zap.Bool("accessible", accessible))
		}
	}
}

func (m *URLMonitor) isAccessible(url string) bool {
	resp, err := m.httpClient.Head(url)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}
