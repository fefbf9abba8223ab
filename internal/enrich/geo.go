package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/Alfthrpy/shortener-api/pkg/logging"
	"github.com/imroc/req/v3"
	"go.uber.org/zap"
)

const UnknownValue = "Unknown"

// Location 粗粒度地理位置，字段缺失时为 Unknown
type Location struct {
	Country string
	Region  string
	City    string
}

// ipAPIResponse ip-api.com 的 JSON 响应
type ipAPIResponse struct {
	Status     string `json:"status"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
}

// GeoResolver 通过外部 HTTP 接口把客户端 IP 解析成粗粒度位置。
// 超时受限，任何失败都回退到 Unknown，绝不向调用方抛错。
type GeoResolver struct {
	client   *req.Client
	endpoint string
}

// NewGeoResolver endpoint 形如 http://ip-api.com/json，timeout 必须有上界，
// 否则地理解析的延迟会拖慢点击落库
func NewGeoResolver(endpoint string, timeout time.Duration) *GeoResolver {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &GeoResolver{
		client:   req.C().SetTimeout(timeout).SetUserAgent("Golang"),
		endpoint: endpoint,
	}
}

// Resolve 解析 IP，失败时返回全 Unknown 的 Location
func (g *GeoResolver) Resolve(ctx context.Context, ip string) Location {
	unknown := Location{Country: UnknownValue, Region: UnknownValue, City: UnknownValue}
	if g == nil || g.endpoint == "" || ip == "" {
		return unknown
	}

	var body ipAPIResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetSuccessResult(&body).
		Get(fmt.Sprintf("%s/%s", g.endpoint, ip))
	if err != nil {
		logging.Logger.Warn("Geo lookup failed",
			zap.String("ip", ip),
			zap.Error(err))
		return unknown
	}
	if !resp.IsSuccessState() || body.Status == "fail" {
		logging.Logger.Warn("Geo lookup rejected",
			zap.String("ip", ip),
			zap.Int("http_status", resp.StatusCode),
			zap.String("api_status", body.Status))
		return unknown
	}

	return Location{
		Country: orUnknown(body.Country),
		Region:  orUnknown(body.RegionName),
		City:    orUnknown(body.City),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return UnknownValue
	}
	return s
}
