package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Alfthrpy/shortener-api/pkg/logging"
	"github.com/stretchr/testify/assert"
)

func TestGeoResolverSuccess(t *testing.T) {
	logging.InitTestLogger()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/203.0.113.7", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","country":"Indonesia","regionName":"Jakarta","city":"Jakarta"}`))
	}))
	defer server.Close()

	resolver := NewGeoResolver(server.URL, 2*time.Second)
	loc := resolver.Resolve(context.Background(), "203.0.113.7")

	assert.Equal(t, "Indonesia", loc.Country)
	assert.Equal(t, "Jakarta", loc.Region)
	assert.Equal(t, "Jakarta", loc.City)
}

func TestGeoResolverPartialResponse(t *testing.T) {
	logging.InitTestLogger()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","country":"Indonesia"}`))
	}))
	defer server.Close()

	resolver := NewGeoResolver(server.URL, 2*time.Second)
	loc := resolver.Resolve(context.Background(), "203.0.113.7")

	// 缺失字段逐个回退 Unknown，而不是整体失败
	assert.Equal(t, "Indonesia", loc.Country)
	assert.Equal(t, UnknownValue, loc.Region)
	assert.Equal(t, UnknownValue, loc.City)
}

func TestGeoResolverAPIFailure(t *testing.T) {
	logging.InitTestLogger()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"fail"}`))
	}))
	defer server.Close()

	resolver := NewGeoResolver(server.URL, 2*time.Second)
	loc := resolver.Resolve(context.Background(), "127.0.0.1")

	assert.Equal(t, UnknownValue, loc.Country)
	assert.Equal(t, UnknownValue, loc.City)
}

// 网络错误绝不向调用方抛出，解析结果回退 Unknown
func TestGeoResolverUnreachable(t *testing.T) {
	logging.InitTestLogger()

	resolver := NewGeoResolver("http://127.0.0.1:1", 200*time.Millisecond)
	loc := resolver.Resolve(context.Background(), "203.0.113.7")

	assert.Equal(t, UnknownValue, loc.Country)
	assert.Equal(t, UnknownValue, loc.Region)
	assert.Equal(t, UnknownValue, loc.City)
}

func TestGeoResolverNilReceiver(t *testing.T) {
	var resolver *GeoResolver
	loc := resolver.Resolve(context.Background(), "203.0.113.7")
	assert.Equal(t, UnknownValue, loc.Country)
}
