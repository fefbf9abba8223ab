package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDeviceDesktop(t *testing.T) {
	ua := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36"

	device := ParseDevice(ua)
	assert.Equal(t, "Chrome", device.Browser)
	assert.Equal(t, "Windows", device.OS)
	assert.Equal(t, "desktop", device.Type)
}

func TestParseDeviceMobile(t *testing.T) {
	ua := "Mozilla/5.0 (iPhone; CPU iPhone OS 14_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Mobile/15E148 Safari/604.1"

	device := ParseDevice(ua)
	assert.Equal(t, "iOS", device.OS)
	assert.Equal(t, "mobile", device.Type)
}

// 解析永不失败：空串和垃圾输入都回退 Unknown
func TestParseDeviceNeverFails(t *testing.T) {
	device := ParseDevice("")
	assert.Equal(t, UnknownValue, device.Browser)
	assert.Equal(t, UnknownValue, device.OS)
	assert.Equal(t, UnknownValue, device.Type)

	device = ParseDevice("definitely-not-a-user-agent")
	assert.Equal(t, UnknownValue, device.OS)
}
