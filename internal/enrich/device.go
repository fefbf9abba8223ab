package enrich

import (
	"github.com/mileusna/useragent"
)

// Device 从 User-Agent 解析出的设备信息
type Device struct {
	Browser string
	OS      string
	Type    string // desktop / mobile / tablet / bot
}

// ParseDevice 解析 User-Agent，纯函数、永不失败，缺失字段回退 Unknown
func ParseDevice(uaString string) Device {
	if uaString == "" {
		return Device{Browser: UnknownValue, OS: UnknownValue, Type: UnknownValue}
	}

	ua := useragent.Parse(uaString)

	deviceType := UnknownValue
	switch {
	case ua.Bot:
		deviceType = "bot"
	case ua.Mobile:
		deviceType = "mobile"
	case ua.Tablet:
		deviceType = "tablet"
	case ua.Desktop:
		deviceType = "desktop"
	}

	return Device{
		Browser: orUnknown(ua.Name),
		OS:      orUnknown(ua.OS),
		Type:    deviceType,
	}
}
