package utils

import "strings"

const (
	GameOrigin = "https://banana.carv.io"

	defaultMobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1 Edg/126.0.0.0"
)

// NormalizeMobileUserAgent 把 UA 规范为手机端风格；入参为空或不像手机 UA 时返回默认值。
func NormalizeMobileUserAgent(ua string) string {
	v := strings.TrimSpace(ua)
	if v == "" {
		return defaultMobileUserAgent
	}
	if looksLikeMobileUA(v) {
		return v
	}
	return defaultMobileUserAgent
}

func looksLikeMobileUA(ua string) bool {
	s := strings.ToLower(ua)
	if strings.Contains(s, "mobile") {
		return true
	}
	if strings.Contains(s, "iphone") || strings.Contains(s, "android") || strings.Contains(s, "ipad") {
		return true
	}
	return false
}

// BrowserHeaders is the fixed header set the game web app sends.
// User-Agent, Authorization, Cookie and request-time are added per client/request.
func BrowserHeaders() map[string]string {
	return map[string]string{
		"Accept":             "application/json, text/plain, */*",
		"Accept-Language":    "zh-CN,zh;q=0.9,en;q=0.8,en-GB;q=0.7,en-US;q=0.6",
		"Cache-Control":      "no-cache",
		"Content-Type":       "application/json",
		"Pragma":             "no-cache",
		"Referer":            GameOrigin + "/",
		"Origin":             GameOrigin,
		"Priority":           "u=1, i",
		"Sec-Ch-Ua":          `""`,
		"Sec-Ch-Ua-Mobile":   "?1",
		"Sec-Ch-Ua-Platform": `""`,
		"Sec-Fetch-Dest":     "empty",
		"Sec-Fetch-Mode":     "cors",
		"Sec-Fetch-Site":     "same-origin",
		"X-App-Id":           "carv",
		"Referrer-Policy":    "strict-origin-when-cross-origin",
	}
}
