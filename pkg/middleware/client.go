package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const maxDeviceIDLength = 128

// ClientKey derives the rate-limit key for a request. Proxy headers are
// consulted in a fixed order so the same client always lands in the same
// bucket: CF-Connecting-IP, then the first hop of X-Forwarded-For, then
// X-Real-IP. Requests with none of them share the "unknown" bucket.
func ClientKey(c *gin.Context) string {
	if v := strings.TrimSpace(c.GetHeader("CF-Connecting-IP")); v != "" {
		return v
	}
	if v := c.GetHeader("X-Forwarded-For"); v != "" {
		first := strings.TrimSpace(strings.SplitN(v, ",", 2)[0])
		if first != "" {
			return first
		}
	}
	if v := strings.TrimSpace(c.GetHeader("X-Real-IP")); v != "" {
		return v
	}
	return "unknown"
}

// DeviceID reads the X-Device-Id header, trimmed and capped. Absent or blank
// headers yield "unknown".
func DeviceID(c *gin.Context) string {
	v := strings.TrimSpace(c.GetHeader("X-Device-Id"))
	if v == "" {
		return "unknown"
	}
	if len(v) > maxDeviceIDLength {
		v = v[:maxDeviceIDLength]
	}
	return v
}
