package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the comma-separated origins, falling back to the local
// development frontend when none are given.
func CORS(origins string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = ParseOrigins(origins)
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AddAllowHeaders(CorrelationIDHeader)
	corsConfig.AddExposeHeaders(CorrelationIDHeader, "X-Trace-ID")
	corsConfig.MaxAge = 24 * time.Hour
	return cors.New(corsConfig)
}

// ParseOrigins splits and trims a comma-separated origin list.
func ParseOrigins(origins string) []string {
	var out []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"http://localhost:3000"}
	}
	return out
}
