package middleware

import "github.com/gin-gonic/gin"

const HeaderAPIVersion = "X-API-Version"

// APIVersion stamps responses of a versioned route group.
func APIVersion(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("api_version", version)
		c.Header(HeaderAPIVersion, version)
		c.Next()
	}
}
