package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tasklight/tasklight/internal/apierr"
)

// respondError normalizes any error to the API error envelope. Unknown
// errors become a generic 500 so internals never leak.
func respondError(c *gin.Context, err error) {
	e := apierr.From(err)
	c.JSON(e.Status, gin.H{"error": gin.H{"code": string(e.Code), "message": e.Message}})
}
