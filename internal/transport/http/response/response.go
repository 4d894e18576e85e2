package response

import "github.com/gin-gonic/gin"

// OK writes the payload as-is with a 200 status.
func OK(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}

// Error writes the failure envelope shared by every non-streaming endpoint.
func Error(c *gin.Context, httpStatus int, detail string) {
	c.JSON(httpStatus, gin.H{
		"success": false,
		"detail":  detail,
	})
}
