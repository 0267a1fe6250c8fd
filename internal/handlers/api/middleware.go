package api

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"

	dnderr "github.com/KirkDiggler/dm-table/internal/errors"
	"github.com/gin-gonic/gin"
)

// RecoverMiddleware recovers from handler panics and answers with a 500
func RecoverMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Printf("PANIC in %s %s: %v\nStack trace:\n%s", c.Request.Method, c.FullPath(), recovered, debug.Stack())
		respondWithError(c, dnderr.Internalf("an unexpected error occurred: %v", recovered))
	})
}

// statusFor maps application error codes onto HTTP status codes
func statusFor(code dnderr.Code) int {
	switch code {
	case dnderr.CodeInvalidArgument, dnderr.CodeNoActiveCombat:
		return http.StatusBadRequest
	case dnderr.CodeNotFound:
		return http.StatusNotFound
	case dnderr.CodeAlreadyExists, dnderr.CodeSessionPaused, dnderr.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError writes {"error", "code"} and aborts the chain. Server side
// failures keep their detail in the log only.
func respondWithError(c *gin.Context, err error) {
	code := dnderr.GetCode(err)
	status := statusFor(code)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		log.Printf("API: %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		if code == dnderr.CodeUnknown {
			code = dnderr.CodeStorageFailure
		}
		message = fmt.Sprintf("%s failed, nothing was changed", c.Request.URL.Path)
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}

// bindJSON decodes the body and answers 400 on failure
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondWithError(c, dnderr.InvalidArgumentf("invalid request: %v", err))
		return false
	}
	return true
}
