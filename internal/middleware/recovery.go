package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mediconnect/clinical-api/pkg/httputil"
)

// Recovery turns a handler panic into a 500 envelope naming the request id,
// so a clinician's report can be matched to the log line.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			// The client went away; net/http handles this one quietly.
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			rid := c.GetString(ContextRequestID)
			log.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("method", c.Request.Method).
				Str("route", c.FullPath()).
				Str("request_id", rid).
				Msg("Request panic recovered")

			if c.Writer.Written() {
				c.Abort()
				return
			}
			msg := "internal server error"
			if rid != "" {
				msg = fmt.Sprintf("internal server error (request %s)", rid)
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, httputil.NewErrorResponse(msg))
		}()
		c.Next()
	}
}
