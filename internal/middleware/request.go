package middleware

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDHeader   = "X-Request-Id"
	ProcessTimeHeader = "X-Process-Time"

	requestIDKey    = "request_id"
	maxRequestIDLen = 128
)

// RequestID tags each request with an id, reusing a sane incoming one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestIDFrom returns the id assigned by the RequestID middleware.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// timedWriter stamps the elapsed time just before headers go out.
type timedWriter struct {
	gin.ResponseWriter
	start   time.Time
	stamped bool
}

func (w *timedWriter) stamp() {
	if w.stamped {
		return
	}
	w.stamped = true
	elapsed := time.Since(w.start).Seconds()
	w.Header().Set(ProcessTimeHeader, strconv.FormatFloat(elapsed, 'f', 6, 64))
}

func (w *timedWriter) WriteHeaderNow() {
	w.stamp()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *timedWriter) Write(b []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(b)
}

func (w *timedWriter) WriteString(s string) (int, error) {
	w.stamp()
	return w.ResponseWriter.WriteString(s)
}

// ProcessTime reports handler latency in seconds in X-Process-Time.
func ProcessTime() gin.HandlerFunc {
	return func(c *gin.Context) {
		tw := &timedWriter{ResponseWriter: c.Writer, start: time.Now()}
		c.Writer = tw
		c.Next()
		if !tw.Written() {
			tw.stamp()
		}
	}
}

// Recovery turns panics into a generic 500 and logs the panic value.
func Recovery(out io.Writer) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(out, func(c *gin.Context, recovered any) {
		logrus.WithFields(logrus.Fields{
			"request_id": RequestIDFrom(c),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"panic":      recovered,
		}).Error("panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}
