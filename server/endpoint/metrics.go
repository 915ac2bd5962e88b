package endpoint

import (
	"net/http"
	"runtime"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// Streams counts open streamed responses.
type Streams struct {
	open  atomic.Int64
	total atomic.Int64
}

// Begin records a stream start and returns its end func.
func (s *Streams) Begin() func() {
	s.open.Add(1)
	s.total.Add(1)
	return func() { s.open.Add(-1) }
}

// Open returns the number of streams in progress.
func (s *Streams) Open() int64 { return s.open.Load() }

// Total returns the number of streams ever started.
func (s *Streams) Total() int64 { return s.total.Load() }

// Metrics reports runtime memory, goroutine and stream counters.
func Metrics(streams *Streams) gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		body := gin.H{
			"goroutines": runtime.NumGoroutine(),
			"memory": gin.H{
				"alloc_mb": m.Alloc / 1024 / 1024,
				"sys_mb":   m.Sys / 1024 / 1024,
				"gc_runs":  m.NumGC,
			},
		}
		if streams != nil {
			body["streams"] = gin.H{"open": streams.Open(), "total": streams.Total()}
		}
		c.JSON(http.StatusOK, body)
	}
}
