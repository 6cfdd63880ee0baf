package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/nxp-qmc/qmc2g-core/internal/logpipeline"
	"github.com/nxp-qmc/qmc2g-core/internal/restapi/middleware"
)

// statusClass buckets an HTTP status into its 4xx/5xx class, matching
// the webservice error logging task's "per-status-class" counting.
func statusClass(status int) int {
	return (status / 100) * 100
}

// errorCounter accumulates REST error responses per status class and
// flushes an ErrorCount log entry every Interval, carrying the
// accumulated count and the first user that triggered it in the
// window, ported from the webservice logging task described in spec §7
// ("a webservice logging task that emits an ErrorCount log every
// WEBSERVICE_HTTPD_ERROR_LOG_INTERVAL (≈ 60 s) with the accumulated
// count and the first user that triggered it in the window").
type errorCounter struct {
	mu       sync.Mutex
	counts   map[int]uint16
	firstUID map[int]uint16
	log      *logpipeline.Service
	interval time.Duration
}

func newErrorCounter(log *logpipeline.Service, interval time.Duration) *errorCounter {
	return &errorCounter{
		counts:   make(map[int]uint16),
		firstUID: make(map[int]uint16),
		log:      log,
		interval: interval,
	}
}

func (c *errorCounter) record(status int, uid uint16) {
	if status < 400 {
		return
	}
	class := statusClass(status)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts[class] == 0 {
		c.firstUID[class] = uid
	}
	c.counts[class]++
}

// Run flushes accumulated counts every interval until ctx is done.
func (c *errorCounter) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.flush()
		}
	}
}

func (c *errorCounter) flush() {
	c.mu.Lock()
	counts := c.counts
	firstUID := c.firstUID
	c.counts = make(map[int]uint16)
	c.firstUID = make(map[int]uint16)
	c.mu.Unlock()

	if c.log == nil {
		return
	}
	for class, count := range counts {
		_ = c.log.QueueEntry(logpipeline.Record{
			Data: logpipeline.ErrorCountData{
				Source:    logpipeline.SourceWebservice,
				Category:  logpipeline.CategoryGeneral,
				ErrorCode: uint16(class),
				User:      firstUID[class],
				Count:     count,
			},
		}, false)
	}
}

// recordError attributes a written error response to the acting
// session's uid (0 if the request is unauthenticated) and feeds it into
// the request's errorCounter, set by the errorLog middleware.
func recordError(r *http.Request, status int) {
	counter, ok := r.Context().Value(errorCounterContextKey).(*errorCounter)
	if !ok {
		return
	}
	var uid uint16
	if sess, ok := middleware.GetSession(r.Context()); ok {
		uid = uint16(sess.UID)
	}
	counter.record(status, uid)
}

type errorCounterContextKeyType struct{}

var errorCounterContextKey = errorCounterContextKeyType{}

// withErrorCounter attaches counter to every request's context so
// handlers and middleware can call recordError.
func withErrorCounter(counter *errorCounter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), errorCounterContextKey, counter)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
