package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics holds process-wide counters. All fields are updated atomically.
type Metrics struct {
	RequestsTotal      atomic.Uint64
	RequestsInProgress atomic.Int64
	RequestsFailed     atomic.Uint64
	AnalysesTotal      atomic.Uint64
	AnalysesFailed     atomic.Uint64
	FollowupsTotal     atomic.Uint64
	FollowupsFailed    atomic.Uint64
	StartTime          time.Time
}

var globalMetrics = &Metrics{StartTime: time.Now()}

// RecordAnalysis counts one analysis and whether it failed
func RecordAnalysis(failed bool) {
	globalMetrics.AnalysesTotal.Add(1)
	if failed {
		globalMetrics.AnalysesFailed.Add(1)
	}
}

// RecordFollowup counts one follow-up answer and whether it failed
func RecordFollowup(failed bool) {
	globalMetrics.FollowupsTotal.Add(1)
	if failed {
		globalMetrics.FollowupsFailed.Add(1)
	}
}

// GetMetrics returns a point-in-time copy of the counters
func GetMetrics() map[string]any {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]any{
		"requests_total":       globalMetrics.RequestsTotal.Load(),
		"requests_in_progress": globalMetrics.RequestsInProgress.Load(),
		"requests_failed":      globalMetrics.RequestsFailed.Load(),
		"analyses_total":       globalMetrics.AnalysesTotal.Load(),
		"analyses_failed":      globalMetrics.AnalysesFailed.Load(),
		"followups_total":      globalMetrics.FollowupsTotal.Load(),
		"followups_failed":     globalMetrics.FollowupsFailed.Load(),
		"uptime_seconds":       time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]any{
			"alloc_bytes": m.Alloc,
			"sys_bytes":   m.Sys,
			"num_gc":      m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware counts requests; 4xx and 5xx responses count as failed
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		globalMetrics.RequestsTotal.Add(1)
		globalMetrics.RequestsInProgress.Add(1)
		defer globalMetrics.RequestsInProgress.Add(-1)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 400 {
			globalMetrics.RequestsFailed.Add(1)
		}
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetMetrics())
}
