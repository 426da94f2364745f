package middleware

import (
	"net/http"
	"strconv"
	"time"

	"tweetflow/pkg/metrics"
)

// MetricsMiddleware records request counts and latency per route pattern, so
// /api/tweets/1 and /api/tweets/2 share a series.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		rw := wrap(w)
		next.ServeHTTP(rw, r)

		metrics.RecordHttpRequest(
			r.Method,
			endpoint(r),
			strconv.Itoa(rw.statusCode),
			time.Since(startTime),
		)
	})
}

// endpoint prefers the matched ServeMux pattern. It is only set once the mux
// has routed the request, which is after this middleware returns from next.
func endpoint(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func wrap(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
