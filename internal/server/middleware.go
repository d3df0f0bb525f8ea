package server

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/anphuc-nienso/internal/common"
)

// requestLogger attaches a request-scoped logger and logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := chimw.GetReqID(r.Context())
		logger := s.logger.With("request_id", reqID)
		ctx := common.WithRequestID(r.Context(), reqID)
		ctx = common.WithLogger(ctx, logger)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// locale negotiates the response language from Accept-Language.
func (s *Server) locale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := s.i18n.negotiate(r.Header.Get("Accept-Language"), s.cfg.DefaultLocale)
		w.Header().Set("Content-Language", lang)
		next.ServeHTTP(w, r.WithContext(common.WithLocale(r.Context(), lang)))
	})
}

// limitOCR rejects OCR uploads beyond the configured rate with 429.
func (s *Server) limitOCR(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.ocrLimiter != nil && !s.ocrLimiter.Allow() {
			w.Header().Set("Retry-After", "60")
			s.writeError(w, r, status.Error(codes.ResourceExhausted, "too many requests"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
