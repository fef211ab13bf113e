package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog/log"
)

const defaultRateLimitPerMinute = 120

type RouterConfig struct {
	Tides     LambdaHandler
	Stations  LambdaHandler
	Calendar  LambdaHandler
	Guidance  LambdaHandler
	Locations LambdaHandler
	// Live is only served when a refresh controller is running.
	Live LambdaHandler

	RateLimitPerMinute int
}

// NewRouter serves the Lambda handlers over plain HTTP for local use.
func NewRouter(cfg RouterConfig) *chi.Mux {
	limit := cfg.RateLimitPerMinute
	if limit <= 0 {
		limit = defaultRateLimitPerMinute
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(
			limit,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByRealIP),
			httprate.WithLimitHandler(rateLimitExceeded),
		))

		mount := func(path string, h LambdaHandler) {
			if h != nil {
				r.Get(path, HTTPHandler(h))
			}
		}
		mount("/tides", cfg.Tides)
		mount("/stations", cfg.Stations)
		mount("/calendar", cfg.Calendar)
		mount("/guidance", cfg.Guidance)
		mount("/locations", cfg.Locations)
		mount("/live", cfg.Live)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("Request completed")
	})
}

func rateLimitExceeded(w http.ResponseWriter, _ *http.Request) {
	response, _ := Error("Rate limit exceeded", http.StatusTooManyRequests)
	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(response.StatusCode)
	_, _ = w.Write([]byte(response.Body))
}
