package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"moviemeter/internal/config"
	handlers "moviemeter/internal/handler"
	"moviemeter/internal/logging"
	"moviemeter/internal/metrics"
	"moviemeter/internal/service"
)

type Middleware func(http.Handler) http.Handler

const RequestIDHeader = "X-Request-ID"

// statusRecorder captures the status code written by the next handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// RequestLogger assigns a request id and logs every request once it completes.
// Handlers reach the request logger through logging.Ctx.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)

		logger := logging.Logger().With().Str("request_id", requestID).Logger()
		ctx := logging.WithContext(r.Context(), logger)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		event := logger.Info()
		if rec.status >= http.StatusInternalServerError {
			event = logger.Error()
		} else if rec.status >= http.StatusBadRequest {
			event = logger.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// routeTemplate keeps metric labels bounded by using the matched mux template.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		metrics.RecordAPIRequest(r.Method, routeTemplate(r), strconv.Itoa(rec.status), time.Since(start))
	})
}

func CORS(cfg *config.Config) Middleware {
	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	})
}

// RateLimit limits each client IP to requestsPerMinute. Zero disables it.
func RateLimit(requestsPerMinute int) Middleware {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			handlers.WriteError(w, "too many requests", http.StatusTooManyRequests)
		}),
	)
}

// Auth rejects requests without a valid access token and stores the
// caller's id in the request context.
func Auth(authService service.AuthService) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := handlers.BearerToken(r)
			if token == "" {
				handlers.WriteError(w, "authentication required", http.StatusUnauthorized)
				return
			}

			userID, err := authService.VerifyAccess(r.Context(), token)
			if err != nil {
				logging.Ctx(r.Context()).Debug().Err(err).Msg("access token rejected")
				handlers.WriteError(w, err.Error(), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(handlers.WithUserID(r.Context(), userID)))
		})
	}
}

// Chain wraps h so that middlewares run in the order given.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
