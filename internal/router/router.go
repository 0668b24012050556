package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"moviemeter/internal/config"
	handlers "moviemeter/internal/handler"
	"moviemeter/internal/middleware"
	"moviemeter/internal/service"
)

type Router struct {
	Mux *mux.Router
}

// NewRouter registers every route. Each route lists its own interceptors.
func NewRouter(h *handlers.Handlers, authService service.AuthService, cfg *config.Config) *Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger, middleware.Metrics, mux.MiddlewareFunc(middleware.CORS(cfg)))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, "route not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	auth := middleware.Auth(authService)
	limit := middleware.RateLimit(cfg.AuthRateLimit)

	route := func(path string, h http.HandlerFunc, mws ...middleware.Middleware) *mux.Route {
		return r.Handle(path, middleware.Chain(h, mws...))
	}

	// auth
	route("/auth/register", h.Register, limit).Methods(http.MethodPost, http.MethodOptions)
	route("/auth/login", h.Login, limit).Methods(http.MethodPost, http.MethodOptions)
	route("/auth/logout", h.Logout, limit).Methods(http.MethodPost, http.MethodOptions)
	route("/auth/refresh", h.Refresh, limit).Methods(http.MethodGet, http.MethodPost, http.MethodOptions)
	route("/auth/google", h.GoogleSignIn, limit).Methods(http.MethodPost, http.MethodOptions)

	// users
	route("/users", h.ListUsers).Methods(http.MethodGet, http.MethodOptions)
	route("/users/{id}", h.GetUser).Methods(http.MethodGet, http.MethodOptions)
	route("/users/{id}", h.UpdateUser, auth).Methods(http.MethodPut)

	// ratings; myRatings must be registered before {id}
	route("/ratings/myRatings", h.MyRatings, auth).Methods(http.MethodGet, http.MethodOptions)
	route("/ratings", h.ListRatings).Methods(http.MethodGet, http.MethodOptions)
	route("/ratings", h.CreateRating, auth).Methods(http.MethodPost)
	route("/ratings/{id}", h.GetRating).Methods(http.MethodGet, http.MethodOptions)
	route("/ratings/{id}", h.UpdateRating, auth).Methods(http.MethodPut)
	route("/ratings/{id}", h.DeleteRating, auth).Methods(http.MethodDelete)
	route("/ratings/{id}/comment", h.AddComment, auth).Methods(http.MethodPost, http.MethodOptions)
	route("/ratings/{id}/userRating", h.AddPeerRating, auth).Methods(http.MethodPost, http.MethodOptions)
	route("/ratings/{id}/userRating/{userId}", h.GetPeerRating, auth).Methods(http.MethodGet, http.MethodOptions)

	route("/uploads/{object:.+}", h.ServeUpload).Methods(http.MethodGet)
	route("/health", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return &Router{Mux: r}
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.Mux.ServeHTTP(w, r)
}
