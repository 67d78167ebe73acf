package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/gokatarajesh/word-duel/internal/auth"
	"github.com/gokatarajesh/word-duel/internal/config"
	"github.com/gokatarajesh/word-duel/internal/logging"
	httperrors "github.com/gokatarajesh/word-duel/pkg/http/errors"
)

// DuelRoutes serves the duel REST API and the duel WebSocket.
type DuelRoutes interface {
	Routes(r chi.Router)
	HandleWebSocket(w http.ResponseWriter, r *http.Request)
}

// WordListRoutes serves the word list API; write guards mutating routes.
type WordListRoutes interface {
	Routes(r chi.Router, write func(http.Handler) http.Handler)
}

// Handlers collects the feature handlers mounted by the server. Nil fields are
// skipped.
type Handlers struct {
	Tokens      auth.TokenValidator
	Duels       DuelRoutes
	Leaderboard http.HandlerFunc
	WordLists   WordListRoutes
	Gatherer    prometheus.Gatherer
	// Checks are run by /v1/ping, keyed by dependency name.
	Checks map[string]func(context.Context) error
}

// NewUpgrader builds the WebSocket upgrader. Requests without an Origin header
// (non-browser clients) are accepted; "*" accepts every origin.
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originAllowed(allowedOrigins, origin)
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// NewRouter wires middleware and routes for the API service.
func NewRouter(cfg *config.App, logger zerolog.Logger, h Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors(cfg.CORS))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httperrors.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	gatherer := h.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		if h.Tokens != nil {
			r.Use(auth.Middleware(h.Tokens, logger))
		}

		// WebSocket connections outlive the request timeout.
		if h.Duels != nil {
			r.Get("/ws/duels", h.Duels.HandleWebSocket)
		} else {
			r.Get("/ws/duels", func(w http.ResponseWriter, r *http.Request) {
				httperrors.RespondError(w, http.StatusNotImplemented, httperrors.ErrCodeServiceUnavailable, "WebSocket handler not configured")
			})
		}

		r.Group(func(r chi.Router) {
			if cfg.RequestTimeout > 0 {
				r.Use(chimw.Timeout(cfg.RequestTimeout))
			}
			mountAPI(r, h)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "route not found: "+r.URL.Path)
	})

	return r
}

// NewHTTPServer wraps the router in an http.Server bound to cfg.HTTPAddr.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, logger, h),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func mountAPI(r chi.Router, h Handlers) {
	r.Get("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), h.Checks); err != nil {
			logger := logging.FromContext(r.Context())
			logger.Error().Err(err).Msg("dependency ping failed")
			httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamError, "upstream error")
			return
		}
		httperrors.RespondJSON(w, http.StatusOK, map[string]bool{"pong": true})
	})

	if h.Leaderboard != nil {
		r.Get("/v1/leaderboards/{window}", h.Leaderboard)
	}

	if h.WordLists != nil {
		r.Route("/v1/wordlists", func(r chi.Router) {
			h.WordLists.Routes(r, auth.RequireRegistered)
		})
	}

	if h.Duels != nil {
		r.Route("/v1/duels", func(r chi.Router) {
			r.Use(auth.RequireAuth)
			h.Duels.Routes(r)
		})
	}
}

func pingDependencies(ctx context.Context, checks map[string]func(context.Context) error) error {
	for _, name := range lo.Keys(checks) {
		if err := checks[name](ctx); err != nil {
			return &dependencyError{name: name, err: err}
		}
	}
	return nil
}

type dependencyError struct {
	name string
	err  error
}

func (e *dependencyError) Error() string { return e.name + ": " + e.err.Error() }
func (e *dependencyError) Unwrap() error { return e.err }

// requestLogger attaches a request-scoped logger to the context and logs each
// completed request.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := logger.With().Str("request_id", chimw.GetReqID(r.Context())).Logger()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logging.IntoContext(r.Context(), reqLogger)))

			reqLogger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}

// cors enables credentialed CORS for the configured origins.
func cors(cfg config.CORS) func(http.Handler) http.Handler {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(cfg.AllowedOrigins, origin) {
				w.Header().Add("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Origin", origin)
				if cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				if r.Method == http.MethodOptions {
					w.Header().Set("Access-Control-Allow-Methods", methods)
					w.Header().Set("Access-Control-Allow-Headers", headers)
					w.Header().Set("Access-Control-Max-Age", maxAge)
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	return lo.ContainsBy(allowed, func(o string) bool {
		return o == "*" || strings.EqualFold(strings.TrimSpace(o), origin)
	})
}
