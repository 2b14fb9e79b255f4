package chi

import (
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbridge/internal/metrics"
)

// NewRouter assembles the middleware chain and mounts the server routes.
func NewRouter(s *Server, apiKeys []string, log *zap.Logger) http.Handler {
	r := gochi.NewRouter()
	r.Use(Recoverer(log))
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	s.Routes(r)
	return r
}
