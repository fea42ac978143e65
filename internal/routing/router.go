package routing

import (
	"net/http"
	"path/filepath"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Router struct {
	handler   *ItemHandler
	staticDir string
	log       *zap.Logger
}

// NewRouter serves staticDir/index.html at "/" and the rest of staticDir
// under "/static/", unless staticDir is empty.
func NewRouter(handler *ItemHandler, staticDir string, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		handler:   handler,
		staticDir: staticDir,
		log:       log,
	}
}

func (router *Router) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/items", router.handler.ListItems)
	mux.HandleFunc("POST /api/items", router.handler.CreateItem)
	mux.HandleFunc("GET /api/items/{id}", router.handler.GetItem)
	mux.HandleFunc("PUT /api/items/{id}", router.handler.UpdateItem)
	mux.HandleFunc("DELETE /api/items/{id}", router.handler.DeleteItem)
	mux.HandleFunc("GET /healthz", router.handler.Healthz)

	if router.staticDir != "" {
		index := filepath.Join(router.staticDir, "index.html")
		mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, index)
		})
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(router.staticDir))))
	}

	logged := NewRequestLogger(router.log).Middleware(mux)
	return otelhttp.NewHandler(logged, "inventory-items-http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
