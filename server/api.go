package server

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cyclopcam/staticfiles"
	"github.com/cyclopcam/www"
	"github.com/go-chi/httprate"
	"github.com/julienschmidt/httprouter"
)

//go:embed www
var staticWWW embed.FS

func (s *Server) setupHttpRoutes() error {
	logEveryRequest := false
	router := httprouter.New()

	handle := func(method, route string, handle httprouter.Handle) {
		www.Handle(s.Log, router, method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			if logEveryRequest {
				s.Log.Infof("HTTP %v %v", method, r.URL.Path)
			}
			handle(w, r, params)
		})
	}

	// ratelimited creates a handler with its own per-IP limiter. A limit of zero disables limiting.
	ratelimited := func(method, route string, handle httprouter.Handle, requestLimit int, windowLength time.Duration) {
		if requestLimit <= 0 {
			www.Handle(s.Log, router, method, route, handle)
			return
		}
		limited := httprate.Limit(requestLimit, windowLength, httprate.WithKeyFuncs(httprate.KeyByIP))
		www.Handle(s.Log, router, method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			limited(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handle(w, r, params)
			})).ServeHTTP(w, r)
		})
	}

	limits := s.config.RateLimit

	handle("GET", "/api/ping", s.httpPing)

	ratelimited("GET", "/api/summary", s.httpSummary, limits.QueryPerMinute, time.Minute)
	ratelimited("GET", "/api/top-objects", s.httpTopObjects, limits.QueryPerMinute, time.Minute)
	ratelimited("GET", "/api/directions", s.httpDirections, limits.QueryPerMinute, time.Minute)
	ratelimited("GET", "/api/trajectory", s.httpTrajectory, limits.QueryPerMinute, time.Minute)

	ratelimited("POST", "/api/event", s.httpAppendEvent, limits.AppendPerMinute, time.Minute)
	ratelimited("POST", "/api/events", s.httpAppendEvents, limits.AppendPerMinute, time.Minute)

	ratelimited("GET", "/api/export/events.csv", s.httpExportDownload, limits.ExportPerHour, time.Hour)
	ratelimited("POST", "/api/export", s.httpExportToStorage, limits.ExportPerHour, time.Hour)

	router.Handler("GET", "/metrics", s.Metrics.Handler())

	isImmutable := true
	var fsys fs.FS
	fsysRoot := "www"
	fsys = staticWWW
	if s.HotReloadWWW {
		relRoot := "server/www"
		absRoot, err := filepath.Abs(relRoot)
		if err != nil {
			s.Log.Errorf("Failed to resolve static file directory %v: %v", relRoot, err)
			return errors.New("Failed to resolve static file directory for hot reload")
		}
		s.Log.Infof("Serving static files from %v, with hot reload", absRoot)
		fsys = os.DirFS(absRoot)
		fsysRoot = ""
		isImmutable = false
	}

	static, err := staticfiles.NewCachedStaticFileServer(fsys, fsysRoot, []string{"/api/", "/metrics"}, s.Log, isImmutable, nil)
	if err != nil {
		s.Log.Warnf("Error in static files: %v. The dashboard will not be available.", err)
	} else {
		router.NotFound = static
	}

	s.httpRouter = router
	return nil
}
