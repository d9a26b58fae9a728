package server

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/cyclopcam/tracklog/pkg/blobstore"
	"github.com/cyclopcam/tracklog/server/export"
	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
)

type exportJSON struct {
	Name   string `json:"name"`
	Events int64  `json:"events"`
	URL    string `json:"url,omitempty"`
}

// Stream the whole event table as CSV.
// Once the first byte is sent we can no longer report an error in the status code,
// so a failure midway produces a truncated file and a log message.
func (s *Server) httpExportDownload(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	name := path.Base(export.DefaultName(time.Now()))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%v"`, name))
	www.CacheNever(w)
	n, err := export.WriteCSV(w, s.Store, 0)
	if err != nil {
		s.Log.Errorf("CSV download failed after %v events: %v", n, err)
		return
	}
	s.Log.Infof("CSV download of %v events", n)
}

func (s *Server) httpExportToStorage(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	if s.exportStorage == nil {
		www.PanicBadRequestf("Export storage is not configured")
	}
	name := export.DefaultName(time.Now())
	n, err := export.ToStorage(s.Log, s.Store, s.exportStorage, name)
	www.Check(err)
	url, err := s.exportStorage.URL(name)
	if err != nil && !errors.Is(err, blobstore.ErrNoPublicUrl) {
		s.Log.Warnf("Failed to get URL of export %v: %v", name, err)
	}
	www.SendJSON(w, &exportJSON{Name: name, Events: n, URL: url})
}
