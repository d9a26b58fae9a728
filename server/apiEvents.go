package server

import (
	"errors"
	"net/http"

	"github.com/cyclopcam/tracklog/server/eventstore"
	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
)

// Upper bound on the body of an append request
const maxAppendBodyBytes = 32 * 1024 * 1024

type appendOneJSON struct {
	ID int64 `json:"id"`
}

type appendBulkJSON struct {
	IDs []int64 `json:"ids"`
}

func (s *Server) httpAppendEvent(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	rec := eventstore.Record{}
	www.ReadJSON(w, r, &rec, maxAppendBodyBytes)
	id, err := s.Store.Append(rec)
	checkAppendError(err)
	www.SendJSON(w, &appendOneJSON{ID: id})
}

// The whole batch is stored, or none of it is
func (s *Server) httpAppendEvents(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	recs := []eventstore.Record{}
	www.ReadJSON(w, r, &recs, maxAppendBodyBytes)
	ids, err := s.Store.AppendBulk(recs)
	checkAppendError(err)
	if ids == nil {
		ids = []int64{}
	}
	www.SendJSON(w, &appendBulkJSON{IDs: ids})
}

// Invalid records are the client's fault. Anything else is ours.
func checkAppendError(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, eventstore.ErrInvalidEvent) {
		www.PanicBadRequestf("%v", err)
	}
	www.Check(err)
}
