package server

import (
	"net/http"

	"github.com/cyclopcam/tracklog/server/analytics"
	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
)

type topObjectsJSON struct {
	Top []analytics.ClassCount `json:"top"`
}

type directionsJSON struct {
	Tracks []analytics.TrackDirection `json:"tracks"`
}

type trajectoryJSON struct {
	Points []analytics.TrackPoint `json:"points"`
}

func (s *Server) httpSummary(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	summary, err := s.Queries.Summary()
	www.Check(err)
	www.SendJSON(w, summary)
}

// A missing or unparseable limit falls back to the default. Limits above analytics.MaxLimit are capped.
func (s *Server) httpTopObjects(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	limit := www.QueryInt(r, "limit")
	top, err := s.Queries.TopObjects(limit)
	www.Check(err)
	www.SendJSON(w, &topObjectsJSON{Top: top})
}

func (s *Server) httpDirections(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	video := www.QueryValue(r, "video")
	tracker := www.QueryValue(r, "tracker")
	tracks, err := s.Queries.Directions(video, tracker)
	www.Check(err)
	www.SendJSON(w, &directionsJSON{Tracks: tracks})
}

func (s *Server) httpTrajectory(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	video := www.RequiredQueryValue(r, "video")
	tracker := www.RequiredQueryValue(r, "tracker")
	trackID := www.RequiredQueryInt64(r, "track_id")
	points, err := s.Queries.Trajectory(video, tracker, trackID)
	www.Check(err)
	www.SendJSON(w, &trajectoryJSON{Points: points})
}
