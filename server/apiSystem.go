package server

import (
	"net/http"
	"os"
	"time"

	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
)

type pingJSON struct {
	Greeting string `json:"greeting"`
	Hostname string `json:"hostname"`
	Time     int64  `json:"time"`
}

func (s *Server) httpPing(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	hostname, _ := os.Hostname()
	ping := &pingJSON{
		Greeting: "I am tracklog",
		Hostname: hostname,
		Time:     time.Now().Unix(),
	}
	www.SendJSON(w, ping)
}
