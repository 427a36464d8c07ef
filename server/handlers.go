package server

import (
	_ "embed"
	"net/http"
)

//go:embed livereload.js
var liveReloadScript string

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLiveReloadScript(w http.ResponseWriter, r *http.Request) {
	if !isReadMethod(r.Method) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	writeBody(w, r, http.StatusOK, "text/javascript; charset=utf-8", liveReloadScript)
}

// handleStatic serves files from the preview directory, then from the
// build output, and answers 404 otherwise.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if isReadMethod(r.Method) {
		for _, root := range []string{s.cfg.PreviewDir, s.cfg.OutputDir} {
			if s.tryStatic(w, r, root) {
				return
			}
		}
	}
	http.NotFound(w, r)
}
