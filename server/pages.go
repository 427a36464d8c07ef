package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/docs-ui/uipreview/fsutil"
)

const liveReloadTag = `<script src="/__livereload.js"></script>`

// pages renders *.html requests from the matching preview document. Requests
// without a source document fall through to next.
func (s *Server) pages(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isReadMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		source, ok := s.pageSource(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		html, err := s.svc.RenderFile(source)
		if err != nil {
			s.logger.Error("render", "path", r.URL.Path, "source", source, "error", err)
			writeInternalError(w, r)
			return
		}
		if s.hub != nil {
			html = injectLiveReload(html)
		}
		writeBody(w, r, http.StatusOK, "text/html; charset=utf-8", html)
	})
}

// modules answers imports of preview documents with an ES module whose
// default export is the rendered page.
func (s *Server) modules(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isReadMethod(r.Method) || !s.isDocument(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		source, ok := s.previewFile(sanitizeRequestPath(r.URL.Path))
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		module, err := s.svc.Module(source)
		if err != nil {
			s.logger.Error("render module", "path", r.URL.Path, "source", source, "error", err)
			writeInternalError(w, r)
			return
		}
		writeBody(w, r, http.StatusOK, "text/javascript; charset=utf-8", module)
	})
}

// pageSource maps /dir/name.html to the first existing preview document
// dir/name.<ext>. Directory requests map to their index page.
func (s *Server) pageSource(requestPath string) (string, bool) {
	clean := sanitizeRequestPath(requestPath)
	if strings.HasSuffix(requestPath, "/") {
		clean = path.Join(clean, "index.html")
	}
	if !strings.EqualFold(path.Ext(clean), ".html") {
		return "", false
	}
	stem := strings.TrimSuffix(clean, path.Ext(clean))
	for _, ext := range s.svc.Extensions() {
		if source, ok := s.previewFile(stem + ext); ok {
			return source, true
		}
	}
	return "", false
}

func (s *Server) previewFile(clean string) (string, bool) {
	target := filepath.Join(s.cfg.PreviewDir, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
	if !isWithin(s.cfg.PreviewDir, target) {
		return "", false
	}
	ok, err := fsutil.IsFile(target)
	if err != nil || !ok {
		return "", false
	}
	return target, true
}

func (s *Server) isDocument(requestPath string) bool {
	ext := strings.ToLower(path.Ext(requestPath))
	for _, known := range s.svc.Extensions() {
		if ext == known {
			return true
		}
	}
	return false
}

// injectLiveReload places the client script before the closing body tag,
// or appends it when the page has none.
func injectLiveReload(html string) string {
	idx := strings.LastIndex(strings.ToLower(html), "</body>")
	if idx < 0 {
		return html + liveReloadTag
	}
	return html[:idx] + liveReloadTag + html[idx:]
}

func (s *Server) tryStatic(w http.ResponseWriter, r *http.Request, root string) bool {
	if root == "" {
		return false
	}
	clean := sanitizeRequestPath(r.URL.Path)
	if clean == "/" {
		return false
	}
	target := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
	if !isWithin(root, target) {
		return false
	}
	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		return false
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, target)
	return true
}

func isWithin(base, target string) bool {
	baseAbs, err := filepath.Abs(base)
	if err != nil {
		return false
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}
	return true
}

func sanitizeRequestPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	clean := path.Clean(p)
	if clean == "." {
		return "/"
	}
	return clean
}
