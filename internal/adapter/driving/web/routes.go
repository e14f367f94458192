package web

import (
	"io/fs"
	"net/http"
	"os"
)

// RegisterRoutes registers all web GUI routes on the provided mux.
// Public pages are served at / and /p/*, the admin panel under /admin/.
// Static assets are served from the embedded filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Static assets (embedded via go:embed).
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Uploaded media of the local bucket store.
	if h.opts.MediaDir != "" {
		mux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(filesOnly{http.Dir(h.opts.MediaDir)})))
	}

	// Public pages.
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /p/{slug}", h.Page)

	// Sign-in flow.
	mux.HandleFunc("GET /admin/login", h.Login)
	mux.HandleFunc("POST /admin/login", h.requireCSRF(h.RequestLink))
	mux.HandleFunc("GET "+CallbackPath, h.Callback)
	mux.HandleFunc("POST /admin/logout", h.requireCSRF(h.Logout))

	// Admin panel, admins only.
	admin := func(pattern string, next http.HandlerFunc) {
		mux.HandleFunc(pattern, h.requireAdmin(next))
	}
	adminPost := func(pattern string, next http.HandlerFunc) {
		mux.HandleFunc(pattern, h.requireAdmin(h.requireCSRF(next)))
	}

	admin("GET /admin/{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
	})
	admin("GET /admin/dashboard", h.Dashboard)
	admin("GET /admin/c/{collection}", h.List)
	admin("GET /admin/c/{collection}/new", h.New)
	admin("GET /admin/c/{collection}/{id}", h.View)
	admin("GET /admin/c/{collection}/{id}/edit", h.Edit)
	adminPost("POST /admin/c/{collection}", h.Create)
	adminPost("POST /admin/c/{collection}/delete", h.Delete)
	adminPost("POST /admin/c/{collection}/{id}", h.Update)
	adminPost("POST /admin/c/{collection}/validate/{field}", h.ValidateField)
}

// filesOnly hides directories so bucket contents cannot be listed.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}
