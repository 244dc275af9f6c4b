package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/rssmd/internal/host"
	"github.com/dgallion1/rssmd/internal/importer"
	"github.com/dgallion1/rssmd/internal/pages"
)

// handleImport loads an uploaded document into a convert page's editor.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	in := s.registry.get(chi.URLParam(r, "pageID"))
	if in == nil {
		jsonError(w, "page not found", http.StatusNotFound)
		return
	}
	conv, ok := in.screen.(*pages.Convert)
	if !ok {
		jsonError(w, "page does not accept imports: "+in.route, http.StatusConflict)
		return
	}

	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !importer.Supported(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	s.serve(w, r, in, func(ctx context.Context, rec *host.Recorder) error {
		return conv.Import(ctx, rec, bytes.NewReader(data), filename)
	})
}
