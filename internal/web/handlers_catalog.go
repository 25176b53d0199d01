package web

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/brickshop/internal/core"
	"github.com/JonMunkholm/brickshop/internal/logging"
	"github.com/JonMunkholm/brickshop/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// multipartMemory is how much of an upload ParseMultipartForm keeps in
// memory before spilling to a temp file.
const multipartMemory = 8 << 20

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseCatalogQuery reads q, condition, min, max, sort and page. An absent
// sort selects the default ordering; an explicit empty sort keeps file order.
func parseCatalogQuery(r *http.Request) (core.Query, templates.CatalogData) {
	params := r.URL.Query()

	sortMode := core.DefaultSort
	if vals, ok := params["sort"]; ok {
		sortMode = core.ParseSortMode(vals[0])
	}

	data := templates.CatalogData{
		Search:    params.Get("q"),
		Condition: params.Get("condition"),
		Min:       params.Get("min"),
		Max:       params.Get("max"),
		Sort:      sortMode,
	}
	q := core.Query{
		Search:    data.Search,
		Condition: data.Condition,
		Min:       core.ParseBound(data.Min),
		Max:       core.ParseBound(data.Max),
		Sort:      sortMode,
		Page:      parseIntParam(r, "page", 1),
	}
	return q, data
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q, _ := parseCatalogQuery(r)
	writeJSON(w, r, http.StatusOK, s.service.Query(q))
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := s.service.Product(id)
	if !ok {
		respondError(w, r, core.ErrUnknownProduct, http.StatusNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

func (s *Server) handleCatalogPage(w http.ResponseWriter, r *http.Request) {
	q, data := parseCatalogQuery(r)
	data.Page = s.service.Query(q)
	data.Conditions = s.service.Conditions()
	data.CartUnits = s.service.CartSummary()
	data.Status = s.service.LoadStatus()
	data.Accept = core.AcceptedExtensions()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.CatalogPage(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render catalog page failed", "error", err)
	}
}

// CatalogStatus is the response of GET /api/catalog/status.
type CatalogStatus struct {
	Products int                    `json:"products"`
	LastLoad core.LoadStatus        `json:"last_load"`
	Loads    core.LoadLimiterStatus `json:"loads"`
	Accept   []string               `json:"accept"`
}

func (s *Server) handleCatalogStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, CatalogStatus{
		Products: s.service.CatalogSize(),
		LastLoad: s.service.LoadStatus(),
		Loads:    s.service.LimiterStatus(),
		Accept:   core.AcceptedExtensions(),
	})
}

// uploadedFile extracts the "file" part from a size-limited multipart body.
// The caller closes the returned file.
func (s *Server) uploadedFile(w http.ResponseWriter, r *http.Request) (multipart.File, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, "", err
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, "", core.ErrNoFile
		}
		return nil, "", errors.Join(errInvalidBody, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", core.ErrNoFile
	}
	return file, header.Filename, nil
}

// handleUpload replaces the catalog with an uploaded CSV or XLSX file.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, filename, err := s.uploadedFile(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	defer file.Close()

	res, err := s.service.LoadFile(r.Context(), filename, file)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.UploadResult(res).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render upload result failed", "error", err)
		}
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// handlePreview reports what an upload would load without changing the catalog.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	file, filename, err := s.uploadedFile(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	defer file.Close()

	preview, err := s.service.PreviewFile(r.Context(), filename, file)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, preview)
}

func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	attachment(w, core.TemplateFilename)
	if err := core.WriteTemplateCSV(w); err != nil {
		logging.FromContext(r.Context()).Error("write template failed", "error", err)
	}
}
