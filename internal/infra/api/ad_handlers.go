package api

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

const (
	maxImageBytes  = 10 << 20
	maxUploadBytes = model.MaxAdImages*maxImageBytes + 1<<20
)

func (s *Server) handleListAds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.AdFilter{
		Status:   model.AdStatusApproved,
		Category: q.Get("category"),
		Province: q.Get("province"),
		City:     q.Get("city"),
		Page:     atoiDefault(q.Get("page"), 1),
		Limit:    atoiDefault(q.Get("limit"), 10),
	}
	// Only admins may look past the approved listing.
	if st := q.Get("status"); st != "" && s.isAdmin(r) {
		status, err := model.ParseAdStatus(st)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		f.Status = status
	}
	ads, total, err := s.ads.List(r.Context(), f)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listBody[*model.Ad]{Items: nonNil(ads), Total: total})
}

func (s *Server) handleGetAd(w http.ResponseWriter, r *http.Request) {
	ad, err := s.ads.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ad)
}

func (s *Server) handleMyAds(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	ads, err := s.ads.ListByUser(r.Context(), user.ID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listBody[*model.Ad]{Items: nonNil(ads), Total: len(ads)})
}

// handleCreateAd accepts multipart/form-data with the ad fields and up to
// MaxAdImages files under "images".
func (s *Server) handleCreateAd(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	p, err := payloadFromForm(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["images"]
	}
	if len(files) > model.MaxAdImages {
		s.writeDomainError(w, r, domain.ErrTooManyImages)
		return
	}
	images := make([]model.ImageBlob, 0, len(files))
	for _, fh := range files {
		blob, err := readImage(fh)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		images = append(images, blob)
	}

	ad, err := s.ads.Create(r.Context(), user.ID, p, images)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ad)
}

func (s *Server) handleUpdateAd(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	var patch model.AdPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ad, err := s.ads.Update(r.Context(), chi.URLParam(r, "id"), user.ID, patch)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ad)
}

func (s *Server) handleDeleteAd(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.ads.Remove(r.Context(), chi.URLParam(r, "id"), user.ID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, err := model.ParseAdStatus(req.Status)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	ad, err := s.ads.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ad)
}

func payloadFromForm(r *http.Request) (model.AdPayload, error) {
	price, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("price")), 10, 64)
	if err != nil {
		return model.AdPayload{}, domain.ErrInvalidArgument
	}
	p := model.AdPayload{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Condition:   r.FormValue("condition"),
		Brand:       r.FormValue("brand"),
		Price:       price,
		Province:    r.FormValue("province"),
		City:        r.FormValue("city"),
		Source:      model.AdSourceAPI,
	}
	lat, lon := r.FormValue("latitude"), r.FormValue("longitude")
	if lat != "" || lon != "" {
		la, err1 := strconv.ParseFloat(lat, 64)
		lo, err2 := strconv.ParseFloat(lon, 64)
		if err1 != nil || err2 != nil {
			return model.AdPayload{}, domain.ErrInvalidArgument
		}
		p.Latitude, p.Longitude = &la, &lo
	}
	return p, p.Validate()
}

func readImage(fh *multipart.FileHeader) (model.ImageBlob, error) {
	if fh.Size > maxImageBytes {
		return model.ImageBlob{}, fmt.Errorf("image %q is too large", fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return model.ImageBlob{}, err
	}
	defer f.Close()
	b, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return model.ImageBlob{}, err
	}
	if len(b) > maxImageBytes {
		return model.ImageBlob{}, fmt.Errorf("image %q is too large", fh.Filename)
	}
	mime := http.DetectContentType(b)
	if !strings.HasPrefix(mime, "image/") {
		return model.ImageBlob{}, errors.New("only image uploads are accepted")
	}
	return model.ImageBlob{Content: b, Filename: fh.Filename, MimeType: mime, Size: len(b)}, nil
}

func (s *Server) isAdmin(r *http.Request) bool {
	if s.adminKey == "" {
		return false
	}
	key := r.Header.Get("X-Admin-Key")
	return key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(s.adminKey)) == 1
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
