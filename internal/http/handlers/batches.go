package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"endorsement/internal/batch"
	"endorsement/internal/domain"
	"endorsement/internal/encoder"
	"endorsement/internal/middleware"
	"endorsement/pkg/zip"
)

// CreateBatch accepts a multipart form with the model and product photos,
// starts a batch in the background and answers with its pending snapshot.
func (a *App) CreateBatch(w http.ResponseWriter, r *http.Request) {
	limit := a.maxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, 2*limit+(1<<20))
	if err := r.ParseMultipartForm(limit); err != nil {
		a.localizedError(w, r, http.StatusBadRequest, "bad_request", domain.MsgMissingImages)
		return
	}
	defer r.MultipartForm.RemoveAll()

	model, err := a.formImage(r, "model", limit)
	if err != nil {
		a.localizedError(w, r, http.StatusBadRequest, "invalid_image", domain.MsgInvalidImage)
		return
	}
	product, err := a.formImage(r, "product", limit)
	if err != nil {
		a.localizedError(w, r, http.StatusBadRequest, "invalid_image", domain.MsgInvalidImage)
		return
	}
	if model.IsZero() || product.IsZero() {
		a.localizedError(w, r, http.StatusBadRequest, "validation", domain.MsgMissingImages)
		return
	}

	params := batch.Params{
		Style:       r.FormValue("style"),
		HighQuality: parseFlag(r.FormValue("hd")),
	}

	initial, err := a.startBatch(context.WithoutCancel(r.Context()), model, product, params)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrValidation):
		a.localizedError(w, r, http.StatusBadRequest, "validation", domain.MsgMissingImages)
		return
	default:
		a.Logger.Error().Err(err).Msg("batch: could not start")
		a.localizedError(w, r, http.StatusServiceUnavailable, "unavailable", domain.MsgInternal)
		return
	}

	w.Header().Set("Location", "/v1/batches/"+initial.ID)
	a.json(w, http.StatusAccepted, newSnapshotView(initial, middleware.LocaleFromContext(r.Context())))
}

// startBatch runs a batch on its own goroutine and returns once the pending
// snapshot was published, or with the synchronous validation error.
func (a *App) startBatch(ctx context.Context, model, product *encoder.SourceImage, params batch.Params) (batch.Snapshot, error) {
	initial := make(chan batch.Snapshot, 1)
	failed := make(chan error, 1)
	go func() {
		first := true
		result, err := a.Orchestrator.Run(ctx, model, product, params, func(s batch.Snapshot) {
			a.record(s)
			if first {
				first = false
				initial <- s
			}
		})
		if err != nil {
			failed <- err
			return
		}
		a.Logger.Info().
			Str("batch_id", result.Snapshot.ID).
			Bool("has_failures", result.Failed).
			Msg("batch: completed")
	}()

	select {
	case s := <-initial:
		return s, nil
	case err := <-failed:
		return batch.Snapshot{}, err
	}
}

// formImage returns nil when the field is absent or the file is empty.
func (a *App) formImage(r *http.Request, field string, limit int64) (*encoder.SourceImage, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if header.Size == 0 {
		return nil, nil
	}
	img, err := encoder.FromReader(uploadName(header, field), file, limit)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func uploadName(h *multipart.FileHeader, field string) string {
	if h != nil && strings.TrimSpace(h.Filename) != "" {
		return h.Filename
	}
	return field
}

func parseFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}

func (a *App) CurrentBatch(w http.ResponseWriter, r *http.Request) {
	s, ok := a.Orchestrator.Current()
	if !ok {
		a.localizedError(w, r, http.StatusNotFound, "not_found", domain.MsgBatchNotFound)
		return
	}
	a.json(w, http.StatusOK, newSnapshotView(s, middleware.LocaleFromContext(r.Context())))
}

func (a *App) GetBatch(w http.ResponseWriter, r *http.Request) {
	s, ok := a.lookup(chi.URLParam(r, "batch_id"))
	if !ok {
		a.localizedError(w, r, http.StatusNotFound, "not_found", domain.MsgBatchNotFound)
		return
	}
	a.json(w, http.StatusOK, newSnapshotView(s, middleware.LocaleFromContext(r.Context())))
}

// BatchImage serves the decoded bytes of one succeeded task.
func (a *App) BatchImage(w http.ResponseWriter, r *http.Request) {
	s, ok := a.lookup(chi.URLParam(r, "batch_id"))
	if !ok {
		a.localizedError(w, r, http.StatusNotFound, "not_found", domain.MsgBatchNotFound)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		a.localizedError(w, r, http.StatusNotFound, "not_found", domain.MsgImageNotAvailable)
		return
	}
	img, err := s.DecodeImage(index)
	if err != nil {
		a.localizedError(w, r, http.StatusNotFound, "not_found", domain.MsgImageNotAvailable)
		return
	}
	w.Header().Set("Content-Type", img.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", img.Filename()))
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

// BatchArchive zips every image that succeeded so far.
func (a *App) BatchArchive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "batch_id")
	s, ok := a.lookup(id)
	if !ok {
		a.localizedError(w, r, http.StatusNotFound, "not_found", domain.MsgBatchNotFound)
		return
	}
	images, err := s.Images()
	if err != nil {
		a.Logger.Error().Err(err).Str("batch_id", id).Msg("batch: decode images")
		a.localizedError(w, r, http.StatusInternalServerError, "internal", domain.MsgInternal)
		return
	}
	assets := make([]zip.Asset, 0, len(images))
	for _, img := range images {
		assets = append(assets, zip.Asset{Filename: img.Filename(), Data: img.Data})
	}
	archive, err := zip.ArchiveAssets(assets, time.Now())
	if err != nil {
		a.Logger.Error().Err(err).Str("batch_id", id).Msg("batch: build archive")
		a.localizedError(w, r, http.StatusInternalServerError, "internal", domain.MsgInternal)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=endorsement-%s.zip", id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
