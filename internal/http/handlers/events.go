package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"endorsement/internal/batch"
	"endorsement/internal/domain"
	"endorsement/internal/middleware"
)

const eventsKeepAlive = 15 * time.Second

// BatchEvents streams snapshots of one batch as Server-Sent Events and
// closes the stream after the final snapshot.
func (a *App) BatchEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "batch_id")
	if _, ok := a.lookup(id); !ok {
		a.localizedError(w, r, http.StatusNotFound, "not_found", domain.MsgBatchNotFound)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		a.error(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}

	// Subscribe before reading the current state so nothing published in
	// between is lost; stale duplicates are filtered by progress below.
	updates := make(chan batch.Snapshot, a.Orchestrator.Size()+2)
	a.Events.Subscribe(updates, id)
	defer a.Events.Unsubscribe(updates, id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	locale := middleware.LocaleFromContext(r.Context())
	sent := -1
	send := func(s batch.Snapshot) bool {
		if p := progress(s); p > sent {
			sent = p
			payload, err := json.Marshal(newSnapshotView(s, locale))
			if err != nil {
				a.Logger.Error().Err(err).Str("batch_id", id).Msg("events: encode snapshot")
				return true
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
		return s.Done
	}

	if s, ok := a.lookup(id); ok && send(s) {
		return
	}

	ticker := time.NewTicker(eventsKeepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case s := <-updates:
			if send(s) {
				return
			}
		case <-ticker.C:
			// catch up in case the hub dropped an update for this stream
			if s, ok := a.lookup(id); ok && send(s) {
				return
			}
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

// progress orders snapshots of one batch: settled tasks, plus one once done.
func progress(s batch.Snapshot) int {
	n := len(s.Tasks) - s.Count(batch.StatePending)
	if s.Done {
		n++
	}
	return n
}
