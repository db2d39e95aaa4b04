package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"endorsement/internal/batch"
	"endorsement/internal/domain"
	"endorsement/internal/events"
	"endorsement/internal/infra"
	"endorsement/internal/middleware"
	"endorsement/internal/preferences"
)

// App carries the dependencies shared by the HTTP handlers.
type App struct {
	Config       *infra.Config
	Logger       zerolog.Logger
	Orchestrator *batch.Orchestrator
	History      *batch.History
	Events       *events.Hub
	Preferences  preferences.Store
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorResponse{Error: errCode, Message: message})
}

// localizedError writes an error whose message follows the request locale.
func (a *App) localizedError(w http.ResponseWriter, r *http.Request, code int, errCode string, key domain.MessageKey) {
	a.error(w, code, errCode, domain.Message(key, middleware.LocaleFromContext(r.Context())))
}

// record is the batch.UpdateFunc every HTTP-started batch reports through.
func (a *App) record(s batch.Snapshot) {
	if a.History != nil {
		a.History.Record(s)
	}
	if a.Events != nil {
		a.Events.Publish(s)
	}
}

// lookup returns the freshest snapshot known for id.
func (a *App) lookup(id string) (batch.Snapshot, bool) {
	if a.Orchestrator != nil {
		if cur, ok := a.Orchestrator.Current(); ok && cur.ID == id {
			return cur, true
		}
	}
	if a.History != nil {
		return a.History.Get(id)
	}
	return batch.Snapshot{}, false
}

func (a *App) maxUploadBytes() int64 {
	if a.Config != nil && a.Config.MaxUploadBytes > 0 {
		return a.Config.MaxUploadBytes
	}
	return 10 << 20
}
