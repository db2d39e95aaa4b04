package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if a.Orchestrator != nil {
		resp["batch_size"] = a.Orchestrator.Size()
	}
	a.json(w, http.StatusOK, resp)
}
