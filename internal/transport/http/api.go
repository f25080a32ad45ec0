package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// ConfigCatalog lists the names of stored game configs.
type ConfigCatalog interface {
	ListConfigs(ctx context.Context) ([]string, error)
}

// API serves the REST endpoints used to create and inspect games.
type API struct {
	service *app.GameService
	configs app.ConfigRepository
	catalog ConfigCatalog
	hub     *Hub
}

func NewAPI(service *app.GameService, configs app.ConfigRepository, catalog ConfigCatalog, hub *Hub) *API {
	return &API{service: service, configs: configs, catalog: catalog, hub: hub}
}

// NewRouter wires the REST API, the websocket endpoint and the health check.
func NewRouter(api *API, ws *WSHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws", ws.ServeWS)

	s := r.PathPrefix("/api").Subrouter()
	s.HandleFunc("/games", api.createGame).Methods(http.MethodPost)
	s.HandleFunc("/games/from-config/{name}", api.createGameFromConfig).Methods(http.MethodPost)
	s.HandleFunc("/games/{gameId}", api.getGame).Methods(http.MethodGet)
	s.HandleFunc("/games/{gameId}/leaderboard", api.getLeaderboard).Methods(http.MethodGet)
	s.HandleFunc("/games/{gameId}", api.deleteGame).Methods(http.MethodDelete)
	s.HandleFunc("/configs", api.listConfigs).Methods(http.MethodGet)
	s.HandleFunc("/configs/{name}", api.getConfig).Methods(http.MethodGet)
	s.HandleFunc("/debug", api.debug).Methods(http.MethodGet)
	return r
}

type createdGame struct {
	GameID string `json:"gameId"`
}

func (a *API) createGame(w http.ResponseWriter, r *http.Request) {
	var cfg domain.GameConfig
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid game config: "+err.Error())
		return
	}
	domain.InferAnswerTypes(&cfg)
	id, err := a.service.CreateSession(r.Context(), cfg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdGame{GameID: id})
}

func (a *API) createGameFromConfig(w http.ResponseWriter, r *http.Request) {
	id, err := a.service.CreateSessionFromConfig(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdGame{GameID: id})
}

func (a *API) getGame(w http.ResponseWriter, r *http.Request) {
	audience := app.AudiencePlayers
	if r.URL.Query().Get("audience") == string(app.AudienceHost) {
		audience = app.AudienceHost
	}
	state, err := a.service.State(r.Context(), mux.Vars(r)["gameId"], audience)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (a *API) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := a.service.Leaderboard(r.Context(), mux.Vars(r)["gameId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *API) deleteGame(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["gameId"]
	if err := a.service.DeleteSession(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	a.hub.CloseRoom(id)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listConfigs(w http.ResponseWriter, r *http.Request) {
	names := []string{}
	if a.catalog != nil {
		listed, err := a.catalog.ListConfigs(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		names = append(names, listed...)
	}
	writeJSON(w, http.StatusOK, names)
}

func (a *API) getConfig(w http.ResponseWriter, r *http.Request) {
	if a.configs == nil {
		writeServiceError(w, domain.ErrConfigNotFound)
		return
	}
	cfg, err := a.configs.GetConfig(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

type debugInfo struct {
	Games []string `json:"games"`
	Count int      `json:"count"`
}

func (a *API) debug(w http.ResponseWriter, r *http.Request) {
	ids := a.service.SessionIDs()
	writeJSON(w, http.StatusOK, debugInfo{Games: ids, Count: len(ids)})
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrConfigNotFound), errors.Is(err, domain.ErrPlayerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrMalformedConfig), errors.Is(err, domain.ErrInvalidAnswer), errors.Is(err, domain.ErrInvalidName):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrNameTaken),
		errors.Is(err, domain.ErrAlreadyAnswered), errors.Is(err, domain.ErrSessionExists):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Printf("api error: %v", err)
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, app.ErrorPayload{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
