// Package handlers implements the REST interface of the plant store.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"

	"github.com/mgmu/planttracker/api/database"
	"github.com/mgmu/planttracker/internal/messages"
	"github.com/mgmu/planttracker/internal/plants"
)

const (
	duplicateName = "Plant with this name already exists"
	notFound      = "Plant not found"
	invalidBody   = "Request body must be a plant object"
	invalidID     = "Plant identifier must be a positive integer"
	invalidName   = "Plant name is not valid"
	nameMaxLen    = 255
)

// NewRouter returns the plant store router. Plant routes live under prefix,
// for example "/api/v1"; the health check is always at /healthz. Path
// variables are matched before unescaping, so a name containing an encoded
// "/" stays one segment.
func NewRouter(db database.Database, prefix string, logger *slog.Logger) *mux.Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := mux.NewRouter().UseEncodedPath()
	r.Use(loggingMiddleware(logger))

	r.Methods(http.MethodGet).Path("/healthz").HandlerFunc(HealthHandler(db, logger))

	api := r
	if p := strings.TrimRight(prefix, "/"); p != "" {
		api = r.PathPrefix(p).Subrouter()
	}
	api.Methods(http.MethodGet, http.MethodHead).Path("/plants").HandlerFunc(PlantsListHandler(db, logger))
	api.Methods(http.MethodPost).Path("/plants").HandlerFunc(NewPlantHandler(db, logger))
	api.Methods(http.MethodPut).Path("/plants/id/{id}").HandlerFunc(UpdatePlantHandler(db, logger, byID))
	api.Methods(http.MethodPut).Path("/plants/name/{name}").HandlerFunc(UpdatePlantHandler(db, logger, byName))
	api.Methods(http.MethodDelete).Path("/plants/id/{id}").HandlerFunc(DeletePlantHandler(db, logger, byID))
	api.Methods(http.MethodDelete).Path("/plants/name/{name}").HandlerFunc(DeletePlantHandler(db, logger, byName))

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, logger, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, logger, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(handler, w, r)
			logger.Info("handled",
				"method", r.Method,
				"url", r.URL,
				"duration", m.Duration,
				"status", m.Code,
				"request_id", r.Header.Get("X-Request-Id"),
			)
		})
	}
}

// HealthHandler answers 200 when the database is reachable and 503 otherwise.
func HealthHandler(db database.Database, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			logger.Error("health check failed", "err", err)
			writeError(w, logger, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// PlantsListHandler returns a handler writing every plant as a json array.
func PlantsListHandler(db database.Database, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := db.ListPlants(r.Context())
		if err != nil {
			internalError(w, logger, "list plants", err)
			return
		}
		out := make([]messages.JsonPlant, 0, len(list))
		for _, p := range list {
			out = append(out, messages.FromPlant(p))
		}
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			return
		}
		writeJSON(w, logger, http.StatusOK, out)
	}
}

// NewPlantHandler returns a handler creating a plant from a json body. The
// created plant is sent back with its identifier.
func NewPlantHandler(db database.Database, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := readDraft(w, r, logger)
		if !ok {
			return
		}
		p, err := db.AddPlant(r.Context(), d)
		if err != nil {
			storeError(w, logger, "add plant", err)
			return
		}
		logger.Info("plant added", "id", p.ID, "name", p.Name)
		writeJSON(w, logger, http.StatusOK, messages.FromPlant(p))
	}
}

// UpdatePlantHandler returns a handler replacing the fields of the plant
// addressed by the route.
func UpdatePlantHandler(db database.Database, logger *slog.Logger, by addressing) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr, ok := by(w, r, logger)
		if !ok {
			return
		}
		d, ok := readDraft(w, r, logger)
		if !ok {
			return
		}
		var (
			p   plants.Plant
			err error
		)
		switch addr.Kind() {
		case plants.AddressByID:
			p, err = db.UpdatePlantByID(r.Context(), addr.ID(), d)
		case plants.AddressByName:
			p, err = db.UpdatePlantByName(r.Context(), addr.Name(), d)
		}
		if err != nil {
			storeError(w, logger, "update plant", err)
			return
		}
		logger.Info("plant updated", "address", addr, "name", p.Name)
		writeJSON(w, logger, http.StatusOK, messages.FromPlant(p))
	}
}

// DeletePlantHandler returns a handler removing the plant addressed by the
// route. It answers 204 with no body.
func DeletePlantHandler(db database.Database, logger *slog.Logger, by addressing) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr, ok := by(w, r, logger)
		if !ok {
			return
		}
		var err error
		switch addr.Kind() {
		case plants.AddressByID:
			err = db.DeletePlantByID(r.Context(), addr.ID())
		case plants.AddressByName:
			err = db.DeletePlantByName(r.Context(), addr.Name())
		}
		if err != nil {
			storeError(w, logger, "delete plant", err)
			return
		}
		logger.Info("plant deleted", "address", addr)
		w.WriteHeader(http.StatusNoContent)
	}
}

// addressing reads the plant address from the route, writing an error
// response when it is invalid.
type addressing func(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (plants.Address, bool)

func byID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (plants.Address, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, logger, http.StatusUnprocessableEntity, invalidID)
		return plants.Address{}, false
	}
	return plants.ByID(id), true
}

func byName(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (plants.Address, bool) {
	name, err := url.PathUnescape(mux.Vars(r)["name"])
	if err != nil || strings.TrimSpace(name) == "" || !utf8.ValidString(name) {
		writeError(w, logger, http.StatusUnprocessableEntity, invalidName)
		return plants.Address{}, false
	}
	return plants.ByName(name), true
}

// readDraft decodes and validates the request body. The returned draft is
// trimmed.
func readDraft(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (plants.Draft, bool) {
	var jd messages.JsonDraft
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&jd); err != nil {
		writeError(w, logger, http.StatusUnprocessableEntity, invalidBody)
		return plants.Draft{}, false
	}
	d, err := jd.Draft().Validate()
	if err != nil {
		writeError(w, logger, http.StatusUnprocessableEntity, err.Error())
		return plants.Draft{}, false
	}
	if len(d.Name) > nameMaxLen || !utf8.ValidString(d.Name) {
		writeError(w, logger, http.StatusUnprocessableEntity, invalidName)
		return plants.Draft{}, false
	}
	return d, true
}

func storeError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, database.ErrDuplicateName):
		writeError(w, logger, http.StatusBadRequest, duplicateName)
	case errors.Is(err, database.ErrPlantNotFound):
		writeError(w, logger, http.StatusNotFound, notFound)
	default:
		internalError(w, logger, op, err)
	}
}

func internalError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	logger.Error("database error", "op", op, "err", err)
	writeError(w, logger, http.StatusInternalServerError, "Internal server error")
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, detail string) {
	writeJSON(w, logger, status, messages.NewJsonError(detail))
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to write out", "err", err)
	}
}
