package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"vehicle-telemetry-monitor/internal/cache"
	"vehicle-telemetry-monitor/internal/codec"
	"vehicle-telemetry-monitor/internal/db"
	"vehicle-telemetry-monitor/internal/logger"
	"vehicle-telemetry-monitor/internal/models"
	"vehicle-telemetry-monitor/internal/parser"
)

// Server represents the API server
type Server struct {
	db         *db.Database
	latest     *cache.Latest
	lowBattery int
	router     *mux.Router
}

// NewServer creates a new API server. latest may be nil.
func NewServer(database *db.Database, latest *cache.Latest, lowBatteryPercent int) *Server {
	s := &Server{
		db:         database,
		latest:     latest,
		lowBattery: lowBatteryPercent,
		router:     mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.HandleFunc("/api/v1/vehicles", s.handleListVehicles).Methods("GET")
	s.router.HandleFunc("/api/v1/vehicles", s.handleCreateVehicle).Methods("POST")
	s.router.HandleFunc("/api/v1/vehicles/{id}", s.handleGetVehicle).Methods("GET")

	s.router.HandleFunc("/api/v1/telemetry", s.handleQueryTelemetry).Methods("GET")
	s.router.HandleFunc("/api/v1/telemetry", s.handleCreateTelemetry).Methods("POST")
	s.router.HandleFunc("/api/v1/telemetry/batch", s.handleBatchTelemetry).Methods("POST")
	s.router.HandleFunc("/api/v1/telemetry/latest/{vehicle_id}", s.handleLatestTelemetry).Methods("GET")
	s.router.HandleFunc("/api/v1/telemetry/summary/{vehicle_id}", s.handleTelemetrySummary).Methods("GET")

	s.router.HandleFunc("/api/v1/alerts", s.handleGetAlerts).Methods("GET")

	s.router.HandleFunc("/api/v1/decode/version", s.handleDecodeVersion).Methods("GET")
	s.router.HandleFunc("/api/v1/decode/capabilities", s.handleDecodeCapabilities).Methods("GET")

	s.router.HandleFunc("/api/v1/stats", s.handleStats).Methods("GET")

	s.router.Use(loggingMiddleware)
}

// Router returns the configured router
func (s *Server) Router() *mux.Router {
	return s.router
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.WithField("method", r.Method).
			WithField("path", r.URL.Path).
			WithField("duration", time.Since(start).String()).
			Debug("request")
	})
}

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *meta       `json:"meta,omitempty"`
}

type meta struct {
	Total   int   `json:"total,omitempty"`
	Limit   int   `json:"limit,omitempty"`
	Offset  int   `json:"offset,omitempty"`
	QueryMs int64 `json:"query_ms,omitempty"`
}

// respond writes body in the encoding chosen by the "format" query parameter.
func respond(w http.ResponseWriter, r *http.Request, status int, body apiResponse) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format != codec.YAML && format != codec.CBOR {
		format = codec.JSON
	}

	w.Header().Set("Content-Type", codec.ContentType(format))
	w.WriteHeader(status)
	if err := codec.Encode(w, format, body); err != nil {
		logger.WithField("path", r.URL.Path).Error("failed to encode response: ", err)
	}
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	respond(w, r, status, apiResponse{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respond(w, r, status, apiResponse{Success: false, Error: message})
}

func respondWithMeta(w http.ResponseWriter, r *http.Request, data interface{}, m *meta) {
	respond(w, r, http.StatusOK, apiResponse{Success: true, Data: data, Meta: m})
}

func reports(records []models.RawTelemetry) []models.Report {
	out := make([]models.Report, 0, len(records))
	for _, rec := range records {
		out = append(out, models.NewSnapshot(rec).Report())
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := s.db.ListVehicles()
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	respondJSON(w, r, http.StatusOK, vehicles)
}

func (s *Server) handleCreateVehicle(w http.ResponseWriter, r *http.Request) {
	var v models.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}

	if v.ID == "" || v.Name == "" {
		respondError(w, r, http.StatusBadRequest, "id and name are required")
		return
	}

	if err := s.db.InsertVehicle(&v); err != nil {
		respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, r, http.StatusCreated, v)
}

func (s *Server) handleGetVehicle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	vehicle, err := s.db.GetVehicle(id)
	if errors.Is(err, db.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, "vehicle not found")
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, r, http.StatusOK, vehicle)
}

func (s *Server) handleQueryTelemetry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params := r.URL.Query()

	q := models.TelemetryQuery{
		VehicleID: params.Get("vehicle_id"),
		Mode:      params.Get("mode"),
		Limit:     100,
	}

	var err error
	if v := params.Get("limit"); v != "" {
		if q.Limit, err = strconv.Atoi(v); err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid limit")
			return
		}
	}
	if v := params.Get("offset"); v != "" {
		if q.Offset, err = strconv.Atoi(v); err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid offset")
			return
		}
	}
	if v := params.Get("start_time"); v != "" {
		if q.StartTime, err = time.Parse(time.RFC3339, v); err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid start_time (use RFC3339)")
			return
		}
	}
	if v := params.Get("end_time"); v != "" {
		if q.EndTime, err = time.Parse(time.RFC3339, v); err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid end_time (use RFC3339)")
			return
		}
	}

	results, err := s.db.QueryTelemetry(q)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithMeta(w, r, reports(results), &meta{
		Total:   len(results),
		Limit:   q.Limit,
		Offset:  q.Offset,
		QueryMs: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleCreateTelemetry(w http.ResponseWriter, r *http.Request) {
	var t models.RawTelemetry
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}

	if errs := parser.ValidateTelemetry(&t); len(errs) > 0 {
		respondError(w, r, http.StatusBadRequest, errs[0])
		return
	}

	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}

	if err := s.db.InsertTelemetry(&t); err != nil {
		respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	s.cacheLatest(r, t)

	respondJSON(w, r, http.StatusCreated, models.NewSnapshot(t).Report())
}

func (s *Server) handleBatchTelemetry(w http.ResponseWriter, r *http.Request) {
	var records []models.RawTelemetry
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid JSON array")
		return
	}

	if len(records) == 0 {
		respondError(w, r, http.StatusBadRequest, "empty array")
		return
	}

	now := time.Now().UTC()
	for i := range records {
		if errs := parser.ValidateTelemetry(&records[i]); len(errs) > 0 {
			respondError(w, r, http.StatusBadRequest, fmt.Sprintf("record %d: %s", i, errs[0]))
			return
		}
		if records[i].Timestamp.IsZero() {
			records[i].Timestamp = now
		}
	}

	count, err := s.db.InsertTelemetryBatch(records)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	for _, t := range records {
		s.cacheLatest(r, t)
	}

	respondJSON(w, r, http.StatusCreated, map[string]int64{"inserted": count})
}

// cacheLatest updates the latest-record cache. Failures are logged only;
// SQLite stays the source of truth.
func (s *Server) cacheLatest(r *http.Request, t models.RawTelemetry) {
	if err := s.latest.Put(r.Context(), t); err != nil {
		logger.WithField("vehicle_id", t.VehicleID).Warn("failed to cache latest telemetry: ", err)
	}
}

func (s *Server) handleLatestTelemetry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	vehicleID := mux.Vars(r)["vehicle_id"]

	t, err := s.latest.Get(r.Context(), vehicleID)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			logger.WithField("vehicle_id", vehicleID).Warn("latest telemetry cache: ", err)
		}
		t, err = s.db.GetLatestTelemetry(vehicleID)
	}
	if errors.Is(err, db.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, "no telemetry found for vehicle")
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithMeta(w, r, models.NewSnapshot(*t).Report(), &meta{QueryMs: time.Since(start).Milliseconds()})
}

func (s *Server) handleTelemetrySummary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	vehicleID := mux.Vars(r)["vehicle_id"]

	summary, err := s.db.GetTelemetrySummary(vehicleID)
	if errors.Is(err, db.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, "no data found for vehicle")
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithMeta(w, r, summary, &meta{QueryMs: time.Since(start).Milliseconds()})
}

func (s *Server) handleGetAlerts(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		var err error
		if limit, err = strconv.Atoi(v); err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	alerts, err := s.db.GetAlerts(r.URL.Query().Get("vehicle_id"), s.lowBattery, limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, r, http.StatusOK, alerts)
}

type versionResponse struct {
	models.Version
	Label          string `json:"label"`
	Stable         bool   `json:"stable"`
	ReleaseType    string `json:"release_type,omitempty"`
	ReleaseVersion *int   `json:"release_version,omitempty"`
}

func (s *Server) handleDecodeVersion(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	var raw *uint32
	if v := params.Get("raw"); v != "" {
		n, err := strconv.ParseUint(v, 0, 32)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid raw version")
			return
		}
		raw = models.Ptr(uint32(n))
	}

	autopilot, err := parseCode(params.Get("autopilot"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid autopilot type")
		return
	}
	vehicle, err := parseCode(params.Get("vehicle"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid vehicle type")
		return
	}

	v := models.DecodeVersion(raw, models.AutopilotType(autopilot), models.VehicleType(vehicle))
	resp := versionResponse{Version: v, Label: v.String(), Stable: v.IsStable()}
	resp.ReleaseType, resp.ReleaseVersion = v.ReleaseLabel()

	respondJSON(w, r, http.StatusOK, resp)
}

func parseCode(s string) (uint8, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 0, 8)
	return uint8(n), err
}

type capabilitiesResponse struct {
	models.Capabilities
	EnabledNames []string `json:"enabled"`
}

func (s *Server) handleDecodeCapabilities(w http.ResponseWriter, r *http.Request) {
	raw, err := strconv.ParseUint(r.URL.Query().Get("raw"), 0, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid raw capabilities")
		return
	}

	c := models.DecodeCapabilities(raw)
	enabled := c.Enabled()
	if enabled == nil {
		enabled = []string{}
	}
	respondJSON(w, r, http.StatusOK, capabilitiesResponse{Capabilities: c, EnabledNames: enabled})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetStats(s.lowBattery)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, r, http.StatusOK, stats)
}
