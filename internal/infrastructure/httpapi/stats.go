package httpapi

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"NordicDataFlow/internal/logging"
	"NordicDataFlow/internal/ports"
)

const firewallNote = "Ensure Azure IP firewall is open and Env Vars are set"

// Deps wires the read API. A nil Warehouse means the database is not configured.
type Deps struct {
	Warehouse ports.Warehouse
	Source    string
	Logger    *slog.Logger
}

type electricityStats struct {
	LatestMW     float64 `json:"latest_mw"`
	TotalRecords int     `json:"total_records"`
}

type companyStats struct {
	Total int `json:"total"`
}

type statsResponse struct {
	Electricity electricityStats `json:"electricity"`
	Companies   companyStats     `json:"companies"`
	Source      string           `json:"source"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Mock    bool     `json:"mock,omitempty"`
	Drivers []string `json:"drivers,omitempty"`
	Note    string   `json:"note,omitempty"`
}

// NewRouter exposes GET /api/stats for the dashboard.
func NewRouter(deps Deps) *mux.Router {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.HandleFunc("/api/stats", statsHandler(deps.Warehouse, deps.Source, logger)).Methods(http.MethodGet, http.MethodOptions)
	return router
}

func statsHandler(warehouse ports.Warehouse, source string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if warehouse == nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Database configuration missing", Mock: true})
			return
		}

		stats, err := warehouse.Stats(r.Context())
		if err != nil {
			msg := logging.RedactError(err)
			logger.Error("query stats", "error", msg)
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error:   msg,
				Drivers: sql.Drivers(),
				Note:    firewallNote,
			})
			return
		}

		writeJSON(w, http.StatusOK, statsResponse{
			Electricity: electricityStats{LatestMW: stats.LatestMW, TotalRecords: stats.TotalElectricity},
			Companies:   companyStats{Total: stats.TotalCompanies},
			Source:      source,
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
