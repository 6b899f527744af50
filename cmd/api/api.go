package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Bogdan-dragos/vrm-api/internal/config"
	"github.com/Bogdan-dragos/vrm-api/internal/lookup"
	"github.com/Bogdan-dragos/vrm-api/internal/models"
)

type App struct {
	Router *mux.Router
	Lookup *lookup.Service
	Logger *zap.Logger
}

func (a *App) Initialize(cfg config.Config, logger *zap.Logger) {
	a.Logger = logger
	a.Lookup = lookup.New(cfg, logger)
	a.Router = mux.NewRouter()
	a.Router.StrictSlash(true)
	a.Router.HandleFunc("/lookup", a.LookupHandler).Methods("GET", "OPTIONS")
	a.Router.Use(corsMiddleware, contentTypeApplicationJsonMiddleware)
}

func (a *App) Run(addr string) {
	srv := &http.Server{
		Handler:      a.Router,
		Addr:         addr,
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
	a.Logger.Info("listening", zap.String("addr", addr))
	a.Logger.Fatal("server stopped", zap.Error(srv.ListenAndServe()))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func contentTypeApplicationJsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// lookupResponse is the wire shape of a successful lookup. Note and
// Debug only appear when set.
type lookupResponse struct {
	models.VehicleRecord
	Note  string     `json:"note,omitempty"`
	Debug *debugInfo `json:"_debug,omitempty"`
}

type debugInfo struct {
	RequestID string           `json:"requestId"`
	Attempts  []models.Attempt `json:"attempts"`
}

// LookupHandler answers GET /lookup?vrm=<plate>&debug=<0|1>. The only
// non-200 outcome is a missing VRM; every upstream failure, and even an
// internal panic, still produces a 200 with best-effort data.
func (a *App) LookupHandler(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	start := time.Now()

	vrm := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("vrm")))
	defer func() {
		if rec := recover(); rec != nil {
			a.Logger.Error("lookup panicked",
				zap.String("requestId", requestID), zap.Any("panic", rec))
			writeJSON(w, http.StatusOK, lookupResponse{
				VehicleRecord: models.VehicleRecord{VRM: vrm},
				Note:          "lookup degraded: internal error",
			})
		}
	}()

	if vrm == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing vrm param ?vrm=AB12CDE"})
		return
	}
	debug := r.URL.Query().Get("debug") == "1"

	out := a.Lookup.Lookup(r.Context(), vrm)
	resp := lookupResponse{VehicleRecord: out.Record}
	if debug {
		resp.Debug = &debugInfo{RequestID: requestID, Attempts: out.Attempts}
	}

	a.Logger.Info("lookup served",
		zap.String("requestId", requestID),
		zap.String("vrm", vrm),
		zap.Int("attempts", len(out.Attempts)),
		zap.Duration("duration", time.Since(start)))
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("{}"))
		return
	}
	w.WriteHeader(status)
	w.Write(body)
}
