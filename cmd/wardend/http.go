package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/closedclaw/warden/audit"
	"github.com/closedclaw/warden/call"
	"github.com/closedclaw/warden/command"
	"github.com/closedclaw/warden/dispatch"
	"github.com/closedclaw/warden/session"
)

type httpDeps struct {
	listen        string
	owner         string
	router        *command.Router
	monitor       *call.Monitor
	tel           *call.Loopback
	sessions      *session.Store
	confirmations *dispatch.Confirmations
	auditStore    *audit.GormStore
	log           *slog.Logger
}

// newHTTPServer exposes the local control surface. It binds to
// loopback only; there is no authentication layer beyond the engine
// gating every privileged operation behind it.
func newHTTPServer(d httpDeps) *http.Server {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"call_state":    d.monitor.State().String(),
			"session_valid": d.sessions.IsValid(d.owner),
		})
	}).Methods(http.MethodGet)

	r.HandleFunc("/command", func(w http.ResponseWriter, req *http.Request) {
		var in struct {
			PrincipalID string `json:"principal_id"`
			Text        string `json:"text"`
		}
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
			return
		}
		if strings.TrimSpace(in.PrincipalID) == "" {
			in.PrincipalID = d.owner
		}
		reply := d.router.Handle(req.Context(), dispatch.InboundCommand{
			PrincipalID: in.PrincipalID,
			Text:        in.Text,
		})
		writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
	}).Methods(http.MethodPost)

	r.HandleFunc("/confirmations/{token}/resolve", func(w http.ResponseWriter, req *http.Request) {
		token := mux.Vars(req)["token"]
		approve := req.URL.Query().Get("approve") != "false"
		if err := d.confirmations.Resolve(req.Context(), token, approve); err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"approved": approve})
	}).Methods(http.MethodPost)

	r.HandleFunc("/audit", func(w http.ResponseWriter, req *http.Request) {
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
		recs, err := d.auditStore.Query(req.Context(), audit.Filter{
			PrincipalID: req.URL.Query().Get("principal"),
			ActionKind:  req.URL.Query().Get("action"),
			Limit:       limit,
		})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
			return
		}
		writeJSON(w, http.StatusOK, recs)
	}).Methods(http.MethodGet)

	r.HandleFunc("/call/ring", func(w http.ResponseWriter, req *http.Request) {
		var in struct {
			Caller string `json:"caller"`
		}
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
			return
		}
		d.tel.Ring(in.Caller)
		writeJSON(w, http.StatusAccepted, map[string]string{"state": d.monitor.State().String()})
	}).Methods(http.MethodPost)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return &http.Server{
		Addr:              d.listen,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
