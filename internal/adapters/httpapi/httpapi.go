// Package httpapi implements the admin/operational HTTP surface (spec.md
// section 6): one handler per AuthMgr admin setter, mapping
// domain.Result onto an HTTP status the way spec.md section 6's example
// CLI exit-code table maps it onto a process exit code. Grounded on the
// teacher's handler-per-operation shape (internal/adapters/web/handlers)
// and its gorilla/mux route-variable usage (wps_handler.go).
package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/sonic-net/sonic-pacd/internal/core/ports"
	"github.com/sonic-net/sonic-pacd/internal/core/services/authmgr"
)

// Server exposes AuthMgr's admin surface over HTTP.
type Server struct {
	mgr   *authmgr.AuthMgr
	log   *slog.Logger
	audit ports.AuditLog
}

// New returns a Server wrapping mgr. audit may be nil, in which case
// operations are not recorded.
func New(mgr *authmgr.AuthMgr, log *slog.Logger, audit ports.AuditLog) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{mgr: mgr, log: log, audit: audit}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/ports/{physPort}/admin-mode", s.handleAdminMode).Methods(http.MethodPut)
	r.HandleFunc("/api/ports/{physPort}/control-mode", s.handleControlMode).Methods(http.MethodPut)
	r.HandleFunc("/api/ports/{physPort}/host-mode", s.handleHostMode).Methods(http.MethodPut)
	r.HandleFunc("/api/ports/{physPort}/max-users", s.handleMaxUsers).Methods(http.MethodPut)
	r.HandleFunc("/api/ports/{physPort}/quiet-period", s.handleQuietPeriod).Methods(http.MethodPut)
	r.HandleFunc("/api/ports/{physPort}/reauth-period", s.handleReauthPeriod).Methods(http.MethodPut)
	r.HandleFunc("/api/ports/{physPort}/reauth-enabled", s.handleReauthEnabled).Methods(http.MethodPut)
	r.HandleFunc("/api/ports/{physPort}/pae-capability", s.handlePaeCapability).Methods(http.MethodPut)
	r.HandleFunc("/api/ports/{physPort}/method-order", s.handleMethodOrder).Methods(http.MethodPut)
	r.HandleFunc("/api/ports/{physPort}/method-priority", s.handleMethodPriority).Methods(http.MethodPut)
	r.HandleFunc("/api/ports/{physPort}/init", s.handlePortInit).Methods(http.MethodPost)
	r.HandleFunc("/api/ports/{physPort}/reauthenticate", s.handlePortReauthenticate).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

// resultStatus maps domain.Result to an HTTP status, the wire-protocol
// analogue of spec.md section 6's CLI exit-code table.
func resultStatus(res domain.Result) int {
	switch res {
	case domain.Success:
		return http.StatusOK
	case domain.InvalidParameter:
		return http.StatusBadRequest
	case domain.RequestDenied:
		return http.StatusConflict
	case domain.NotExist:
		return http.StatusNotFound
	case domain.CapacityExceeded:
		return http.StatusInsufficientStorage
	case domain.Busy:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeResult(w http.ResponseWriter, res domain.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resultStatus(res))
	_ = json.NewEncoder(w).Encode(map[string]string{"result": res.String()})
}

// respond writes res as the HTTP response and, if an audit log is
// configured, records the operation (spec.md section 6: every
// admin-surface setter is audited, distinct from RADIUS accounting).
func (s *Server) respond(w http.ResponseWriter, r *http.Request, op string, physPort uint32, params string, res domain.Result) {
	s.writeResult(w, res)
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(r.Context(), domain.AuditEntry{
		Operation: op,
		PhysPort:  physPort,
		Params:    params,
		Result:    res.String(),
	}); err != nil {
		s.log.Warn("audit record failed", "operation", op, "error", err)
	}
}

func physPortFrom(r *http.Request) (uint32, bool) {
	v, err := strconv.ParseUint(mux.Vars(r)["physPort"], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

func (s *Server) handleAdminMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	s.respond(w, r, "AdminModeSet", 0, fmt.Sprintf("%+v", body), s.mgr.AdminModeSet(body.Enabled))
}

func (s *Server) handleControlMode(w http.ResponseWriter, r *http.Request) {
	physPort, ok := physPortFrom(r)
	if !ok {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	var body struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	mode, ok := parseControlMode(body.Mode)
	if !ok {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	s.respond(w, r, "PortControlModeSet", physPort, body.Mode, s.mgr.PortControlModeSet(physPort, mode))
}

func (s *Server) handleHostMode(w http.ResponseWriter, r *http.Request) {
	physPort, ok := physPortFrom(r)
	if !ok {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	var body struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	mode, ok := parseHostMode(body.Mode)
	if !ok {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	s.respond(w, r, "HostModeSet", physPort, body.Mode, s.mgr.HostModeSet(physPort, mode))
}

func (s *Server) handleMaxUsers(w http.ResponseWriter, r *http.Request) {
	physPort, ok := physPortFrom(r)
	if !ok {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	var body struct {
		MaxUsers int `json:"maxUsers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	s.respond(w, r, "MaxUsersSet", physPort, fmt.Sprintf("%d", body.MaxUsers), s.mgr.MaxUsersSet(physPort, body.MaxUsers))
}

func (s *Server) handleQuietPeriod(w http.ResponseWriter, r *http.Request) {
	physPort, ok := physPortFrom(r)
	if !ok {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	var body struct {
		Seconds int `json:"seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	s.respond(w, r, "QuietPeriodSet", physPort, fmt.Sprintf("%d", body.Seconds), s.mgr.QuietPeriodSet(physPort, body.Seconds))
}

func (s *Server) handleReauthPeriod(w http.ResponseWriter, r *http.Request) {
	physPort, ok := physPortFrom(r)
	if !ok {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	var body struct {
		Seconds int `json:"seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	s.respond(w, r, "ReauthPeriodSet", physPort, fmt.Sprintf("%d", body.Seconds), s.mgr.ReauthPeriodSet(physPort, body.Seconds))
}

func (s *Server) handleReauthEnabled(w http.ResponseWriter, r *http.Request) {
	physPort, ok := physPortFrom(r)
	if !ok {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	s.respond(w, r, "ReauthEnabledSet", physPort, fmt.Sprintf("%v", body.Enabled), s.mgr.ReauthEnabledSet(physPort, body.Enabled))
}

func (s *Server) handlePaeCapability(w http.ResponseWriter, r *http.Request) {
	physPort, ok := physPortFrom(r)
	if !ok {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	var body struct {
		Capable bool `json:"capable"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	cap := domain.PaeNone
	if body.Capable {
		cap = domain.PaeAuthCapable
	}
	s.respond(w, r, "PaeCapabilitiesSet", physPort, fmt.Sprintf("%v", body.Capable), s.mgr.PaeCapabilitiesSet(physPort, cap))
}

func (s *Server) handleMethodOrder(w http.ResponseWriter, r *http.Request) {
	physPort, ok := physPortFrom(r)
	if !ok {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	var body struct {
		Methods []string `json:"methods"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	methods, ok := parseMethods(body.Methods)
	if !ok {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	s.respond(w, r, "MethodOrderModify", physPort, fmt.Sprintf("%v", body.Methods), s.mgr.MethodOrderModify(physPort, methods))
}

func (s *Server) handleMethodPriority(w http.ResponseWriter, r *http.Request) {
	physPort, ok := physPortFrom(r)
	if !ok {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	var body struct {
		Methods []string `json:"methods"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	methods, ok := parseMethods(body.Methods)
	if !ok {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	s.respond(w, r, "MethodPriorityModify", physPort, fmt.Sprintf("%v", body.Methods), s.mgr.MethodPriorityModify(physPort, methods))
}

func (s *Server) handlePortInit(w http.ResponseWriter, r *http.Request) {
	physPort, ok := physPortFrom(r)
	if !ok {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	s.respond(w, r, "PortInit", physPort, "", s.mgr.PortInit(physPort))
}

func (s *Server) handlePortReauthenticate(w http.ResponseWriter, r *http.Request) {
	physPort, ok := physPortFrom(r)
	if !ok {
		s.writeResult(w, domain.InvalidParameter)
		return
	}
	s.respond(w, r, "PortReauthenticate", physPort, "", s.mgr.PortReauthenticate(physPort))
}

func parseControlMode(s string) (domain.PortControlMode, bool) {
	switch s {
	case "auto":
		return domain.PortControlAuto, true
	case "force-authorized":
		return domain.PortControlForceAuth, true
	case "force-unauthorized":
		return domain.PortControlForceUnauth, true
	default:
		return domain.PortControlInvalid, false
	}
}

func parseHostMode(s string) (domain.HostMode, bool) {
	switch s {
	case "single-auth":
		return domain.HostModeSingleAuth, true
	case "multi-host":
		return domain.HostModeMultiHost, true
	case "multi-auth":
		return domain.HostModeMultiAuth, true
	default:
		return domain.HostModeInvalid, false
	}
}

func parseMethod(s string) (domain.AuthMethod, bool) {
	switch s {
	case "dot1x":
		return domain.Method8021X, true
	case "mab":
		return domain.MethodMAB, true
	default:
		return domain.MethodNone, false
	}
}

func parseMethods(in []string) ([]domain.AuthMethod, bool) {
	out := make([]domain.AuthMethod, 0, len(in))
	for _, s := range in {
		m, ok := parseMethod(s)
		if !ok {
			return nil, false
		}
		out = append(out, m)
	}
	return out, true
}
