package admin

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chatlink/anonchat/internal/db"
	svcErr "github.com/chatlink/anonchat/internal/errors"
	"github.com/chatlink/anonchat/internal/server"
)

// Registrar ties the admin surface into the HTTP router.
type Registrar struct {
	svc *Service
}

func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

func (reg *Registrar) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", reg.login)
		r.Post("/ban", reg.ban)
		r.Post("/unban", reg.unban)
		r.Post("/force-pair", reg.forcePair)
		r.Post("/disconnect", reg.disconnect)
		r.Get("/stats", reg.stats)
		r.Get("/audit", reg.audit)
		r.Get("/pairs/{userID}", reg.pairInfo)
	})
}

type loginRequest struct {
	UserID int64  `json:"user_id"`
	Secret string `json:"secret"`
}

func (reg *Registrar) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}
	if err := reg.svc.Authenticate(r.Context(), req.UserID, req.Secret); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]bool{"admin": true})
}

type targetRequest struct {
	AdminID  int64 `json:"admin_id"`
	TargetID int64 `json:"target_id"`
}

func (reg *Registrar) ban(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}
	if err := reg.svc.Ban(r.Context(), req.AdminID, req.TargetID); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]bool{"banned": true})
}

func (reg *Registrar) unban(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}
	if err := reg.svc.Unban(r.Context(), req.AdminID, req.TargetID); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]bool{"banned": false})
}

type forcePairRequest struct {
	AdminID  int64  `json:"admin_id"`
	UserA    int64  `json:"user_a"`
	UserB    int64  `json:"user_b"`
	Language string `json:"language"`
}

func (reg *Registrar) forcePair(w http.ResponseWriter, r *http.Request) {
	var req forcePairRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}
	pairID, err := reg.svc.ForcePair(r.Context(), req.AdminID, req.UserA, req.UserB, db.Language(req.Language))
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"pair_id": pairID})
}

func (reg *Registrar) disconnect(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}
	if err := reg.svc.Disconnect(r.Context(), req.AdminID, req.TargetID); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]bool{"disconnected": true})
}

func (reg *Registrar) stats(w http.ResponseWriter, r *http.Request) {
	adminID, err := strconv.ParseInt(r.URL.Query().Get("admin_id"), 10, 64)
	if err != nil {
		server.WriteError(w, svcErr.InvalidArgument("admin_id must be a valid integer"))
		return
	}
	stats, err := reg.svc.Stats(r.Context(), adminID)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, stats)
}

func (reg *Registrar) audit(w http.ResponseWriter, r *http.Request) {
	adminID, err := strconv.ParseInt(r.URL.Query().Get("admin_id"), 10, 64)
	if err != nil {
		server.WriteError(w, svcErr.InvalidArgument("admin_id must be a valid integer"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	logs, err := reg.svc.AuditTrail(r.Context(), adminID, limit)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, logs)
}

func (reg *Registrar) pairInfo(w http.ResponseWriter, r *http.Request) {
	adminID, err := strconv.ParseInt(r.URL.Query().Get("admin_id"), 10, 64)
	if err != nil {
		server.WriteError(w, svcErr.InvalidArgument("admin_id must be a valid integer"))
		return
	}
	targetID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		server.WriteError(w, svcErr.InvalidArgument("userID must be a valid integer"))
		return
	}
	pair, err := reg.svc.PairInfo(r.Context(), adminID, targetID)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, pair)
}
