package matchmaking

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	svcErr "github.com/chatlink/anonchat/internal/errors"
	"github.com/chatlink/anonchat/internal/server"
)

// Registrar ties the chat engine into the HTTP router.
type Registrar struct {
	svc *Service
}

func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

func (reg *Registrar) Register(r chi.Router) {
	r.Route("/chat", func(r chi.Router) {
		r.Post("/find", reg.findChat)
		r.Post("/cancel", reg.cancelSearch)
		r.Post("/end", reg.endChat)
		r.Post("/next", reg.nextPartner)
		r.Post("/message", reg.sendMessage)
		r.Post("/block", reg.blockPartner)
		r.Post("/report", reg.reportPartner)
	})
}

type userRequest struct {
	UserID int64 `json:"user_id"`
}

type matchResponse struct {
	Matched   bool   `json:"matched"`
	PairID    string `json:"pair_id,omitempty"`
	PartnerID int64  `json:"partner_id,omitempty"`
}

func (reg *Registrar) findChat(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}
	if req.UserID == 0 {
		server.WriteError(w, svcErr.InvalidArgument("user_id is required"))
		return
	}

	result, err := reg.svc.FindChat(r.Context(), req.UserID)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, matchResponse{
		Matched:   result.Matched,
		PairID:    result.PairID,
		PartnerID: result.PartnerID,
	})
}

func (reg *Registrar) cancelSearch(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}
	if err := reg.svc.CancelSearch(r.Context(), req.UserID); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

func (reg *Registrar) endChat(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}
	if err := reg.svc.EndChat(r.Context(), req.UserID); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]bool{"ended": true})
}

func (reg *Registrar) nextPartner(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}
	result, err := reg.svc.NextPartner(r.Context(), req.UserID)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, matchResponse{
		Matched:   result.Matched,
		PairID:    result.PairID,
		PartnerID: result.PartnerID,
	})
}

type messageRequest struct {
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
}

func (reg *Registrar) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}
	if req.Text == "" {
		server.WriteError(w, svcErr.InvalidArgument("text is required"))
		return
	}

	result, err := reg.svc.SendMessage(r.Context(), req.UserID, req.Text)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"status":     string(result.Status),
		"reason":     result.Reason,
		"partner_id": result.PartnerID,
		"text":       result.Text,
	})
}

func (reg *Registrar) blockPartner(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}
	if err := reg.svc.BlockPartner(r.Context(), req.UserID); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]bool{"blocked": true})
}

type reportRequest struct {
	UserID int64  `json:"user_id"`
	Reason string `json:"reason"`
}

func (reg *Registrar) reportPartner(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}
	if err := reg.svc.ReportPartner(r.Context(), req.UserID, req.Reason); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]bool{"reported": true})
}
