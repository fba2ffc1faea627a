package profile

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chatlink/anonchat/internal/db"
	svcErr "github.com/chatlink/anonchat/internal/errors"
	"github.com/chatlink/anonchat/internal/server"
)

// Registrar ties the profile surface into the HTTP router.
type Registrar struct {
	svc *Service
}

func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

func (reg *Registrar) Register(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/", reg.register)
		r.Put("/{userID}/settings", reg.updateSettings)
		r.Get("/{userID}/stats", reg.stats)
		r.Get("/{userID}/referral-payload", reg.referralPayload)
	})
}

type registerRequest struct {
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	Gender       int16  `json:"gender"`
	Language     string `json:"language"`
	AgeRange     string `json:"age_range"`
	StartPayload string `json:"start_payload"`
}

func (reg *Registrar) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}

	user, err := reg.svc.Register(r.Context(), RegisterInput{
		UserID:             req.UserID,
		Username:           req.Username,
		DisplayName:        req.DisplayName,
		Gender:             db.Gender(req.Gender),
		LanguagePreference: db.Language(req.Language),
		AgeRange:           req.AgeRange,
		StartPayload:       req.StartPayload,
	})
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, user)
}

type settingsRequest struct {
	DisplayName      *string `json:"display_name"`
	Gender           *int16  `json:"gender"`
	GenderPreference *int16  `json:"gender_preference"`
	Language         *string `json:"language"`
	AgeRange         *string `json:"age_range"`
}

func (reg *Registrar) updateSettings(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	var req settingsRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.WriteError(w, err)
		return
	}

	in := SettingsInput{UserID: userID, DisplayName: req.DisplayName, AgeRange: req.AgeRange}
	if req.Gender != nil {
		g := db.Gender(*req.Gender)
		in.Gender = &g
	}
	if req.GenderPreference != nil {
		g := db.Gender(*req.GenderPreference)
		in.GenderPreference = &g
	}
	if req.Language != nil {
		l := db.Language(*req.Language)
		in.LanguagePreference = &l
	}

	user, err := reg.svc.UpdateSettings(r.Context(), in)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, user)
}

func (reg *Registrar) stats(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	stats, err := reg.svc.Stats(r.Context(), userID)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, stats)
}

func (reg *Registrar) referralPayload(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"payload": reg.svc.ReferralPayload(userID)})
}

func pathUserID(r *http.Request) (int64, error) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		return 0, svcErr.InvalidArgument("userID must be a valid integer")
	}
	return userID, nil
}
