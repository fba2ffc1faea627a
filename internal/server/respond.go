package server

import (
	"encoding/json"
	"net/http"

	svcErr "github.com/chatlink/anonchat/internal/errors"
)

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError maps an error through the central mapper and writes it.
func WriteError(w http.ResponseWriter, err error) {
	mapped := svcErr.Map(err)
	WriteJSON(w, mapped.Status, map[string]string{"error": mapped.Message})
}

// DecodeJSON decodes a request body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return svcErr.InvalidArgument("invalid request body")
	}
	return nil
}
