package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"postboard/internal/httputil"
	"postboard/internal/model"
	"postboard/internal/transport/http/middleware"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into dst. An empty body leaves dst zeroed
// so the field checks report what is missing.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteBadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// requireUser returns the authenticated user's ID or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
	}
	return userID, ok
}

// writeValidationOrInternal handles the errors every endpoint can see: field
// validation failures become 400, anything else is logged and reported as 500.
func writeValidationOrInternal(w http.ResponseWriter, err error, op string) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		httputil.WriteValidationErrors(w, verr)
		return
	}
	log.Printf("[ERROR] %s: %v", op, err)
	httputil.WriteInternalError(w, "Server error")
}
