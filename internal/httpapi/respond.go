package httpapi

import (
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Error body codes used across the API.
const (
	codeInvalidArgument = "invalidArgument"
	codeInvalidMethod   = "invalidMethod"
	codeInvalidToken    = "invalidToken"
	codeUnknownToken    = "unknownToken"
	codeMapNotFound     = "mapNotFound"
	codeBadRequest      = "badRequest"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON serializes v with the standard API headers. Responses carry
// no-cache so clients always see fresh game state.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

// writeMethodNotAllowed reports the allowed verbs both in the Allow header
// and the error body.
func writeMethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, codeInvalidMethod,
		"Only "+strings.Join(allowed, ", ")+" method is expected")
}
