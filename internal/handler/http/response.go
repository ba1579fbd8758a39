package http

import (
	"encoding/json"
	"net/http"
)

// Envelope statuses: "success" for results, "fail" for rejected input,
// "error" for everything else
const (
	statusSuccess = "success"
	statusFail    = "fail"
	statusError   = "error"
)

// Envelope wraps every JSON body the API returns
type Envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

// ErrorData is the data of "fail" and "error" envelopes
type ErrorData struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message string `json:"message"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Headers are already sent; nothing useful left to do on failure
	_ = json.NewEncoder(w).Encode(body)
}

func respondSuccess(w http.ResponseWriter, statusCode int, data any) {
	respondJSON(w, statusCode, Envelope{Status: statusSuccess, Data: data})
}

// respondFail reports input the client has to fix
func respondFail(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, Envelope{
		Status: statusFail,
		Data:   ErrorData{Error: ErrorDetail{Message: message}},
	})
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, Envelope{
		Status: statusError,
		Data:   ErrorData{Error: ErrorDetail{Message: message}},
	})
}
