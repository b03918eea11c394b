package handlers

import (
	"encoding/json"
	"net/http"
	"os"
)

// apiResponse is the envelope every route answers with. statusCode is
// carried in the body on error paths the way the original API shaped
// it; clients read the envelope, not just the HTTP status.
type apiResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Data       any    `json:"data,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"Internal Server Error","statusCode":500}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondSuccess(w http.ResponseWriter, code int, message string, data any) {
	respondWithJSON(w, code, apiResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, apiResponse{
		Success:    false,
		Message:    message,
		StatusCode: code,
	})
}

// internalMessage hides error detail from clients outside development.
func internalMessage(err error) string {
	if os.Getenv("APP_ENV") == "development" {
		return err.Error()
	}
	return "Internal Server Error"
}
