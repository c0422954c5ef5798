package response

import (
	"encoding/json"
	"net/http"
)

type GenericResponse struct {
	Message string      `json:"message"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

type AuthResponse struct {
	Message      string `json:"message"`
	Success      bool   `json:"success"`
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

func JSON(w http.ResponseWriter, status int, message string, data interface{}) {
	write(w, status, GenericResponse{Message: message, Success: status < http.StatusBadRequest, Data: data})
}

func Auth(w http.ResponseWriter, status int, message, accessToken, refreshToken string) {
	write(w, status, AuthResponse{
		Message:      message,
		Success:      status < http.StatusBadRequest,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// Message writes the bare {"message": ...} body used by the token gate.
func Message(w http.ResponseWriter, status int, message string) {
	write(w, status, map[string]string{"message": message})
}

func write(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
