package auth

import (
	"time"

	"backend-chirper/internal/store"
)

type RegisterRequest struct {
	DisplayName string `json:"display_name" validate:"omitempty,max=50"`
	Handle      string `json:"handle" validate:"required,min=3,max=30,handle"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	Gender      string `json:"gender" validate:"required,oneof=Male Female Other"`
}

type LoginRequest struct {
	Handle   string `json:"handle" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Token     string        `json:"token"`
	TokenType string        `json:"token_type"`
	ExpiresAt time.Time     `json:"expires_at"`
	Account   store.Account `json:"account"`
}
