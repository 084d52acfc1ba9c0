package dto

import (
	"time"

	"github.com/noah-isme/thesis-portal/internal/models"
)

// LoginRequest captures POST /auth/login payload.
type LoginRequest struct {
	Cedula   string `json:"cedula" validate:"required,numeric,min=5,max=20"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the session token and the resolved identity.
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Identity  models.Identity `json:"identity"`
	Session   SessionResponse `json:"session"`
}

// SessionResponse describes the active session for the browser shell.
type SessionResponse struct {
	Identity          models.Identity `json:"identity"`
	Variant           string          `json:"variant"`
	Permissions       []string        `json:"permissions"`
	Menu              []MenuItem      `json:"menu"`
	ShowNotifications bool            `json:"showNotifications"`
}

// MenuItem is a navigation entry.
type MenuItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}
