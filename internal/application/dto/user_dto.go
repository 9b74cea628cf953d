package dto

import "time"

// LoginRequest body para POST /api/auth/login (username acepta también el email).
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse respuesta del login con JWT.
type LoginResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

// UserResponse usuario en respuestas (sin hash).
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUserRequest body para POST /api/users.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // user (default) | manager
}

// UserListResponse respuesta de GET /api/users.
type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}

// ManagerSettingsRequest body para POST /api/manager-settings.
type ManagerSettingsRequest struct {
	NotificationEmail    string `json:"notification_email"`
	EnableLowStockAlerts *bool  `json:"enable_low_stock_alerts"`
	EnableExpiryAlerts   *bool  `json:"enable_expiry_alerts"`
}

// ToggleAlertsRequest body para PATCH /api/manager-settings/toggle-alerts.
type ToggleAlertsRequest struct {
	Enable *bool  `json:"enable"`
	Kind   string `json:"kind"` // low_stock (default) | expiry | all
}

// ManagerSettingsResponse preferencias de notificación.
type ManagerSettingsResponse struct {
	UserID               int64     `json:"user_id"`
	NotificationEmail    string    `json:"notification_email"`
	EnableLowStockAlerts bool      `json:"enable_low_stock_alerts"`
	EnableExpiryAlerts   bool      `json:"enable_expiry_alerts"`
	Configured           bool      `json:"configured"`
	UpdatedAt            time.Time `json:"updated_at,omitempty"`
}

// ManagerSettingsEnvelope respuesta de escritura de preferencias.
type ManagerSettingsEnvelope struct {
	Message  string                  `json:"message"`
	Settings ManagerSettingsResponse `json:"settings"`
}
