package entity

import "time"

// Roles válidos para User.
const (
	RoleUser    = "user"
	RoleManager = "manager"
)

// User usuario del POS (cajero o manager).
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string // bcrypt
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsManager indica si el usuario tiene rol manager.
func (u *User) IsManager() bool { return u.Role == RoleManager }

// ManagerSettings preferencias de notificación de un manager (una fila por usuario).
type ManagerSettings struct {
	ID                   int64
	UserID               int64
	NotificationEmail    string
	EnableLowStockAlerts bool
	EnableExpiryAlerts   bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
