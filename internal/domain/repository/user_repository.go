package repository

import (
	"context"

	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	// FindByLogin busca por username o email.
	FindByLogin(ctx context.Context, login string) (*entity.User, error)
	// ListByRole usuarios del rol, por id; rol vacío = todos.
	ListByRole(ctx context.Context, role string) ([]*entity.User, error)
}

// SettingsRepository persistencia de preferencias de notificación de managers.
type SettingsRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*entity.ManagerSettings, error)
	// Upsert crea o reemplaza la fila del usuario.
	Upsert(ctx context.Context, settings *entity.ManagerSettings) error
	List(ctx context.Context) ([]*entity.ManagerSettings, error)
}
