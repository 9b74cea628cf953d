package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-kpi-api/internal/domain"
	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

var (
	_ repository.UserRepository     = (*UserRepo)(nil)
	_ repository.SettingsRepository = (*SettingsRepo)(nil)
)

// UserRepo implementación de UserRepository.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

const userColumns = `id, username, email, password_hash, role, created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserta un usuario; username o email repetido -> domain.ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		u.Username, u.Email, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// FindByLogin busca por username exacto o email sin distinguir mayúsculas.
func (r *UserRepo) FindByLogin(ctx context.Context, login string) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR LOWER(email) = LOWER($1) LIMIT 1`, login))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// ListByRole usuarios con el rol dado, por id. Rol vacío no filtra.
func (r *UserRepo) ListByRole(ctx context.Context, role string) ([]*entity.User, error) {
	rows, err := r.q.Query(ctx, `SELECT `+userColumns+` FROM users WHERE ($1::text = '' OR role = $1) ORDER BY id`, role)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// SettingsRepo preferencias de notificación (manager_settings).
type SettingsRepo struct {
	q Querier
}

// NewSettingsRepository construye el adaptador.
func NewSettingsRepository(q Querier) *SettingsRepo {
	return &SettingsRepo{q: q}
}

const settingsColumns = `id, user_id, notification_email, enable_low_stock_alerts, enable_expiry_alerts, created_at, updated_at`

func scanSettings(row pgx.Row) (*entity.ManagerSettings, error) {
	var s entity.ManagerSettings
	if err := row.Scan(&s.ID, &s.UserID, &s.NotificationEmail, &s.EnableLowStockAlerts,
		&s.EnableExpiryAlerts, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByUserID (nil, nil) si el manager no configuró nada.
func (r *SettingsRepo) GetByUserID(ctx context.Context, userID int64) (*entity.ManagerSettings, error) {
	s, err := scanSettings(r.q.QueryRow(ctx,
		`SELECT `+settingsColumns+` FROM manager_settings WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get manager settings: %w", err)
	}
	return s, nil
}

// Upsert INSERT ... ON CONFLICT (user_id) DO UPDATE.
func (r *SettingsRepo) Upsert(ctx context.Context, s *entity.ManagerSettings) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO manager_settings (user_id, notification_email, enable_low_stock_alerts, enable_expiry_alerts, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id) DO UPDATE SET
			notification_email      = EXCLUDED.notification_email,
			enable_low_stock_alerts = EXCLUDED.enable_low_stock_alerts,
			enable_expiry_alerts    = EXCLUDED.enable_expiry_alerts,
			updated_at              = now()
		RETURNING id, created_at, updated_at`,
		s.UserID, s.NotificationEmail, s.EnableLowStockAlerts, s.EnableExpiryAlerts,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert manager settings: %w", err)
	}
	return nil
}

// List todas las filas, por user_id.
func (r *SettingsRepo) List(ctx context.Context) ([]*entity.ManagerSettings, error) {
	rows, err := r.q.Query(ctx, `SELECT `+settingsColumns+` FROM manager_settings ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list manager settings: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.ManagerSettings, 0)
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, fmt.Errorf("scan manager settings: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
