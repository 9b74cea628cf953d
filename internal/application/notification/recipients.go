package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

// RecipientDirectory resuelve a quién enviar cada tipo de alerta.
type RecipientDirectory struct {
	users    repository.UserRepository
	settings repository.SettingsRepository
}

// NewRecipientDirectory construye el directorio.
func NewRecipientDirectory(users repository.UserRepository, settings repository.SettingsRepository) *RecipientDirectory {
	return &RecipientDirectory{users: users, settings: settings}
}

// Recipients devuelve los correos de los managers con el tipo de alerta habilitado.
// Un manager sin configuración recibe en el email de su cuenta. Las direcciones se
// deduplican sin distinguir mayúsculas.
func (r *RecipientDirectory) Recipients(ctx context.Context, kind Kind) ([]string, error) {
	managers, err := r.users.ListByRole(ctx, entity.RoleManager)
	if err != nil {
		return nil, fmt.Errorf("list managers: %w", err)
	}
	all, err := r.settings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list manager settings: %w", err)
	}
	byUser := make(map[int64]*entity.ManagerSettings, len(all))
	for _, s := range all {
		byUser[s.UserID] = s
	}

	seen := make(map[string]struct{})
	var out []string
	for _, m := range managers {
		email := m.Email
		if s, ok := byUser[m.ID]; ok {
			if !alertEnabled(s, kind) {
				continue
			}
			if s.NotificationEmail != "" {
				email = s.NotificationEmail
			}
		}
		email = strings.TrimSpace(email)
		if email == "" {
			continue
		}
		key := strings.ToLower(email)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, email)
	}
	return out, nil
}

func alertEnabled(s *entity.ManagerSettings, kind Kind) bool {
	switch kind {
	case KindLowStock:
		return s.EnableLowStockAlerts
	case KindExpiry:
		return s.EnableExpiryAlerts
	}
	return true
}
