package usecase

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/jhoicas/retail-kpi-api/internal/application/dto"
	"github.com/jhoicas/retail-kpi-api/internal/application/notification"
	"github.com/jhoicas/retail-kpi-api/internal/domain"
	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

// SettingsUseCase preferencias de notificación de los managers.
type SettingsUseCase struct {
	repo   repository.SettingsRepository
	mailer notification.Mailer
	now    func() time.Time
}

// NewSettingsUseCase construye el caso de uso. mailer se usa solo para el correo de prueba.
func NewSettingsUseCase(repo repository.SettingsRepository, mailer notification.Mailer) *SettingsUseCase {
	return &SettingsUseCase{repo: repo, mailer: mailer, now: time.Now}
}

// Get devuelve la configuración del manager o los valores por defecto si no existe.
func (uc *SettingsUseCase) Get(ctx context.Context, userID int64) (*dto.ManagerSettingsResponse, error) {
	s, err := uc.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return &dto.ManagerSettingsResponse{
			UserID:               userID,
			EnableLowStockAlerts: true,
			EnableExpiryAlerts:   true,
		}, nil
	}
	return toSettingsResponse(s), nil
}

// Save crea o actualiza la configuración. Los toggles ausentes conservan su valor.
func (uc *SettingsUseCase) Save(ctx context.Context, userID int64, in dto.ManagerSettingsRequest) (*dto.ManagerSettingsResponse, error) {
	email := strings.TrimSpace(in.NotificationEmail)
	if email == "" {
		return nil, domain.Invalid("Notification email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.Invalid("Invalid email format")
	}

	s, err := uc.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	if s == nil {
		s = &entity.ManagerSettings{
			UserID:               userID,
			EnableLowStockAlerts: true,
			EnableExpiryAlerts:   true,
			CreatedAt:            now,
		}
	}
	s.NotificationEmail = email
	if in.EnableLowStockAlerts != nil {
		s.EnableLowStockAlerts = *in.EnableLowStockAlerts
	}
	if in.EnableExpiryAlerts != nil {
		s.EnableExpiryAlerts = *in.EnableExpiryAlerts
	}
	s.UpdatedAt = now
	if err := uc.repo.Upsert(ctx, s); err != nil {
		return nil, err
	}
	return toSettingsResponse(s), nil
}

// ToggleAlerts activa o desactiva alertas. Requiere configuración previa.
func (uc *SettingsUseCase) ToggleAlerts(ctx context.Context, userID int64, in dto.ToggleAlertsRequest) (*dto.ManagerSettingsResponse, error) {
	if in.Enable == nil {
		return nil, domain.Invalid("enable must be a boolean")
	}
	s, err := uc.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("manager settings: %w", domain.ErrNotFound)
	}
	switch in.Kind {
	case "", string(notification.KindLowStock):
		s.EnableLowStockAlerts = *in.Enable
	case string(notification.KindExpiry):
		s.EnableExpiryAlerts = *in.Enable
	case "all":
		s.EnableLowStockAlerts = *in.Enable
		s.EnableExpiryAlerts = *in.Enable
	default:
		return nil, domain.Invalid("kind must be low_stock, expiry or all")
	}
	s.UpdatedAt = uc.now()
	if err := uc.repo.Upsert(ctx, s); err != nil {
		return nil, err
	}
	return toSettingsResponse(s), nil
}

// SendTestEmail envía un correo de prueba al email configurado de forma síncrona.
func (uc *SettingsUseCase) SendTestEmail(ctx context.Context, userID int64, requestedBy string) (string, error) {
	s, err := uc.repo.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if s == nil || s.NotificationEmail == "" {
		return "", domain.Invalid("Please configure notification email first")
	}
	err = uc.mailer.Send(ctx, notification.Delivery{
		Kind:    notification.KindTest,
		To:      s.NotificationEmail,
		Payload: notification.TestPayload{RequestedBy: requestedBy, SentAt: uc.now()},
	})
	if err != nil {
		return "", fmt.Errorf("send test email: %w", err)
	}
	return s.NotificationEmail, nil
}

func toSettingsResponse(s *entity.ManagerSettings) *dto.ManagerSettingsResponse {
	return &dto.ManagerSettingsResponse{
		UserID:               s.UserID,
		NotificationEmail:    s.NotificationEmail,
		EnableLowStockAlerts: s.EnableLowStockAlerts,
		EnableExpiryAlerts:   s.EnableExpiryAlerts,
		Configured:           true,
		UpdatedAt:            s.UpdatedAt,
	}
}
