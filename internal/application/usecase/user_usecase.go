package usecase

import (
	"context"
	"net/mail"
	"strings"

	"github.com/jhoicas/retail-kpi-api/internal/application/auth"
	"github.com/jhoicas/retail-kpi-api/internal/application/dto"
	"github.com/jhoicas/retail-kpi-api/internal/domain"
	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

// UserUseCase alta y listado de cuentas del personal (solo manager).
type UserUseCase struct {
	repo repository.UserRepository
	hash func(string) (string, error)
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository) *UserUseCase {
	return &UserUseCase{repo: repo, hash: auth.HashPassword}
}

// Create registra un usuario. Rol vacío = cajero. Username o email repetido -> domain.ErrDuplicate.
func (uc *UserUseCase) Create(ctx context.Context, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	switch {
	case len(username) < 3 || len(username) > 50:
		return nil, domain.Invalid("username must be between 3 and 50 characters")
	case strings.ContainsAny(username, " @"):
		return nil, domain.Invalid("username cannot contain spaces or @")
	case len(in.Password) < 6:
		return nil, domain.Invalid("password must be at least 6 characters")
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, domain.Invalid("Invalid email format")
		}
	}
	role := in.Role
	switch role {
	case "":
		role = entity.RoleUser
	case entity.RoleUser, entity.RoleManager:
	default:
		return nil, domain.Invalid("role must be user or manager")
	}
	// el login acepta username o email: ninguno puede chocar con otra cuenta
	for _, login := range []string{username, email} {
		if login == "" {
			continue
		}
		existing, err := uc.repo.FindByLogin(ctx, login)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, domain.ErrDuplicate
		}
	}

	hash, err := uc.hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := &entity.User{Username: username, Email: email, PasswordHash: hash, Role: role}
	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return entityToUserResponse(user), nil
}

// List usuarios por rol; rol vacío devuelve todos.
func (uc *UserUseCase) List(ctx context.Context, role string) ([]dto.UserResponse, error) {
	if role != "" && role != entity.RoleUser && role != entity.RoleManager {
		return nil, domain.Invalid("role must be user or manager")
	}
	users, err := uc.repo.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, *entityToUserResponse(u))
	}
	return out, nil
}

func entityToUserResponse(u *entity.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
