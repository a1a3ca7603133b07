package services

import (
	"context"
	"log/slog"
	"pairchat/auth"
	"pairchat/domain"
	"pairchat/errors"
	"pairchat/repositories"

	"github.com/samber/lo"
)

type IDirectoryService interface {
	Register(ctx context.Context, cmd domain.RegisterCommand) (domain.UserRef, error)
	SignIn(ctx context.Context, handle, password string) (domain.UserRef, error)
	ListUsers(ctx context.Context) ([]domain.UserRef, error)
}

// DirectoryService issues user identities. The conversation core only borrows them.
type DirectoryService struct {
	userRepository repositories.IUserRepository
	log            *slog.Logger
}

func NewDirectoryService(repo repositories.IUserRepository, log *slog.Logger) *DirectoryService {
	return &DirectoryService{userRepository: repo, log: log}
}

// Register validates the request before hashing, so a rejected request never costs an argon2 run.
func (s *DirectoryService) Register(ctx context.Context, cmd domain.RegisterCommand) (domain.UserRef, error) {
	if err := auth.ValidateRegister(cmd); err != nil {
		return domain.UserRef{}, err
	}
	hashedPassword, err := auth.HashPassword(cmd.Password)
	if err != nil {
		return domain.UserRef{}, err
	}
	user, err := s.userRepository.CreateUser(cmd.Handle, cmd.Email, hashedPassword)
	if err != nil {
		return domain.UserRef{}, err
	}
	return user.Ref(), nil
}

func (s *DirectoryService) SignIn(ctx context.Context, handle, password string) (domain.UserRef, error) {
	if handle == "" || password == "" {
		return domain.UserRef{}, errors.ErrMissingFields
	}
	user, err := s.userRepository.GetUserByHandle(handle)
	if err != nil {
		return domain.UserRef{}, err
	}
	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil {
		s.log.WarnContext(ctx, "Stored password hash is unreadable", "user_id", user.ID, "error", err)
		return domain.UserRef{}, errors.ErrInvalidCredentials
	}
	if !match {
		return domain.UserRef{}, errors.ErrInvalidCredentials
	}
	return user.Ref(), nil
}

func (s *DirectoryService) ListUsers(_ context.Context) ([]domain.UserRef, error) {
	users, err := s.userRepository.ListUsers()
	if err != nil {
		return nil, err
	}
	return lo.Map(users, func(u repositories.User, _ int) domain.UserRef { return u.Ref() }), nil
}
