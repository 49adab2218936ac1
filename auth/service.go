package auth

import (
	"context"
	"regexp"
	"unicode/utf8"
)

const (
	minPasswordRunes = 8
	maxPasswordRunes = 128
)

var usernameFormat = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)

type service struct {
	userRepo       UserRepo
	passwordHasher PasswordHasher
	tokenManager   TokenManager
}

func NewService(userRepo UserRepo, passwordHasher PasswordHasher, tokenManager TokenManager) *service {
	return &service{userRepo: userRepo, passwordHasher: passwordHasher, tokenManager: tokenManager}
}

func (s *service) Signup(ctx context.Context, username, password string) (string, error) {
	if !usernameFormat.MatchString(username) {
		return "", ErrInvalidUsernameFormat
	}
	if utf8.RuneCountInString(password) < minPasswordRunes {
		return "", ErrWeakPassword
	}
	if utf8.RuneCountInString(password) > maxPasswordRunes {
		return "", ErrPasswordTooLong
	}

	passwordHash, err := s.passwordHasher.Hash(password)
	if err != nil {
		return "", err
	}

	id, err := s.userRepo.CreateUser(ctx, username, passwordHash)
	if err != nil {
		return "", err
	}

	return s.tokenManager.Generate(id)
}

func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	match, err := s.passwordHasher.Compare(user.PasswordHash, password)
	if err != nil {
		return "", err
	}
	if !match {
		return "", ErrIncorrectPassword
	}

	return s.tokenManager.Generate(user.Id)
}

// VerifyToken returns the user id carried by a valid token.
func (s *service) VerifyToken(token string) (string, error) {
	return s.tokenManager.Verify(token)
}

func (s *service) GenerateToken(id string) (string, error) {
	return s.tokenManager.Generate(id)
}
