// Package account registers users and exchanges their credentials for bearer
// tokens.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"studyroom-backend/internal/model"
	"studyroom-backend/internal/store"
)

var (
	// ErrAccountExists is returned when a unique field is already registered.
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidInput       = errors.New("invalid account input")
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required,min=8"`
	FullName  string `json:"fullname" binding:"required"`
	StudentID string `json:"mssv" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phonenumber" binding:"required"`
}

// Token is a signed bearer credential.
type Token struct {
	AccessToken string     `json:"accessToken"`
	TokenType   string     `json:"tokenType"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	AccountID   string     `json:"accountId"`
	Role        model.Role `json:"role"`
}

// TokenIssuer mints tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(accountID string, role model.Role) (string, time.Time, error)
}

// Service handles registration and login.
type Service struct {
	accounts   store.AccountRepository
	issuer     TokenIssuer
	bcryptCost int
	logger     *slog.Logger
}

// NewService creates an account service. A cost outside bcrypt's range falls
// back to bcrypt.DefaultCost.
func NewService(accounts store.AccountRepository, issuer TokenIssuer, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{accounts: accounts, issuer: issuer, bcryptCost: bcryptCost, logger: logger}
}

// Register creates a student account. Admins are created with Provision.
func (s *Service) Register(ctx context.Context, in RegisterInput) (model.Account, error) {
	return s.create(ctx, in, model.RoleStudent)
}

// Provision creates an account with an explicit role.
func (s *Service) Provision(ctx context.Context, in RegisterInput, role model.Role) (model.Account, error) {
	if role != model.RoleStudent && role != model.RoleAdmin {
		return model.Account{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	return s.create(ctx, in, role)
}

func (s *Service) create(ctx context.Context, in RegisterInput, role model.Role) (model.Account, error) {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.FullName = strings.TrimSpace(in.FullName)
	in.StudentID = strings.TrimSpace(in.StudentID)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)

	switch {
	case in.Username == "":
		return model.Account{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	case len(in.Password) < 8:
		return model.Account{}, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	case len(in.Password) > 72:
		return model.Account{}, fmt.Errorf("%w: password must be at most 72 bytes", ErrInvalidInput)
	case in.FullName == "", in.StudentID == "", in.Phone == "":
		return model.Account{}, fmt.Errorf("%w: name, student id and phone are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return model.Account{}, fmt.Errorf("%w: email: %v", ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return model.Account{}, fmt.Errorf("hash password: %w", err)
	}

	a := model.Account{
		ID:           uuid.NewString(),
		Username:     in.Username,
		FullName:     in.FullName,
		StudentID:    in.StudentID,
		Phone:        in.Phone,
		Email:        in.Email,
		Role:         role,
		PasswordHash: string(hash),
	}
	if err := s.accounts.Create(ctx, &a); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return model.Account{}, ErrAccountExists
		}
		return model.Account{}, err
	}

	s.logger.Info("account registered", "account", a.ID, "username", a.Username, "role", a.Role)
	return a, nil
}

// Login verifies a username and password and returns a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (Token, error) {
	a, err := s.accounts.FindByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Token{}, ErrInvalidCredentials
		}
		return Token{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("login rejected", "username", a.Username)
		return Token{}, ErrInvalidCredentials
	}
	return s.IssueFor(a)
}

// IssueFor mints a token for an already verified account.
func (s *Service) IssueFor(a model.Account) (Token, error) {
	signed, expiresAt, err := s.issuer.Issue(a.ID, a.Role)
	if err != nil {
		return Token{}, err
	}
	return Token{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		AccountID:   a.ID,
		Role:        a.Role,
	}, nil
}
