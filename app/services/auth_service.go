package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/app/repositories"
	"github.com/cremaze/cremaze/pkg/apperr"
	"github.com/cremaze/cremaze/pkg/auth"
)

// UserStore is the persistence surface AuthService needs.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) error
}

// AuthService implements registration, login and profile management.
type AuthService struct {
	users UserStore
}

func NewAuthService() *AuthService {
	return &AuthService{users: repositories.NewUserRepository()}
}

func NewAuthServiceWith(users UserStore) *AuthService {
	return &AuthService{users: users}
}

// RegisterInput is the payload for account creation.
type RegisterInput struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"nullable,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

// AuthResult is returned from register and login.
type AuthResult struct {
	User         models.User `json:"user"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
}

func issueTokens(user models.User) (AuthResult, error) {
	token, err := auth.GenerateToken(user.ID.Hex(), user.IsAdmin)
	if err != nil {
		return AuthResult{}, apperr.Persistence("could not issue token", err)
	}
	refresh, err := auth.GenerateRefreshToken(user.ID.Hex(), user.IsAdmin)
	if err != nil {
		return AuthResult{}, apperr.Persistence("could not issue token", err)
	}
	return AuthResult{User: user, Token: token, RefreshToken: refresh}, nil
}

// Register creates a new account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return AuthResult{}, apperr.Conflict("User already exists")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return AuthResult{}, apperr.Persistence("could not check existing account", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return AuthResult{}, apperr.Persistence("could not hash password", err)
	}

	user := models.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  hash,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return AuthResult{}, apperr.Persistence("could not create account", err)
	}
	return issueTokens(user)
}

// Login verifies credentials and issues a token. Both an unknown email and a
// wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return AuthResult{}, apperr.Authentication("Invalid email or password")
		}
		return AuthResult{}, apperr.Persistence("could not load account", err)
	}

	if !auth.CheckPassword(user.Password, password) {
		return AuthResult{}, apperr.Authentication("Invalid email or password")
	}
	return issueTokens(user)
}

// Refresh exchanges a valid refresh token for a new token pair. The account
// is reloaded so a revoked or promoted user gets current claims.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	claims, err := auth.ValidateToken(refreshToken)
	if err != nil || claims.Subject != auth.RefreshSubject {
		return AuthResult{}, apperr.Authentication("Invalid refresh token")
	}

	user, err := s.Profile(ctx, claims.UserID)
	if err != nil {
		return AuthResult{}, err
	}
	return issueTokens(user)
}

// Profile returns the account of the authenticated user.
func (s *AuthService) Profile(ctx context.Context, userID string) (models.User, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return models.User{}, apperr.Authentication("invalid token subject")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, apperr.NotFound("Account not found")
		}
		return models.User{}, apperr.Persistence("could not load account", err)
	}
	return user, nil
}

// ProfileUpdateInput carries the editable profile fields. Empty fields are
// left unchanged.
type ProfileUpdateInput struct {
	FirstName string `json:"firstName" validate:"nullable,max=100"`
	LastName  string `json:"lastName" validate:"nullable,max=100"`
	Phone     string `json:"phone" validate:"nullable,max=20"`
	Address   string `json:"address" validate:"nullable,max=255"`
	Password  string `json:"password" validate:"nullable,min=6"`
}

// UpdateProfile applies the non-empty fields and returns the fresh document.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdateInput) (models.User, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return models.User{}, apperr.Authentication("invalid token subject")
	}

	set := bson.M{}
	if in.FirstName != "" {
		set["firstName"] = in.FirstName
	}
	if in.LastName != "" {
		set["lastName"] = in.LastName
	}
	if in.Phone != "" {
		set["phone"] = in.Phone
	}
	if in.Address != "" {
		set["address"] = in.Address
	}
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return models.User{}, apperr.Persistence("could not hash password", err)
		}
		set["password"] = hash
	}

	if len(set) > 0 {
		if err := s.users.Update(ctx, id, set); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return models.User{}, apperr.NotFound("Account not found")
			}
			return models.User{}, apperr.Persistence("could not update account", err)
		}
	}
	return s.Profile(ctx, userID)
}
