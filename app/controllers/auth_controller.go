package controllers

import (
	"context"
	"net/http"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/app/services"
	"github.com/cremaze/cremaze/pkg/bind"
	"github.com/cremaze/cremaze/pkg/middleware"
	"github.com/cremaze/cremaze/pkg/response"
	"github.com/cremaze/cremaze/pkg/validate"
)

// AuthAPI is the service surface AuthController depends on.
type AuthAPI interface {
	Register(ctx context.Context, in services.RegisterInput) (services.AuthResult, error)
	Login(ctx context.Context, email, password string) (services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (services.AuthResult, error)
	Profile(ctx context.Context, userID string) (models.User, error)
	UpdateProfile(ctx context.Context, userID string, in services.ProfileUpdateInput) (models.User, error)
}

type AuthController struct {
	service AuthAPI
}

func NewAuthController() *AuthController {
	return &AuthController{service: services.NewAuthService()}
}

func NewAuthControllerWith(service AuthAPI) *AuthController {
	return &AuthController{service: service}
}

// Register handles POST /api/users/register.
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.ErrorFrom(w, err)
		return
	} else if validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	res, err := c.service.Register(r.Context(), in)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Created(w, res)
}

// Login handles POST /api/users/login.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if errs, err := bind.JSON(r, &in); err != nil {
		response.ErrorFrom(w, err)
		return
	} else if validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	res, err := c.service.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Success(w, res)
}

// Refresh handles POST /api/users/refresh.
func (c *AuthController) Refresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	if errs, err := bind.JSON(r, &in); err != nil {
		response.ErrorFrom(w, err)
		return
	} else if validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	res, err := c.service.Refresh(r.Context(), in.RefreshToken)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Success(w, res)
}

// Profile handles GET /api/users/profile.
func (c *AuthController) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}

	user, err := c.service.Profile(r.Context(), id.UserID)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Success(w, user)
}

// UpdateProfile handles PUT /api/users/profile.
func (c *AuthController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}

	var in services.ProfileUpdateInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.ErrorFrom(w, err)
		return
	} else if validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	user, err := c.service.UpdateProfile(r.Context(), id.UserID, in)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}
	response.Success(w, user)
}
