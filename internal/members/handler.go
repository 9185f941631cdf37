package members

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gtakpsi-software-dev/resume-app/internal/shared/auth"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/server/middleware"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/server/respond"
)

// Handler exposes authentication endpoints over HTTP.
type Handler struct {
	Svc *Service
}

// NewHandler wires a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the authentication endpoints. The login and
// registration routes are public; they mint the tokens /auth/me requires.
func (h *Handler) RegisterRoutes(public, authed *gin.RouterGroup) {
	grp := public.Group("/auth")
	grp.POST("/admin/login", h.adminLogin)
	grp.POST("/member/register", h.register)
	grp.POST("/member/login", h.login)

	authed.GET("/auth/me", h.me)
}

type adminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	FirstName  string `json:"firstName" binding:"required"`
	LastName   string `json:"lastName" binding:"required"`
	AccessCode string `json:"accessCode" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type envelope struct {
	Error   bool   `json:"error"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type sessionResponse struct {
	Token  string          `json:"token"`
	Member *memberResponse `json:"member,omitempty"`
}

type memberResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type profileResponse struct {
	Role    string          `json:"role"`
	Subject string          `json:"subject"`
	Member  *memberResponse `json:"member,omitempty"`
}

func toMemberResponse(m Member) *memberResponse {
	return &memberResponse{
		ID:        m.ID,
		Email:     m.Email,
		FirstName: m.FirstName,
		LastName:  m.LastName,
	}
}

func (h *Handler) adminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Password is required.", nil)
		return
	}

	token, err := h.Svc.AdminLogin(c.Request.Context(), req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "Incorrect password.", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "login_failed", "Unable to log in.", nil)
		return
	}

	respond.OK(c, envelope{Message: "Logged in as admin.", Data: sessionResponse{Token: token}})
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Email, password, name, and access code are required.", nil)
		return
	}

	member, token, err := h.Svc.Register(c.Request.Context(), RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		AccessCode: req.AccessCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrInvalidAccessCode):
			respond.Error(c, http.StatusForbidden, "invalid_access_code", "Incorrect access code.", nil)
		case errors.Is(err, ErrDuplicateEmail):
			respond.Error(c, http.StatusConflict, "duplicate_email", "An account with this email already exists.", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "registration_failed", "Unable to create the account.", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, envelope{
		Message: "Account created.",
		Data:    sessionResponse{Token: token, Member: toMemberResponse(member)},
	})
}

// me resolves the session token back to its account. The admin identity
// lives in the environment, not the members table, so it short-circuits.
func (h *Handler) me(c *gin.Context) {
	subject := middleware.SubjectFromContext(c)
	if middleware.RoleFromContext(c) == auth.RoleAdmin {
		respond.OK(c, envelope{Data: profileResponse{Role: auth.RoleAdmin, Subject: subject}})
		return
	}

	member, err := h.Svc.Profile(c.Request.Context(), subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "Account no longer exists.", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "profile_failed", "Unable to load the account.", nil)
		return
	}
	respond.OK(c, envelope{Data: profileResponse{
		Role:    auth.RoleMember,
		Subject: subject,
		Member:  toMemberResponse(member),
	}})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Email and password are required.", nil)
		return
	}

	member, token, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "Incorrect email or password.", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "login_failed", "Unable to log in.", nil)
		return
	}

	respond.OK(c, envelope{Message: "Logged in.", Data: sessionResponse{Token: token, Member: toMemberResponse(member)}})
}
