// internal/api/handlers/auth_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"giving-hand-api-server/internal/auth"
	"giving-hand-api-server/internal/logging"
	"giving-hand-api-server/internal/models"
	"giving-hand-api-server/internal/store"
)

type AuthHandler struct {
	Users  store.UserRepository
	Issuer *auth.Issuer
	log    *slog.Logger
}

func NewAuthHandler(users store.UserRepository, issuer *auth.Issuer) *AuthHandler {
	return &AuthHandler{Users: users, Issuer: issuer, log: logging.New("auth")}
}

type RegisterRequest struct {
	Email            string         `json:"email" binding:"required,email"`
	Password         string         `json:"password" binding:"required,min=8"`
	Name             string         `json:"name" binding:"required"`
	Role             string         `json:"role" binding:"required,oneof=organization charity factory guest"`
	Phone            string         `json:"phone" binding:"omitempty,e164"`
	Address          models.Address `json:"address"`
	OrganizationType string         `json:"organizationType"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	role, err := models.AsRole(req.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.Error("hash password", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}

	user := &models.User{
		ID:               models.NewID(models.PrefixUser),
		Email:            strings.ToLower(req.Email),
		Name:             req.Name,
		PasswordHash:     hash,
		Role:             role,
		Phone:            req.Phone,
		Address:          req.Address,
		OrganizationType: req.OrganizationType,
		Status:           "active",
		CreatedAt:        time.Now().UTC(),
	}
	if err := h.Users.Insert(c.Request.Context(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email is already registered"})
			return
		}
		h.log.Error("insert user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}

	token, err := h.Issuer.GenerateJWT(user)
	if err != nil {
		h.log.Error("generate token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Users.GetByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.log.Error("find user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if user.Status != "" && user.Status != "active" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is " + user.Status})
		return
	}

	token, err := h.Issuer.GenerateJWT(user)
	if err != nil {
		h.log.Error("generate token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
