package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evetabi/amm/internal/api/middleware"
	"github.com/evetabi/amm/internal/repository"
	"github.com/evetabi/amm/internal/service"
)

// AccountHandler handles authentication and profile endpoints.
type AccountHandler struct {
	authSvc     *service.AuthService
	accountRepo *repository.AccountRepository
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(authSvc *service.AuthService, accountRepo *repository.AccountRepository) *AccountHandler {
	return &AccountHandler{authSvc: authSvc, accountRepo: accountRepo}
}

// Register godoc
// POST /api/auth/register
func (h *AccountHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	resp, err := h.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, resp)
}

// Login godoc
// POST /api/auth/login
func (h *AccountHandler) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	resp, err := h.authSvc.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, resp)
}

// Refresh godoc
// POST /api/auth/refresh
func (h *AccountHandler) Refresh(c *gin.Context) {
	var body struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	access, refresh, err := h.authSvc.RefreshToken(c.Request.Context(), body.RefreshToken)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "ERR_INVALID_TOKEN", err.Error())
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Me godoc
// GET /api/me [JWT required]
func (h *AccountHandler) Me(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	account, err := h.accountRepo.GetByID(c.Request.Context(), accountID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"id":         account.ID,
		"email":      account.Email,
		"username":   account.Username,
		"role":       account.Role,
		"created_at": account.CreatedAt,
	})
}
