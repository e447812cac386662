package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/evetabi/amm/internal/api/middleware"
	"github.com/evetabi/amm/internal/domain"
	"github.com/evetabi/amm/internal/service"
)

// AdminHandler serves fee governance and account administration endpoints.
// All routes are behind AdminMiddleware; the service re-checks the role.
type AdminHandler struct {
	adminSvc *service.AdminService
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(adminSvc *service.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

// GetFee godoc
// GET /api/admin/fee [JWT, admin]
func (h *AdminHandler) GetFee(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"fee_bps": h.adminSvc.GetFeeBps()})
}

// SetFee godoc
// PUT /api/admin/fee [JWT, admin]
// Body: {"fee_bps": 25}
func (h *AdminHandler) SetFee(c *gin.Context) {
	var body struct {
		FeeBps *int64 `json:"fee_bps" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	newBps, err := h.adminSvc.SetFeeBps(c.Request.Context(),
		middleware.GetRole(c), middleware.GetAccountID(c), *body.FeeBps)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"fee_bps": newBps})
}

// Deposit godoc
// POST /api/admin/deposit [JWT, admin]
// Body: {"account_id":"uuid","asset":"atom","amount":"1000000"}
func (h *AdminHandler) Deposit(c *gin.Context) {
	var body struct {
		AccountID string `json:"account_id" binding:"required"`
		Asset     string `json:"asset"      binding:"required"`
		Amount    string `json:"amount"     binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	accountID, err := uuid.Parse(body.AccountID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ACCOUNT_ID", "invalid account_id format")
		return
	}
	amount, err := parseAmount(body.Amount)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	if err := h.adminSvc.Deposit(c.Request.Context(),
		middleware.GetRole(c), accountID, domain.AssetID(body.Asset), amount); err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"account_id": accountID,
		"asset":      body.Asset,
		"amount":     amount,
	})
}

// ListAccounts godoc
// GET /api/admin/accounts?page=1&limit=50 [JWT, admin]
func (h *AdminHandler) ListAccounts(c *gin.Context) {
	page, limit := parsePagination(c)
	offset := (page - 1) * limit

	accounts, total, err := h.adminSvc.ListAccounts(c.Request.Context(),
		middleware.GetRole(c), limit, offset)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondList(c, accounts, total, page, limit)
}

// SetAccountRole godoc
// PUT /api/admin/accounts/:id/role [JWT, admin]
// Body: {"role":"admin"}
func (h *AdminHandler) SetAccountRole(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ACCOUNT_ID", "invalid account id")
		return
	}

	var body struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	if err := h.adminSvc.SetAccountRole(c.Request.Context(),
		middleware.GetRole(c), accountID, domain.Role(body.Role)); err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"account_id": accountID, "role": body.Role})
}

// SetAccountActive godoc
// PUT /api/admin/accounts/:id/active [JWT, admin]
// Body: {"active":false}
func (h *AdminHandler) SetAccountActive(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ACCOUNT_ID", "invalid account id")
		return
	}

	var body struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	if err := h.adminSvc.SetAccountActive(c.Request.Context(),
		middleware.GetRole(c), accountID, *body.Active); err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"account_id": accountID, "active": *body.Active})
}
