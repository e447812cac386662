package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evetabi/amm/internal/api/middleware"
	"github.com/evetabi/amm/internal/domain"
	"github.com/evetabi/amm/internal/ledger"
	"github.com/evetabi/amm/internal/service"
)

// LiquidityHandler serves deposit and withdrawal endpoints.
type LiquidityHandler struct {
	liqSvc *service.LiquidityService
}

// NewLiquidityHandler creates a LiquidityHandler.
func NewLiquidityHandler(liqSvc *service.LiquidityService) *LiquidityHandler {
	return &LiquidityHandler{liqSvc: liqSvc}
}

// AddLiquidity godoc
// POST /api/liquidity/add [JWT]
// Body: {"asset_a":"atom","asset_b":"usdc","desired_a":"1000000",
//        "desired_b":"2000000","min_a":"0","min_b":"0"}
func (h *LiquidityHandler) AddLiquidity(c *gin.Context) {
	depositor := middleware.GetAccountID(c)

	var body struct {
		AssetA   string `json:"asset_a"   binding:"required"`
		AssetB   string `json:"asset_b"   binding:"required"`
		DesiredA string `json:"desired_a" binding:"required"`
		DesiredB string `json:"desired_b" binding:"required"`
		MinA     string `json:"min_a"`
		MinB     string `json:"min_b"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	desiredA, err := parseAmount(body.DesiredA)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	desiredB, err := parseAmount(body.DesiredB)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	minA, err := parseOptionalAmount(body.MinA)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	minB, err := parseOptionalAmount(body.MinB)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	result, err := h.liqSvc.AddLiquidity(c.Request.Context(), ledger.AddLiquidityParams{
		AssetA:    domain.AssetID(body.AssetA),
		AssetB:    domain.AssetID(body.AssetB),
		DesiredA:  desiredA,
		DesiredB:  desiredB,
		MinA:      minA,
		MinB:      minB,
		Depositor: depositor,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, result)
}

// RemoveLiquidity godoc
// POST /api/liquidity/remove [JWT]
// Body: {"asset_a":"atom","asset_b":"usdc","shares":"500000","min_a":"0","min_b":"0"}
func (h *LiquidityHandler) RemoveLiquidity(c *gin.Context) {
	depositor := middleware.GetAccountID(c)

	var body struct {
		AssetA string `json:"asset_a" binding:"required"`
		AssetB string `json:"asset_b" binding:"required"`
		Shares string `json:"shares"  binding:"required"`
		MinA   string `json:"min_a"`
		MinB   string `json:"min_b"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	shares, err := parseAmount(body.Shares)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	minA, err := parseOptionalAmount(body.MinA)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	minB, err := parseOptionalAmount(body.MinB)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	result, err := h.liqSvc.RemoveLiquidity(c.Request.Context(), ledger.RemoveLiquidityParams{
		AssetA:    domain.AssetID(body.AssetA),
		AssetB:    domain.AssetID(body.AssetB),
		Shares:    shares,
		MinA:      minA,
		MinB:      minB,
		Depositor: depositor,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// GetBalances godoc
// GET /api/balances [JWT]
func (h *LiquidityHandler) GetBalances(c *gin.Context) {
	holder := middleware.GetAccountID(c)
	balances, err := h.liqSvc.ListBalances(c.Request.Context(), holder)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, balances)
}

// GetBalance godoc
// GET /api/balances/:asset [JWT]
func (h *LiquidityHandler) GetBalance(c *gin.Context) {
	holder := middleware.GetAccountID(c)
	balance, err := h.liqSvc.GetBalance(c.Request.Context(), holder, domain.AssetID(c.Param("asset")))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, balance)
}
