package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/evetabi/amm/internal/api/middleware"
	"github.com/evetabi/amm/internal/domain"
	"github.com/evetabi/amm/internal/ledger"
	"github.com/evetabi/amm/internal/service"
)

// SwapHandler serves swap execution and quote endpoints.
type SwapHandler struct {
	swapSvc *service.SwapService
}

// NewSwapHandler creates a SwapHandler.
func NewSwapHandler(swapSvc *service.SwapService) *SwapHandler {
	return &SwapHandler{swapSvc: swapSvc}
}

// Swap godoc
// POST /api/swap [JWT]
// Body: {"amount_in":"1000","amount_out_min":"900",
//        "path":["atom","usdc"],"recipient":"<uuid, optional>"}
func (h *SwapHandler) Swap(c *gin.Context) {
	trader := middleware.GetAccountID(c)

	var body struct {
		AmountIn     string   `json:"amount_in"      binding:"required"`
		AmountOutMin string   `json:"amount_out_min"`
		Path         []string `json:"path"           binding:"required"`
		Recipient    string   `json:"recipient"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	amountIn, err := parseAmount(body.AmountIn)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	amountOutMin, err := parseOptionalAmount(body.AmountOutMin)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	// Default recipient is the trader.
	recipient := trader
	if body.Recipient != "" {
		recipient, err = uuid.Parse(body.Recipient)
		if err != nil {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_RECIPIENT", "invalid recipient id")
			return
		}
	}

	path := make([]domain.AssetID, 0, len(body.Path))
	for _, a := range body.Path {
		path = append(path, domain.AssetID(a))
	}

	result, err := h.swapSvc.Swap(c.Request.Context(), ledger.SwapParams{
		AmountIn:     amountIn,
		AmountOutMin: amountOutMin,
		Path:         path,
		Trader:       trader,
		Recipient:    recipient,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// Quote godoc
// GET /api/quote?path=atom,usdc&amount_in=1000
// GET /api/quote?path=atom,usdc&amount_out=900
// Exactly one of amount_in / amount_out must be given.
func (h *SwapHandler) Quote(c *gin.Context) {
	rawPath := c.Query("path")
	if rawPath == "" {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "path query parameter is required")
		return
	}
	var path []domain.AssetID
	for _, a := range strings.Split(rawPath, ",") {
		path = append(path, domain.AssetID(strings.TrimSpace(a)))
	}

	amountInStr := c.Query("amount_in")
	amountOutStr := c.Query("amount_out")
	switch {
	case amountInStr != "" && amountOutStr == "":
		amountIn, err := parseAmount(amountInStr)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		quote, err := h.swapSvc.QuoteExactIn(path, amountIn)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, quote)

	case amountOutStr != "" && amountInStr == "":
		amountOut, err := parseAmount(amountOutStr)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		quote, err := h.swapSvc.QuoteExactOut(path, amountOut)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, quote)

	default:
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION",
			"exactly one of amount_in or amount_out must be given")
	}
}

// SpotQuote godoc
// GET /api/quote/spot?asset_in=atom&asset_out=usdc&amount_in=1000
func (h *SwapHandler) SpotQuote(c *gin.Context) {
	amountIn, err := parseAmount(c.Query("amount_in"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	out, err := h.swapSvc.SpotQuote(
		domain.AssetID(c.Query("asset_in")), domain.AssetID(c.Query("asset_out")), amountIn)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"amount_in":  amountIn,
		"amount_out": out,
	})
}
