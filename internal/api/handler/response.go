package handler

import (
	"errors"
	"net/http"
	"strconv"

	sdkmath "cosmossdk.io/math"
	"github.com/gin-gonic/gin"

	"github.com/evetabi/amm/internal/domain"
)

// ──────────────────────────────────────────────────────────────────────────────
// Standard response helpers
// ──────────────────────────────────────────────────────────────────────────────

// respondSuccess writes {"success": true, "data": data} with the given status.
func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondError writes {"success": false, "error": msg, "code": code}.
func respondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   msg,
		"code":    code,
	})
}

// respondList writes {"success": true, "data": items, "meta": {...}}.
func respondList(c *gin.Context, items interface{}, total, page, limit int) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
		"meta": gin.H{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Domain error mapping
// ──────────────────────────────────────────────────────────────────────────────

// errCodes maps each domain sentinel to its wire code.  Order matters only
// for readability; lookup is by errors.Is.
var errCodes = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrIdenticalAssets, http.StatusBadRequest, "ERR_IDENTICAL_ASSETS"},
	{domain.ErrNullAsset, http.StatusBadRequest, "ERR_NULL_ASSET"},
	{domain.ErrInvalidAsset, http.StatusBadRequest, "ERR_INVALID_ASSET"},
	{domain.ErrInvalidAmount, http.StatusBadRequest, "ERR_INVALID_AMOUNT"},
	{domain.ErrInvalidPath, http.StatusBadRequest, "ERR_INVALID_PATH"},
	{domain.ErrFeeTooHigh, http.StatusBadRequest, "ERR_FEE_TOO_HIGH"},
	{domain.ErrPairExists, http.StatusConflict, "ERR_PAIR_EXISTS"},
	{domain.ErrPairNotFound, http.StatusNotFound, "ERR_PAIR_NOT_FOUND"},
	{domain.ErrAccountNotFound, http.StatusNotFound, "ERR_ACCOUNT_NOT_FOUND"},
	{domain.ErrInsufficientLiquidity, http.StatusUnprocessableEntity, "ERR_INSUFFICIENT_LIQUIDITY"},
	{domain.ErrInsufficientLiquidityMinted, http.StatusUnprocessableEntity, "ERR_INSUFFICIENT_LIQUIDITY_MINTED"},
	{domain.ErrInsufficientAmount, http.StatusUnprocessableEntity, "ERR_INSUFFICIENT_AMOUNT"},
	{domain.ErrExcessiveInput, http.StatusUnprocessableEntity, "ERR_EXCESSIVE_INPUT"},
	{domain.ErrInsufficientShares, http.StatusUnprocessableEntity, "ERR_INSUFFICIENT_SHARES"},
	{domain.ErrInsufficientOutputAmount, http.StatusUnprocessableEntity, "ERR_INSUFFICIENT_OUTPUT"},
	{domain.ErrInsufficientBalance, http.StatusPaymentRequired, "ERR_INSUFFICIENT_BALANCE"},
	{domain.ErrTransferFailed, http.StatusBadGateway, "ERR_TRANSFER_FAILED"},
	{domain.ErrReentrantCall, http.StatusConflict, "ERR_OPERATION_IN_FLIGHT"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "ERR_UNAUTHORIZED"},
	{domain.ErrTokenInvalid, http.StatusUnauthorized, "ERR_INVALID_TOKEN"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "ERR_INVALID_CREDENTIALS"},
	{domain.ErrForbidden, http.StatusForbidden, "ERR_FORBIDDEN"},
	{domain.ErrAccountInactive, http.StatusForbidden, "ERR_ACCOUNT_DISABLED"},
	{domain.ErrEmailTaken, http.StatusConflict, "ERR_EMAIL_TAKEN"},
	{domain.ErrUsernameTaken, http.StatusConflict, "ERR_USERNAME_TAKEN"},
}

// respondDomainError maps a service error onto the wire; anything outside the
// domain taxonomy becomes an opaque 500.
func respondDomainError(c *gin.Context, err error) {
	for _, m := range errCodes {
		if errors.Is(err, m.err) {
			respondError(c, m.status, m.code, m.err.Error())
			return
		}
	}
	respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "internal error")
}

// ──────────────────────────────────────────────────────────────────────────────
// Parsing helpers
// ──────────────────────────────────────────────────────────────────────────────

// parseAmount parses a decimal-string amount into a non-negative integer.
func parseAmount(s string) (sdkmath.Int, error) {
	v, ok := sdkmath.NewIntFromString(s)
	if !ok || v.IsNegative() {
		return sdkmath.ZeroInt(), domain.ErrInvalidAmount
	}
	return v, nil
}

// parseOptionalAmount is parseAmount with "" meaning zero.
func parseOptionalAmount(s string) (sdkmath.Int, error) {
	if s == "" {
		return sdkmath.ZeroInt(), nil
	}
	return parseAmount(s)
}

// parsePagination reads ?page and ?limit with sane bounds.
func parsePagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
