package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/evetabi/amm/internal/api/middleware"
	"github.com/evetabi/amm/internal/domain"
	"github.com/evetabi/amm/internal/service"
)

// PoolHandler serves pair registration, pool queries, and the event log.
type PoolHandler struct {
	poolSvc *service.PoolService
}

// NewPoolHandler creates a PoolHandler.
func NewPoolHandler(poolSvc *service.PoolService) *PoolHandler {
	return &PoolHandler{poolSvc: poolSvc}
}

// CreatePair godoc
// POST /api/pools [JWT]
// Body: {"asset_a":"atom","asset_b":"usdc"}
func (h *PoolHandler) CreatePair(c *gin.Context) {
	var body struct {
		AssetA string `json:"asset_a" binding:"required"`
		AssetB string `json:"asset_b" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	pool, err := h.poolSvc.CreatePair(c.Request.Context(),
		domain.AssetID(body.AssetA), domain.AssetID(body.AssetB))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, pool.ToSummary())
}

// ListPools godoc
// GET /api/pools
func (h *PoolHandler) ListPools(c *gin.Context) {
	pools := h.poolSvc.ListPools()
	summaries := make([]domain.PoolSummary, 0, len(pools))
	for _, p := range pools {
		summaries = append(summaries, p.ToSummary())
	}
	respondSuccess(c, http.StatusOK, summaries)
}

// GetPool godoc
// GET /api/pools/:assetA/:assetB
func (h *PoolHandler) GetPool(c *gin.Context) {
	pool, err := h.poolSvc.GetPool(
		domain.AssetID(c.Param("assetA")), domain.AssetID(c.Param("assetB")))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, pool.ToSummary())
}

// GetMyPosition godoc
// GET /api/pools/:assetA/:assetB/position [JWT]
func (h *PoolHandler) GetMyPosition(c *gin.Context) {
	depositor := middleware.GetAccountID(c)
	pos, err := h.poolSvc.GetPosition(
		domain.AssetID(c.Param("assetA")), domain.AssetID(c.Param("assetB")), depositor)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"position":      pos,
		"share_percent": pos.SharePercent(),
	})
}

// GetPosition godoc
// GET /api/pools/:assetA/:assetB/positions/:depositor
func (h *PoolHandler) GetPosition(c *gin.Context) {
	depositor, err := uuid.Parse(c.Param("depositor"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_DEPOSITOR", "invalid depositor id")
		return
	}
	pos, err := h.poolSvc.GetPosition(
		domain.AssetID(c.Param("assetA")), domain.AssetID(c.Param("assetB")), depositor)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, pos)
}

// ListPositions godoc
// GET /api/pools/:assetA/:assetB/positions
func (h *PoolHandler) ListPositions(c *gin.Context) {
	positions, err := h.poolSvc.ListPositions(
		domain.AssetID(c.Param("assetA")), domain.AssetID(c.Param("assetB")))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, positions)
}

// ListEvents godoc
// GET /api/events?after=0&limit=100
func (h *PoolHandler) ListEvents(c *gin.Context) {
	after, _ := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	events, err := h.poolSvc.ListEvents(c.Request.Context(), after, limit)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, events)
}

// ListPairEvents godoc
// GET /api/pools/:assetA/:assetB/events?limit=100
func (h *PoolHandler) ListPairEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	events, err := h.poolSvc.ListPairEvents(c.Request.Context(),
		domain.AssetID(c.Param("assetA")), domain.AssetID(c.Param("assetB")), limit)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, events)
}
