package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"insightdeal/dealworker/internal/models"
	"insightdeal/dealworker/internal/store"
	"insightdeal/dealworker/logger"
)

// Handler serves the read-only REST projection of the deal store.
type Handler struct {
	store *store.Store
	log   *logger.Logger
}

// NewRouter builds the gin engine with all routes mounted. imageDir is served
// verbatim under /images.
func NewRouter(st *store.Store, imageDir string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), corsMiddleware())

	h := &Handler{
		store: st,
		log:   logger.ForComponent("api"),
	}

	api := r.Group("/api")
	{
		api.GET("/deals", h.ListDeals)
		api.GET("/deals/:id", h.GetDeal)
		api.GET("/deals/:id/history", h.DealHistory)
		api.GET("/groups/:group_id/deals", h.GroupDeals)
		api.GET("/communities", h.ListCommunities)
	}

	if imageDir != "" {
		r.Static("/images", imageDir)
	}

	return r
}

// ListDeals returns a page of deals, newest first. Query failures degrade to
// an empty list so the feed never breaks.
func (h *Handler) ListDeals(c *gin.Context) {
	offset := intQuery(c, "offset", 0)
	limit := intQuery(c, "limit", 100)

	filter := store.DealFilter{Category: c.Query("category")}
	if id, err := strconv.Atoi(c.Query("community_id")); err == nil {
		filter.CommunityID = uint(id)
	}

	deals, err := h.store.Deals(offset, limit, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Deal listing query failed")
		c.JSON(http.StatusOK, []models.Deal{})
		return
	}
	if deals == nil {
		deals = []models.Deal{}
	}
	c.JSON(http.StatusOK, deals)
}

// GetDeal returns one deal by id.
func (h *Handler) GetDeal(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid deal id"})
		return
	}

	deal, err := h.store.DealByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Deal not found"})
			return
		}
		h.log.Error().Err(err).Int("id", id).Msg("Deal lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, deal)
}

// DealHistory returns the price observations for one deal, oldest first.
func (h *Handler) DealHistory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid deal id"})
		return
	}
	offset := intQuery(c, "offset", 0)
	limit := intQuery(c, "limit", 100)

	history, err := h.store.HistoryByDeal(uint(id), offset, limit)
	if err != nil {
		h.log.Error().Err(err).Int("id", id).Msg("Price history query failed")
		c.JSON(http.StatusOK, []models.PriceHistory{})
		return
	}
	if history == nil {
		history = []models.PriceHistory{}
	}
	c.JSON(http.StatusOK, history)
}

// GroupDeals returns every sub-deal extracted from the same post, oldest
// first. The group id is the one stamped on each deal at extraction time.
func (h *Handler) GroupDeals(c *gin.Context) {
	groupID := c.Param("group_id")

	deals, err := h.store.DealsByGroup(groupID)
	if err != nil {
		h.log.Error().Err(err).Str("group_id", groupID).Msg("Group listing query failed")
		c.JSON(http.StatusOK, []models.Deal{})
		return
	}
	if deals == nil {
		deals = []models.Deal{}
	}
	c.JSON(http.StatusOK, deals)
}

// ListCommunities returns the seeded community list.
func (h *Handler) ListCommunities(c *gin.Context) {
	communities, err := h.store.Communities()
	if err != nil {
		h.log.Error().Err(err).Msg("Community listing query failed")
		c.JSON(http.StatusOK, []models.Community{})
		return
	}
	if communities == nil {
		communities = []models.Community{}
	}
	c.JSON(http.StatusOK, communities)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

// corsMiddleware keeps the API open to any origin, like the frontend expects.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
