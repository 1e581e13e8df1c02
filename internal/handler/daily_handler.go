package handler

import (
	"github.com/daily-ledger/internal/middleware"
	"github.com/daily-ledger/internal/models"
	"github.com/daily-ledger/internal/policy"
	"github.com/daily-ledger/internal/service"
	"github.com/daily-ledger/pkg/response"
	"github.com/gin-gonic/gin"
)

// DailyHandler serves a user's own daily records
type DailyHandler struct {
	ledger *service.LedgerService
}

// NewDailyHandler creates a new DailyHandler
func NewDailyHandler(ledger *service.LedgerService) *DailyHandler {
	return &DailyHandler{ledger: ledger}
}

// Submit stores the caller's totals for a date
// POST /api/v1/user/daily
func (h *DailyHandler) Submit(c *gin.Context) {
	var req service.SubmitDailyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	date, err := service.ParseDate(req.Date)
	if err != nil {
		writeError(c, err)
		return
	}

	identity := middleware.GetIdentity(c)
	record, err := h.ledger.Submit(c.Request.Context(), identity, identity.ID, date, *req.TotalDeposit, *req.TotalWithdraw)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, record.ToResponse())
}

// List returns the caller's non-deleted records, newest date first
// GET /api/v1/user/daily
func (h *DailyHandler) List(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	records, err := h.ledger.ListActive(c.Request.Context(), identity.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, toDailyResponses(records))
}

// RegisterRoutes registers the caller's daily record routes
func (h *DailyHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	user := rg.Group("/user")
	user.Use(authMiddleware)
	{
		user.POST("/daily", middleware.Require(policy.OpSubmitOwnDaily), h.Submit)
		user.GET("/daily", middleware.Require(policy.OpListOwnDaily), h.List)
	}
}

func toDailyResponses(records []models.DailyRecord) []models.DailyRecordResponse {
	out := make([]models.DailyRecordResponse, 0, len(records))
	for i := range records {
		out = append(out, records[i].ToResponse())
	}
	return out
}
