package handler

import (
	"strconv"

	"github.com/daily-ledger/internal/middleware"
	"github.com/daily-ledger/internal/policy"
	"github.com/daily-ledger/internal/service"
	"github.com/daily-ledger/pkg/response"
	"github.com/gin-gonic/gin"
)

// AdminHandler serves user management, record correction and the audit log
type AdminHandler struct {
	users  *service.UserService
	ledger *service.LedgerService
	audit  *service.AuditService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(users *service.UserService, ledger *service.LedgerService, audit *service.AuditService) *AdminHandler {
	return &AdminHandler{
		users:  users,
		ledger: ledger,
		audit:  audit,
	}
}

// CreateUser handles account creation
// POST /api/v1/admin/users
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.users.Create(c.Request.Context(), middleware.GetIdentity(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, service.ToUserResponse(user))
}

// ListUsers handles listing all accounts
// GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]service.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, service.ToUserResponse(&users[i]))
	}
	response.Success(c, out)
}

// DeactivateUser blocks logins for an account
// POST /api/v1/admin/users/:userid/deactivate
func (h *AdminHandler) DeactivateUser(c *gin.Context) {
	user, err := h.users.Deactivate(c.Request.Context(), middleware.GetIdentity(c), c.Param("userid"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, service.ToUserResponse(user))
}

// RestoreUser re-enables logins for an account
// POST /api/v1/admin/users/:userid/restore
func (h *AdminHandler) RestoreUser(c *gin.Context) {
	user, err := h.users.Restore(c.Request.Context(), middleware.GetIdentity(c), c.Param("userid"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, service.ToUserResponse(user))
}

// DeleteUser permanently removes an account and its records
// DELETE /api/v1/admin/users/:userid
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userid := c.Param("userid")
	if err := h.users.HardDelete(c.Request.Context(), middleware.GetIdentity(c), userid); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"userid": userid, "deleted": true})
}

// ListUserDaily lists a user's records; soft-deleted rows only when
// include_deleted=true
// GET /api/v1/admin/users/:userid/daily
func (h *AdminHandler) ListUserDaily(c *gin.Context) {
	includeDeleted := false
	if raw := c.Query("include_deleted"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(c, "include_deleted must be a boolean")
			return
		}
		includeDeleted = parsed
	}

	records, err := h.ledger.ListForUser(c.Request.Context(), c.Param("userid"), includeDeleted)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, toDailyResponses(records))
}

// UpdateDaily overwrites the amounts of a record
// PUT /api/v1/admin/daily/:id
func (h *AdminHandler) UpdateDaily(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateDailyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	record, err := h.ledger.Update(c.Request.Context(), middleware.GetIdentity(c), id, *req.TotalDeposit, *req.TotalWithdraw)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, record.ToResponse())
}

// DeleteDaily soft-deletes a record
// DELETE /api/v1/admin/daily/:id
func (h *AdminHandler) DeleteDaily(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	record, err := h.ledger.SoftDelete(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, record.ToResponse())
}

// RestoreDaily undoes a soft delete
// POST /api/v1/admin/daily/:id/restore
func (h *AdminHandler) RestoreDaily(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	record, err := h.ledger.Restore(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, record.ToResponse())
}

// ListLogs returns audit entries newest first
// GET /api/v1/admin/logs
func (h *AdminHandler) ListLogs(c *gin.Context) {
	var req service.ListAuditRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	entries, err := h.audit.List(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, entries)
}

// RegisterRoutes registers admin routes; every route is gated by its
// policy operation
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	admin := rg.Group("/admin")
	admin.Use(authMiddleware)
	{
		admin.POST("/users", middleware.Require(policy.OpCreateUser), h.CreateUser)
		admin.GET("/users", middleware.Require(policy.OpListUsers), h.ListUsers)
		admin.GET("/users/:userid/daily", middleware.Require(policy.OpListUserDaily), h.ListUserDaily)
		admin.POST("/users/:userid/deactivate", middleware.Require(policy.OpDeactivateUser), h.DeactivateUser)
		admin.POST("/users/:userid/restore", middleware.Require(policy.OpRestoreUser), h.RestoreUser)
		admin.DELETE("/users/:userid", middleware.Require(policy.OpDeleteUser), h.DeleteUser)

		admin.PUT("/daily/:id", middleware.Require(policy.OpUpdateDaily), h.UpdateDaily)
		admin.DELETE("/daily/:id", middleware.Require(policy.OpDeleteDaily), h.DeleteDaily)
		admin.POST("/daily/:id/restore", middleware.Require(policy.OpRestoreDaily), h.RestoreDaily)

		admin.GET("/logs", middleware.Require(policy.OpListAuditLog), h.ListLogs)
	}
}
