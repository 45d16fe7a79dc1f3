package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/expensehub/approval-engine/internal/application/port"
	"github.com/expensehub/approval-engine/internal/application/service"
	appworkflow "github.com/expensehub/approval-engine/internal/application/workflow"
	"github.com/expensehub/approval-engine/internal/domain/entity"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	expenseService service.ExpenseService
	ruleService    service.RuleService
	engine         appworkflow.Engine
	rates          port.RateProvider
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	expenseService service.ExpenseService,
	ruleService service.RuleService,
	engine appworkflow.Engine,
	rates port.RateProvider,
	logger Logger,
) *Handlers {
	return &Handlers{
		expenseService: expenseService,
		ruleService:    ruleService,
		engine:         engine,
		rates:          rates,
		logger:         logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// SubmitExpenseRequest is the body for POST /api/expenses
type SubmitExpenseRequest struct {
	CompanyID   int64   `json:"company_id" binding:"required"`
	SubmitterID int64   `json:"submitter_id" binding:"required"`
	TeamID      int64   `json:"team_id"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount" binding:"required"`
	Currency    string  `json:"currency"`
	Urgent      bool    `json:"urgent"`
	ReceiptPath string  `json:"receipt_path"`
}

// DecisionRequest is the body for POST /api/workflows/:id/decisions
type DecisionRequest struct {
	ApproverID int64  `json:"approver_id" binding:"required"`
	Role       string `json:"role" binding:"required"`
	Decision   string `json:"decision" binding:"required"`
	Comment    string `json:"comment"`
}

// CancelRequest is the body for POST /api/workflows/:id/cancel
type CancelRequest struct {
	Reason string `json:"reason"`
}

// RuleRequest is the body for rule create and update
type RuleRequest struct {
	CompanyID          int64    `json:"company_id" binding:"required"`
	Name               string   `json:"name" binding:"required"`
	MinAmount          float64  `json:"min_amount"`
	MaxAmount          *float64 `json:"max_amount"`
	Sequence           []string `json:"sequence" binding:"required"`
	PercentageRequired int      `json:"percentage_required" binding:"required"`
	AdminOverride      bool     `json:"admin_override"`
	UrgentBypass       bool     `json:"urgent_bypass"`
	IsActive           *bool    `json:"is_active"`
}

// RuleResponse wraps a rule together with configuration warnings
type RuleResponse struct {
	Rule     *entity.ApprovalRule `json:"rule"`
	Warnings []string             `json:"warnings,omitempty"`
}

// WorkflowResponse is the full view of a workflow and its decision history
type WorkflowResponse struct {
	Instance *entity.WorkflowInstance `json:"instance"`
	Records  []*entity.ApprovalRecord `json:"records"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// SubmitExpense handles POST /api/expenses
func (h *Handlers) SubmitExpense(c *gin.Context) {
	var req SubmitExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	result, err := h.expenseService.Submit(c.Request.Context(), service.SubmitExpenseInput{
		CompanyID:   req.CompanyID,
		SubmitterID: req.SubmitterID,
		TeamID:      req.TeamID,
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Urgent:      req.Urgent,
		ReceiptPath: req.ReceiptPath,
	})
	if err != nil {
		h.writeError(c, err, "failed to submit expense")
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: result})
}

// GetExpense handles GET /api/expenses/:id
func (h *Handlers) GetExpense(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	expense, err := h.expenseService.GetExpense(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "failed to retrieve expense")
		return
	}
	if expense == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "expense not found"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: expense})
}

// ListExpenses handles GET /api/expenses
func (h *Handlers) ListExpenses(c *gin.Context) {
	companyID, err := strconv.ParseInt(c.Query("company_id"), 10, 64)
	if err != nil {
		h.badRequest(c, "company_id query parameter is required", err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	expenses, err := h.expenseService.ListExpenses(c.Request.Context(), companyID, limit, offset)
	if err != nil {
		h.writeError(c, err, "failed to list expenses")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: expenses})
}

// WithdrawExpense handles POST /api/expenses/:id/withdraw
func (h *Handlers) WithdrawExpense(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req CancelRequest
	_ = c.ShouldBindJSON(&req)

	instance, err := h.expenseService.Withdraw(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.writeError(c, err, "failed to withdraw expense")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: instance})
}

// GetWorkflow handles GET /api/workflows/:id
func (h *Handlers) GetWorkflow(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	instance, records, err := h.engine.GetWorkflow(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "failed to retrieve workflow")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: WorkflowResponse{Instance: instance, Records: records}})
}

// SubmitDecision handles POST /api/workflows/:id/decisions
func (h *Handlers) SubmitDecision(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	role, err := entity.ParseRole(req.Role)
	if err != nil {
		h.badRequest(c, "invalid role", err)
		return
	}

	instance, err := h.engine.SubmitDecision(c.Request.Context(), id, req.ApproverID, role, entity.Decision(req.Decision), req.Comment)
	if err != nil {
		h.writeError(c, err, "failed to apply decision")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: instance})
}

// CancelWorkflow handles POST /api/workflows/:id/cancel
func (h *Handlers) CancelWorkflow(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req CancelRequest
	_ = c.ShouldBindJSON(&req)

	instance, err := h.engine.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.writeError(c, err, "failed to cancel workflow")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: instance})
}

// ExchangeRatesResponse is the rate table for a base currency
type ExchangeRatesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// GetExchangeRates handles GET /api/exchange-rates
func (h *Handlers) GetExchangeRates(c *gin.Context) {
	if h.rates == nil {
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: "rate provider not configured"})
		return
	}

	base := c.DefaultQuery("base", "USD")
	rates, err := h.rates.Rates(c.Request.Context(), base)
	if err != nil {
		h.logger.Error("failed to fetch exchange rates", "base", base, "error", err)
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: "rate provider unavailable"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: ExchangeRatesResponse{Base: base, Rates: rates}})
}

// CreateRule handles POST /api/rules
func (h *Handlers) CreateRule(c *gin.Context) {
	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	rule, err := req.toEntity(0)
	if err != nil {
		h.badRequest(c, "invalid rule", err)
		return
	}

	created, warnings, err := h.ruleService.CreateRule(c.Request.Context(), rule)
	if err != nil {
		h.writeError(c, err, "failed to create rule")
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: RuleResponse{Rule: created, Warnings: warnings}})
}

// ListRules handles GET /api/rules
func (h *Handlers) ListRules(c *gin.Context) {
	companyID, err := strconv.ParseInt(c.Query("company_id"), 10, 64)
	if err != nil {
		h.badRequest(c, "company_id query parameter is required", err)
		return
	}

	rules, err := h.ruleService.ListRules(c.Request.Context(), companyID)
	if err != nil {
		h.writeError(c, err, "failed to list rules")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: rules})
}

// GetRule handles GET /api/rules/:id
func (h *Handlers) GetRule(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	rule, err := h.ruleService.GetRule(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "failed to retrieve rule")
		return
	}
	if rule == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "rule not found"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: rule})
}

// UpdateRule handles PUT /api/rules/:id
func (h *Handlers) UpdateRule(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body", err)
		return
	}

	rule, err := req.toEntity(id)
	if err != nil {
		h.badRequest(c, "invalid rule", err)
		return
	}

	updated, warnings, err := h.ruleService.UpdateRule(c.Request.Context(), rule)
	if err != nil {
		h.writeError(c, err, "failed to update rule")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: RuleResponse{Rule: updated, Warnings: warnings}})
}

// DeactivateRule handles DELETE /api/rules/:id
func (h *Handlers) DeactivateRule(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.ruleService.DeactivateRule(c.Request.Context(), id); err != nil {
		h.writeError(c, err, "failed to deactivate rule")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// BootstrapRules handles POST /api/companies/:id/rules/bootstrap
func (h *Handlers) BootstrapRules(c *gin.Context) {
	companyID, ok := h.pathID(c)
	if !ok {
		return
	}

	created, err := h.ruleService.BootstrapDefaults(c.Request.Context(), companyID)
	if err != nil {
		h.writeError(c, err, "failed to bootstrap rules")
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: created})
}

func (req *RuleRequest) toEntity(id int64) (*entity.ApprovalRule, error) {
	sequence := make([]entity.Role, 0, len(req.Sequence))
	for _, raw := range req.Sequence {
		role, err := entity.ParseRole(raw)
		if err != nil {
			return nil, err
		}
		sequence = append(sequence, role)
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	return &entity.ApprovalRule{
		ID:                 id,
		CompanyID:          req.CompanyID,
		Name:               req.Name,
		MinAmount:          req.MinAmount,
		MaxAmount:          req.MaxAmount,
		Sequence:           sequence,
		PercentageRequired: req.PercentageRequired,
		AdminOverride:      req.AdminOverride,
		UrgentBypass:       req.UrgentBypass,
		IsActive:           active,
	}, nil
}

func (h *Handlers) pathID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.badRequest(c, "invalid id", err)
		return 0, false
	}
	return id, true
}

func (h *Handlers) badRequest(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, "error", err)
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// writeError maps application errors onto HTTP status codes.
func (h *Handlers) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, appworkflow.ErrInstanceNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.Is(err, appworkflow.ErrInvalidState), errors.Is(err, appworkflow.ErrDuplicateDecision):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.Is(err, appworkflow.ErrUnauthorizedRole):
		c.JSON(http.StatusForbidden, Response{Success: false, Error: err.Error()})
	case errors.Is(err, appworkflow.ErrInvalidDecision):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.Is(err, appworkflow.ErrCollaboratorUnavailable):
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error(fallback, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: fallback})
	}
}
