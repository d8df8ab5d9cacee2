package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/symphony-service/internal/model"
	"github.com/yourorg/symphony-service/internal/service"
	"github.com/yourorg/symphony-service/internal/utils"
)

// DeployHandler handles compile and deployment HTTP requests.
type DeployHandler struct {
	deployService *service.DeployService
	logger        *zap.Logger
}

// NewDeployHandler creates a new deployment handler.
func NewDeployHandler(deployService *service.DeployService, logger *zap.Logger) *DeployHandler {
	return &DeployHandler{
		deployService: deployService,
		logger:        logger,
	}
}

// CompileStrategy compiles and validates a strategy without deploying it.
// POST /api/v1/strategies/compile
func (h *DeployHandler) CompileStrategy(c *gin.Context) {
	var strategy model.Strategy
	if err := c.ShouldBindJSON(&strategy); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid strategy payload: "+err.Error())
		return
	}

	doc, err := h.deployService.CompileStrategy(&strategy)
	if err != nil {
		h.respondWithCompileError(c, &strategy, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"symphony": doc})
}

// DeployStrategy compiles, validates and deploys a single strategy.
// POST /api/v1/strategies/deploy
func (h *DeployHandler) DeployStrategy(c *gin.Context) {
	var req model.DeployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid deploy payload: "+err.Error())
		return
	}

	record, err := h.deployService.DeployStrategy(c.Request.Context(), &req)
	if err != nil {
		var platformErr *model.PlatformRejectionError
		if errors.As(err, &platformErr) {
			// The remote message is opaque; pass it through verbatim.
			c.JSON(http.StatusBadGateway, gin.H{
				"error":        platformErr.RemoteMessage,
				"preflight_ok": platformErr.PreflightOK,
			})
			return
		}
		h.respondWithCompileError(c, &req.Strategy, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"symphony_id": record.SymphonyID,
		"deployment":  record,
	})
}

// DeployBatch deploys a batch of strategies with per-strategy outcomes.
// POST /api/v1/strategies/deploy-batch
func (h *DeployHandler) DeployBatch(c *gin.Context) {
	var req struct {
		Strategies []model.DeployRequest `json:"strategies" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid batch payload: "+err.Error())
		return
	}

	outcomes := h.deployService.DeployBatch(c.Request.Context(), req.Strategies)

	// The batch call itself succeeds as long as it ran; failures live in
	// the per-strategy outcomes.
	c.JSON(http.StatusOK, gin.H{"outcomes": outcomes})
}

// ListDeployments lists persisted deployment records.
// GET /api/v1/deployments
func (h *DeployHandler) ListDeployments(c *gin.Context) {
	params := utils.ParsePaginationParams(c, 10, 100)

	records, total, err := h.deployService.ListDeployments(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		h.logger.Error("Failed to list deployments", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to list deployments")
		return
	}

	utils.SendPaginatedResponse(c, http.StatusOK, records, total, params.Page, params.Limit)
}

// respondWithCompileError maps the local error taxonomy to HTTP statuses.
// Everything local is 422: the document never left the building.
func (h *DeployHandler) respondWithCompileError(c *gin.Context, strategy *model.Strategy, err error) {
	var operandErr *model.UnsupportedOperandFormatError
	var weightErr *model.WeightSumMismatchError
	var schemaErr *model.SchemaInvariantViolationError

	switch {
	case errors.As(err, &operandErr), errors.As(err, &weightErr), errors.As(err, &schemaErr):
		h.logger.Warn("Strategy rejected by local validation",
			zap.String("strategy", strategy.Name),
			zap.Error(err))
		utils.SendErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("Compilation failed",
			zap.String("strategy", strategy.Name),
			zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
}
