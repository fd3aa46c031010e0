package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/eps/internal/logic"
	"github.com/gin-gonic/gin"
)

// EscrowHandler 托管处理器
type EscrowHandler struct {
	escrowLogic *logic.EscrowLogic
}

// NewEscrowHandler 创建托管处理器
func NewEscrowHandler(escrowLogic *logic.EscrowLogic) *EscrowHandler {
	return &EscrowHandler{
		escrowLogic: escrowLogic,
	}
}

// CreateEscrow 创建托管支付订单
func (h *EscrowHandler) CreateEscrow(c *gin.Context) {
	var req CreateEscrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	escrow, err := h.escrowLogic.CreateEscrow(c.Request.Context(), req.MilestoneID, req.ClientID)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "托管订单创建成功", GetEscrowResponse{Escrow: ToEscrowResponse(escrow)})
}

// VerifyPayment 校验支付回调并激活托管
func (h *EscrowHandler) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	escrow, err := h.escrowLogic.ActivateEscrow(c.Request.Context(), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "支付验证成功，托管已生效", GetEscrowResponse{Escrow: ToEscrowResponse(escrow)})
}

// GetEscrows 分页查询托管记录
func (h *EscrowHandler) GetEscrows(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	status := c.Query("status")

	escrows, total, err := h.escrowLogic.ListEscrows(status, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取托管列表成功", GetEscrowsResponse{
		Escrows:    ToEscrowResponseList(escrows),
		Pagination: pagination,
	})
}

// GetEscrow 查询托管详情
func (h *EscrowHandler) GetEscrow(c *gin.Context) {
	escrowID, ok := h.parseID(c)
	if !ok {
		return
	}

	escrow, err := h.escrowLogic.GetEscrow(escrowID)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取托管详情成功", GetEscrowResponse{Escrow: ToEscrowResponse(escrow)})
}

// GetEscrowHistory 查询托管历史事件
func (h *EscrowHandler) GetEscrowHistory(c *gin.Context) {
	escrowID, ok := h.parseID(c)
	if !ok {
		return
	}

	records, err := h.escrowLogic.GetEscrowHistory(escrowID)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取托管历史成功", GetEscrowHistoryResponse{
		EscrowID: escrowID,
		History:  ToHistoryResponseList(records),
	})
}

// GetMilestoneEscrow 查询里程碑当前的托管记录
func (h *EscrowHandler) GetMilestoneEscrow(c *gin.Context) {
	milestoneIDStr := c.Param("id")
	milestoneID, err := strconv.ParseUint(milestoneIDStr, 10, 32)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的里程碑ID")
		return
	}

	escrow, err := h.escrowLogic.GetEscrowByMilestone(uint(milestoneID))
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取里程碑托管成功", GetEscrowResponse{Escrow: ToEscrowResponse(escrow)})
}

// SubmitDeliverable 提交交付物
func (h *EscrowHandler) SubmitDeliverable(c *gin.Context) {
	escrowID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req SubmitDeliverableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	escrow, err := h.escrowLogic.SubmitDeliverable(escrowID, req.FreelancerID, req.Note)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "交付物提交成功", GetEscrowResponse{Escrow: ToEscrowResponse(escrow)})
}

// RecordApproval 审批交付物
func (h *EscrowHandler) RecordApproval(c *gin.Context) {
	escrowID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req RecordApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Approved == nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	escrow, err := h.escrowLogic.RecordApproval(escrowID, req.ClientID, *req.Approved, req.Notes)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	message := "审批结果已记录"
	if *req.Approved {
		message = "交付物审批通过"
	}

	SuccessResponse(c, http.StatusOK, message, GetEscrowResponse{Escrow: ToEscrowResponse(escrow)})
}

// ReleaseFunds 手动放款
func (h *EscrowHandler) ReleaseFunds(c *gin.Context) {
	escrowID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req ReleaseFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "manual release"
	}

	escrow, err := h.escrowLogic.ReleaseFunds(escrowID, req.ActorID, reason)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "放款成功", GetEscrowResponse{Escrow: ToEscrowResponse(escrow)})
}

// RaiseDispute 发起争议
func (h *EscrowHandler) RaiseDispute(c *gin.Context) {
	escrowID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req RaiseDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	escrow, err := h.escrowLogic.RaiseDispute(escrowID, req.ActorID, req.Reason)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "争议已发起", GetEscrowResponse{Escrow: ToEscrowResponse(escrow)})
}

// CancelEscrow 取消未支付的托管订单
func (h *EscrowHandler) CancelEscrow(c *gin.Context) {
	escrowID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req CancelEscrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	escrow, err := h.escrowLogic.CancelEscrow(escrowID, req.ClientID)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "托管订单已取消", GetEscrowResponse{Escrow: ToEscrowResponse(escrow)})
}

// parseID 解析路径中的托管ID
func (h *EscrowHandler) parseID(c *gin.Context) (uint, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的托管ID")
		return 0, false
	}
	return uint(id), true
}
