package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/eps/internal/logic"
	"github.com/gin-gonic/gin"
)

// DisputeHandler 争议处理器
type DisputeHandler struct {
	disputeLogic *logic.DisputeLogic
}

// NewDisputeHandler 创建争议处理器
func NewDisputeHandler(disputeLogic *logic.DisputeLogic) *DisputeHandler {
	return &DisputeHandler{
		disputeLogic: disputeLogic,
	}
}

// ListOpenDisputes 查询争议中的托管记录
func (h *DisputeHandler) ListOpenDisputes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	escrows, total, err := h.disputeLogic.ListOpenDisputes(page, pageSize)
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

	SuccessResponse(c, http.StatusOK, "获取争议列表成功", GetEscrowsResponse{
		Escrows:    ToEscrowResponseList(escrows),
		Pagination: pagination,
	})
}

// ResolveDispute 裁决争议
func (h *DisputeHandler) ResolveDispute(c *gin.Context) {
	idStr := c.Param("id")
	escrowID, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的托管ID")
		return
	}

	var req ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	escrow, err := h.disputeLogic.ResolveDispute(uint(escrowID), req.AdminID, req.Outcome, req.Notes)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "争议裁决成功", GetEscrowResponse{Escrow: ToEscrowResponse(escrow)})
}
