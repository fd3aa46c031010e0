package handler

import (
	"errors"
	"net/http"

	"github.com/blues/eps/internal/logic"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// LogicErrorResponse 按业务错误类型映射HTTP状态码
func LogicErrorResponse(c *gin.Context, err error) {
	ErrorResponse(c, statusForError(err), err.Error())
}

// statusForError 业务错误到HTTP状态码的映射
func statusForError(err error) int {
	switch {
	case errors.Is(err, logic.ErrEscrowNotFound),
		errors.Is(err, logic.ErrMilestoneNotFound):
		return http.StatusNotFound
	case errors.Is(err, logic.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, logic.ErrEscrowExists),
		errors.Is(err, logic.ErrEscrowDisputed),
		errors.Is(err, logic.ErrReleaseNotEligible),
		errors.Is(err, logic.ErrEscrowNotActive),
		errors.Is(err, logic.ErrEscrowNotPending),
		errors.Is(err, logic.ErrEscrowNotDisputed),
		errors.Is(err, logic.ErrDeliverableNotSubmitted):
		return http.StatusConflict
	case errors.Is(err, logic.ErrInvalidSignature),
		errors.Is(err, logic.ErrPaymentNotCaptured),
		errors.Is(err, logic.ErrInvalidResolution):
		return http.StatusBadRequest
	case errors.Is(err, logic.ErrGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
