package handler

import (
	"net/http"

	"github.com/blues/eps/internal/task"
	"github.com/gin-gonic/gin"
)

// AdminHandler 管理操作处理器
type AdminHandler struct {
	taskManager *task.Manager
}

// NewAdminHandler 创建管理操作处理器
func NewAdminHandler(taskManager *task.Manager) *AdminHandler {
	return &AdminHandler{
		taskManager: taskManager,
	}
}

// TriggerSweep 手动触发一次自动放款扫描
func (h *AdminHandler) TriggerSweep(c *gin.Context) {
	released := h.taskManager.TriggerSweep()

	SuccessResponse(c, http.StatusOK, "扫描完成", SweepResponse{Released: released})
}
