package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StudyRoom/internal/services"
)

// ReportHandler 举报处理器
type ReportHandler struct {
	reportService *services.ReportService
}

// NewReportHandler 创建举报处理器实例
func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// CreateReport 举报资源或评论
func (h *ReportHandler) CreateReport(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}

	var req services.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("CreateReport: JSON binding error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	report, err := h.reportService.CreateReport(userID, &req)
	if err != nil {
		log.Printf("CreateReport: service error for user %d: %v", userID, err)
		fail(c, err)
		return
	}

	ok(c, report)
}

// ListReports 举报列表，仅审核员可见
func (h *ReportHandler) ListReports(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}

	status := c.DefaultQuery("status", "open")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	reports, total, err := h.reportService.ListReports(userID, status, page, pageSize)
	if err != nil {
		log.Printf("ListReports: service error for user %d: %v", userID, err)
		fail(c, err)
		return
	}

	ok(c, gin.H{
		"items": reports,
		"total": total,
	})
}

// ResolveReport 处理举报，仅审核员
func (h *ReportHandler) ResolveReport(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid report id",
		})
		return
	}

	var req struct {
		Status     string `json:"status" binding:"required"`
		Resolution string `json:"resolution"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("ResolveReport: JSON binding error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	if err := h.reportService.ResolveReport(userID, uint(id), req.Status, req.Resolution); err != nil {
		log.Printf("ResolveReport: service error for report %d: %v", id, err)
		fail(c, err)
		return
	}

	ok(c, nil)
}
