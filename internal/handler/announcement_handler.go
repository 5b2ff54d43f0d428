// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"strconv"

	"campus-smart-go/internal/service"
	"campus-smart-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AnnouncementHandler 负责处理公告相关的 API 请求。
type AnnouncementHandler struct {
	announcementService service.AnnouncementService
}

// NewAnnouncementHandler 创建一个新的 AnnouncementHandler 实例。
func NewAnnouncementHandler(announcementService service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcementService: announcementService}
}

// CreateAnnouncementRequest 定义了创建公告 API 的请求体结构。
type CreateAnnouncementRequest struct {
	Title    string `json:"title" binding:"required"`
	Date     string `json:"date" binding:"required"`
	Message  string `json:"message" binding:"required"`
	Priority string `json:"priority"`
	Category string `json:"category"`
}

// ListActive 返回启用中的公告列表。
func (h *AnnouncementHandler) ListActive(c *gin.Context) {
	announcements, err := h.announcementService.ListActive()
	if err != nil {
		log.Errorf("获取公告列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "获取公告列表失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": announcements})
}

// GetByID 根据 ID 返回单条公告。
func (h *AnnouncementHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的公告 ID", "data": nil})
		return
	}

	announcement, err := h.announcementService.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "公告不存在", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": announcement})
}

// Create 处理创建公告请求（管理员）。
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载", "data": nil})
		return
	}

	announcement, err := h.announcementService.Add(c.Request.Context(), req.Title, req.Date, req.Message, req.Priority, req.Category)
	if err != nil {
		log.Errorf("创建公告失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "创建公告失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "公告创建成功", "data": announcement})
}

// Deactivate 处理停用公告请求（管理员）。
func (h *AnnouncementHandler) Deactivate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的公告 ID", "data": nil})
		return
	}

	if err := h.announcementService.Deactivate(c.Request.Context(), uint(id)); err != nil {
		log.Errorf("停用公告失败, id: %d, error: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "停用公告失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "公告已停用", "data": nil})
}
