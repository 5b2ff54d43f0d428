// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"strconv"

	"campus-smart-go/internal/service"
	"campus-smart-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// FAQHandler 负责处理 FAQ 相关的 API 请求。
type FAQHandler struct {
	faqService service.FAQService
}

// NewFAQHandler 创建一个新的 FAQHandler 实例。
func NewFAQHandler(faqService service.FAQService) *FAQHandler {
	return &FAQHandler{faqService: faqService}
}

// FAQRequest 定义了创建/更新 FAQ API 的请求体结构。
type FAQRequest struct {
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer" binding:"required"`
	Office   string `json:"office"`
}

// List 返回全部启用中的 FAQ。
func (h *FAQHandler) List(c *gin.Context) {
	faqs, err := h.faqService.ListActive()
	if err != nil {
		log.Errorf("获取 FAQ 列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "获取 FAQ 列表失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": faqs})
}

// Create 处理创建 FAQ 请求（管理员）。
func (h *FAQHandler) Create(c *gin.Context) {
	var req FAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载", "data": nil})
		return
	}

	faq, err := h.faqService.Create(c.Request.Context(), req.Question, req.Answer, req.Office)
	if err != nil {
		log.Errorf("创建 FAQ 失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "创建 FAQ 失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "FAQ 创建成功", "data": faq})
}

// Update 处理更新 FAQ 请求（管理员）。
func (h *FAQHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的 FAQ ID", "data": nil})
		return
	}

	var req FAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载", "data": nil})
		return
	}

	faq, err := h.faqService.Update(c.Request.Context(), uint(id), req.Question, req.Answer, req.Office)
	if err != nil {
		log.Errorf("更新 FAQ 失败, id: %d, error: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "更新 FAQ 失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "FAQ 更新成功", "data": faq})
}

// Delete 处理删除 FAQ 请求（管理员）。
func (h *FAQHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的 FAQ ID", "data": nil})
		return
	}

	if err := h.faqService.Delete(c.Request.Context(), uint(id)); err != nil {
		log.Errorf("删除 FAQ 失败, id: %d, error: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "删除 FAQ 失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "FAQ 已删除", "data": nil})
}
