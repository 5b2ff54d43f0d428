// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"campus-smart-go/internal/service"
	"campus-smart-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// KnowledgeHandler 负责处理知识文件上传与管理的 API 请求。
type KnowledgeHandler struct {
	knowledgeService service.KnowledgeService
}

// NewKnowledgeHandler 创建一个新的 KnowledgeHandler 实例。
func NewKnowledgeHandler(knowledgeService service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledgeService: knowledgeService}
}

// Upload 处理知识文件上传请求（管理员）。
func (h *KnowledgeHandler) Upload(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "未登录", "data": nil})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "缺少上传文件", "data": nil})
		return
	}
	office := c.PostForm("office")

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "读取上传文件失败", "data": nil})
		return
	}
	defer file.Close()

	record, err := h.knowledgeService.Upload(c.Request.Context(), file, fileHeader.Filename, fileHeader.Size, office, user.ID)
	if err != nil {
		log.Errorf("知识文件上传失败, fileName: %s, error: %v", fileHeader.Filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": err.Error(), "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "文件上传成功，摄取任务已排队", "data": record})
}

// List 返回全部知识文件记录（管理员）。
func (h *KnowledgeHandler) List(c *gin.Context) {
	files, err := h.knowledgeService.ListFiles()
	if err != nil {
		log.Errorf("获取知识文件列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "获取知识文件列表失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": files})
}

// Delete 删除一份知识文件及其摄取产物（管理员）。
func (h *KnowledgeHandler) Delete(c *gin.Context) {
	fileMD5 := c.Param("fileMd5")
	if fileMD5 == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "缺少文件 MD5", "data": nil})
		return
	}

	if err := h.knowledgeService.DeleteFile(c.Request.Context(), fileMD5); err != nil {
		log.Errorf("删除知识文件失败, fileMD5: %s, error: %v", fileMD5, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "删除知识文件失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "知识文件已删除", "data": nil})
}
