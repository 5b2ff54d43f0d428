// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"campus-smart-go/internal/service"
	"campus-smart-go/pkg/log"
	"campus-smart-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 负责处理聊天请求，支持 REST 与 WebSocket 两种入口。
type ChatHandler struct {
	resolverService service.ResolverService
	userService     service.UserService
	jwtManager      *token.JWTManager
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(resolverService service.ResolverService, userService service.UserService, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{
		resolverService: resolverService,
		userService:     userService,
		jwtManager:      jwtManager,
	}
}

// ChatRequest 定义了聊天 API 的请求体结构。
type ChatRequest struct {
	Message string `json:"message"`
}

// chatPayload 是单次应答返回给前端的结构。
type chatPayload struct {
	Response   string  `json:"response"`
	Tag        string  `json:"tag,omitempty"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	Office     string  `json:"office"`
	Timestamp  int64   `json:"timestamp"`
}

// Chat 处理一条 REST 聊天消息。
func (h *ChatHandler) Chat(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "未登录", "data": nil})
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载", "data": nil})
		return
	}

	result := h.resolverService.Resolve(c.Request.Context(), user.ID, req.Message)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    h.payload(result.Response, result.FinalTag, result.Confidence, result.Source, result.Office),
	})
}

// Handle 处理一个传入的 WebSocket 聊天连接。
// token 经由路径参数传入，因为浏览器的 WebSocket API 无法自定义请求头。
func (h *ChatHandler) Handle(c *gin.Context) {
	tokenString := c.Param("token")
	claims, err := h.jwtManager.VerifyToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的 token", "data": nil})
		return
	}

	user, err := h.userService.GetProfile(claims.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立，用户: %s", claims.Username)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		// 前端可能发送纯文本或 {"message":"..."} 两种格式
		text := string(message)
		if len(message) > 0 && message[0] == '{' {
			var req ChatRequest
			if err := json.Unmarshal(message, &req); err == nil && req.Message != "" {
				text = req.Message
			}
		}

		result := h.resolverService.Resolve(c.Request.Context(), user.ID, text)
		respBytes, err := json.Marshal(h.payload(result.Response, result.FinalTag, result.Confidence, result.Source, result.Office))
		if err != nil {
			log.Errorf("序列化 WebSocket 应答失败: %v", err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, respBytes); err != nil {
			log.Warnf("写入 WebSocket 消息失败: %v", err)
			break
		}
	}
}

func (h *ChatHandler) payload(response, tag string, confidence float64, source, office string) chatPayload {
	if office == "" {
		office = "General"
	}
	return chatPayload{
		Response:   response,
		Tag:        tag,
		Confidence: confidence,
		Source:     source,
		Office:     office,
		Timestamp:  time.Now().UnixMilli(),
	}
}
