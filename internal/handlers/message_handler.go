package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StudyRoom/internal/services"
)

// MessageHandler 小组聊天消息处理器
type MessageHandler struct {
	chatService *services.ChatService
}

// NewMessageHandler 创建消息处理器实例
func NewMessageHandler(chatService *services.ChatService) *MessageHandler {
	return &MessageHandler{
		chatService: chatService,
	}
}

// History 拉取小组历史消息，仅成员可见
// 支持 after_seq 增量拉取和 limit 控制条数
func (h *MessageHandler) History(c *gin.Context) {
	userID, okAuth := currentUserID(c)
	if !okAuth {
		return
	}
	groupID, okParam := groupIDParam(c)
	if !okParam {
		return
	}

	afterSeq, _ := strconv.ParseInt(c.DefaultQuery("after_seq", "0"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := h.chatService.History(userID, groupID, afterSeq, limit)
	if err != nil {
		log.Printf("History: service error for group %d: %v", groupID, err)
		fail(c, err)
		return
	}

	ok(c, messages)
}

// Presence 查询用户是否在线
func (h *MessageHandler) Presence(c *gin.Context) {
	if _, okAuth := currentUserID(c); !okAuth {
		return
	}

	targetID, err := strconv.ParseUint(c.Param("userID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid user id",
		})
		return
	}

	online, err := h.chatService.IsUserOnline(c, uint(targetID))
	if err != nil {
		log.Printf("Presence: service error for user %d: %v", targetID, err)
		fail(c, err)
		return
	}

	ok(c, gin.H{"online": online})
}
