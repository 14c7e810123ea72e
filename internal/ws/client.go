package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Gopher0727/StudyRoom/internal/services"
	"github.com/Gopher0727/StudyRoom/pkg/mq"
)

const (
	writeWait      = 10 * time.Second    // 允许写入消息到对端的最大时间
	pongWait       = 60 * time.Second    // 允许读取下一个 pong 消息的最大时间
	pingPeriod     = (pongWait * 9) / 10 // 发送 ping 到对端的周期。必须小于 pongWait
	maxMessageSize = 512                 // 允许来自对端的最大消息大小
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client 代表一个 WebSocket 连接客户端
type Client struct {
	hub           *Hub
	conn          *websocket.Conn        // WebSocket 连接
	send          chan *BroadcastMessage // 缓冲通道，用于发送消息
	userID        uint                   // 用户 ID
	groupIDs      []uint                 // 用户所属的小组 ID 列表 (用于订阅)
	chatService   *services.ChatService  // 服务引用，用于处理接收到的消息
	kafkaProducer *mq.Producer      // Kafka Producer
}

// ChatEnvelope 投递到 Kafka 的消息信封
type ChatEnvelope struct {
	UserID  uint                         `json:"user_id"`
	GroupID uint                         `json:"group_id"`
	Content *services.SendMessageRequest `json:"content"`
}

// readPump 泵送来自 WebSocket 连接的消息到 Hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		// 收到 Pong，说明客户端还活着，续期在线标记
		// 异步执行，避免阻塞
		go c.chatService.SetUserOnline(context.Background(), c.userID)
		return nil
	})

	// 拉取最近的历史消息，确保用户建连后能看到上下文
	go c.pushRecentMessages()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("错误: %v", err)
			}
			break
		}

		// 客户端发送的是 JSON 格式: {"group_id": 1, "content": "hello", "msg_type": "text"}
		var req struct {
			GroupID uint   `json:"group_id"`
			Content string `json:"content"`
			MsgType string `json:"msg_type"`
		}
		if err := json.Unmarshal(message, &req); err != nil {
			log.Printf("json 反序列化错误: %v", err)
			continue
		}

		sendReq := &services.SendMessageRequest{
			Content: req.Content,
			MsgType: req.MsgType,
		}

		// 优先发送到 Kafka，由 Consumer 落库并广播
		if c.kafkaProducer != nil {
			envelope := ChatEnvelope{
				UserID:  c.userID,
				GroupID: req.GroupID,
				Content: sendReq,
			}
			// 使用 GroupID 作为 Key，保证同一个小组的消息在同一个 Partition，从而有序
			if err := c.kafkaProducer.SendMessage(strconv.Itoa(int(req.GroupID)), envelope); err != nil {
				log.Printf("发送消息到 kafka 失败: %v", err)
				continue
			}
		} else {
			// 降级处理：如果没有 Kafka，直接调用 Service
			resp, err := c.chatService.SendMessage(c.userID, req.GroupID, sendReq)
			if err != nil {
				log.Printf("发送消息错误: %v", err)
				continue
			}

			c.hub.BroadcastToGroup(req.GroupID, resp)
		}
	}
}

// pushRecentMessages 拉取并发送最近的历史消息
func (c *Client) pushRecentMessages() {
	// 防止向已关闭的 channel 发送导致 panic
	defer func() {
		if r := recover(); r != nil {
			log.Printf("pushRecentMessages 发生 panic 并恢复: %v", r)
		}
	}()

	// 限制每个小组推送的消息数量
	const recentCount = 20

	for _, groupID := range c.groupIDs {
		msgs, err := c.chatService.History(c.userID, groupID, 0, recentCount)
		if err != nil {
			log.Printf("获取小组 %d 的最近消息失败: %v", groupID, err)
			continue
		}

		// History 返回的是按序列号倒序 (Newest -> Oldest)
		// 我们需要按时间正序发送 (Oldest -> Newest)
		for i := len(msgs) - 1; i >= 0; i-- {
			broadcastMsg := &BroadcastMessage{
				GroupID: msgs[i].GroupID,
				Message: msgs[i],
			}
			c.send <- broadcastMsg
		}
	}
}

// writePump 泵送来自 Hub 的消息到 WebSocket 连接
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 关闭了通道
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			// 客户端收到后根据 group_id / user_id 判断消息归属
			json.NewEncoder(w).Encode(msg)

			// 添加队列中的其他消息（如果有）
			n := len(c.send)
			for range n {
				json.NewEncoder(w).Encode(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs 处理 WebSocket 请求
// 订阅的小组在连接建立时快照，连接期间新加入的小组要等重连后才收到其群聊
// 入组/审批结果本身走按用户推送的通知通道，不受快照影响
func ServeWs(hub *Hub, chatService *services.ChatService, kafkaProducer *mq.Producer, c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权"})
		return
	}

	// 升级连接
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("升级 websocket 失败: %v", err)
		return
	}

	// 获取用户加入的小组列表
	uID := userID.(uint)
	groupIDs, err := chatService.GroupIDsForUser(uID)
	if err != nil {
		log.Printf("获取用户小组列表失败: %v", err)
		conn.Close()
		return
	}

	// 标记用户在线
	if err := chatService.SetUserOnline(c, uID); err != nil {
		log.Printf("设置用户在线状态失败: %v", err)
	}

	client := &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan *BroadcastMessage, 256),
		userID:        uID,
		groupIDs:      groupIDs,
		chatService:   chatService,
		kafkaProducer: kafkaProducer,
	}
	client.hub.register <- client
	go client.writePump()
	go client.readPump()
}
