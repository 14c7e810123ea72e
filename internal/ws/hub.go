package ws

import (
	"context"
	"encoding/json"
	"sync"

	redis "github.com/redis/go-redis/v9"
)

const (
	chatChannelName   = "chat:broadcast"
	notifyChannelName = "notify:push"
)

// Hub 维护活跃的客户端连接并广播消息
type Hub struct {
	// 注册的客户端
	clients map[*Client]bool

	// 房间（学习小组）对应的客户端集合 GroupID -> Client -> bool
	rooms map[uint]map[*Client]bool

	// 用户 ID 到客户端的映射，用于定向推送通知
	userClients map[uint]*Client

	// 互斥锁，保护 map 的并发读写
	mu sync.RWMutex

	// 注册请求通道
	register chan *Client

	// 注销请求通道
	unregister chan *Client

	// 广播消息通道 (内部使用)
	broadcast chan *BroadcastMessage

	// Redis 客户端，用于多实例间的广播
	redis *redis.Client
}

// BroadcastMessage 广播消息结构
// GroupID 非 0 时广播给整个小组；UserID 非 0 时仅推送给指定用户
type BroadcastMessage struct {
	GroupID uint `json:"group_id,omitempty"`
	UserID  uint `json:"user_id,omitempty"`
	Message any  `json:"message"`
}

func NewHub(redisClient *redis.Client) *Hub {
	return &Hub{
		broadcast:   make(chan *BroadcastMessage),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		clients:     make(map[*Client]bool),
		rooms:       make(map[uint]map[*Client]bool),
		userClients: make(map[uint]*Client),
		redis:       redisClient,
	}
}

func (h *Hub) Run() {
	// 启动 Redis 订阅协程
	if h.redis != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.userClients[client.userID] = client
			// 将客户端加入其所属的小组房间
			for _, groupID := range client.groupIDs {
				if _, ok := h.rooms[groupID]; !ok {
					h.rooms[groupID] = make(map[*Client]bool)
				}
				h.rooms[groupID][client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.removeClientLocked(client)
			}
			h.mu.Unlock()
			// 清除在线状态键，避免脏数据
			if client.chatService != nil {
				_ = client.chatService.RemoveUserOnline(context.Background(), client.userID)
			}

		case msg := <-h.broadcast:
			h.mu.RLock()
			// 收集需要关闭的客户端，避免在 RLock 中修改 map
			var closedClients []*Client

			if msg.UserID != 0 {
				// 定向推送
				if client, ok := h.userClients[msg.UserID]; ok {
					select {
					case client.send <- msg:
					default:
						closedClients = append(closedClients, client)
					}
				}
			} else if clients, ok := h.rooms[msg.GroupID]; ok {
				// 找到目标小组的所有订阅者
				for client := range clients {
					select {
					case client.send <- msg:
					default:
						// 发送缓冲区满，标记为需要关闭
						closedClients = append(closedClients, client)
					}
				}
			}
			h.mu.RUnlock()

			if len(closedClients) > 0 {
				h.mu.Lock()
				for _, client := range closedClients {
					// Double check，防止已经处理过
					if _, ok := h.clients[client]; ok {
						h.removeClientLocked(client)
					}
				}
				h.mu.Unlock()
			}
		}
	}
}

// removeClientLocked 从所有映射中移除客户端，调用方必须持有写锁
func (h *Hub) removeClientLocked(client *Client) {
	delete(h.clients, client)
	delete(h.userClients, client.userID)
	close(client.send)
	for _, groupID := range client.groupIDs {
		if room, ok := h.rooms[groupID]; ok {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, groupID)
			}
		}
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.redis.Subscribe(ctx, chatChannelName, notifyChannelName)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for msg := range ch {
		var broadcastMsg BroadcastMessage
		if err := json.Unmarshal([]byte(msg.Payload), &broadcastMsg); err == nil {
			// 将从 Redis 收到的消息送入本地广播通道
			// 注意：这里不再 Publish 到 Redis，否则会死循环
			h.broadcast <- &broadcastMsg
		}
	}
}

// BroadcastToGroup 发送消息到指定小组的所有在线成员
func (h *Hub) BroadcastToGroup(groupID uint, message any) {
	h.publish(chatChannelName, &BroadcastMessage{
		GroupID: groupID,
		Message: message,
	})
}

// PushToUser 定向推送通知给指定用户
func (h *Hub) PushToUser(userID uint, message any) {
	h.publish(notifyChannelName, &BroadcastMessage{
		UserID:  userID,
		Message: message,
	})
}

func (h *Hub) publish(channel string, msg *BroadcastMessage) {
	if h.redis != nil {
		// 发布到 Redis，让所有实例（包括自己）通过订阅收到消息
		payload, err := json.Marshal(msg)
		if err == nil {
			h.redis.Publish(context.Background(), channel, payload)
			return
		}
	}
	// 如果没有 Redis，回退到仅本地广播
	h.broadcast <- msg
}
