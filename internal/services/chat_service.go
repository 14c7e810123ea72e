package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/Gopher0727/StudyRoom/internal/models"
	"github.com/Gopher0727/StudyRoom/internal/repositories"
	"github.com/Gopher0727/StudyRoom/utils/snowflake"
)

var (
	ErrEmptyMessage = errors.New("消息内容不能为空")
)

const (
	// 在线状态 TTL，由 WebSocket 心跳续期
	onlineTTL = 90 * time.Second
)

// ChatService 小组聊天服务
// 消息 ID 用 snowflake 生成，组内序号用 Redis INCR 保证单组递增
type ChatService struct {
	messageRepo *repositories.MessageRepository
	groupRepo   *repositories.GroupRepository
	redisClient *redis.Client
	idGen       *snowflake.Generator
}

// NewChatService 创建聊天服务实例
func NewChatService(messageRepo *repositories.MessageRepository, groupRepo *repositories.GroupRepository, redisClient *redis.Client, idGen *snowflake.Generator) *ChatService {
	return &ChatService{
		messageRepo: messageRepo,
		groupRepo:   groupRepo,
		redisClient: redisClient,
		idGen:       idGen,
	}
}

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	Content string `json:"content"`
	MsgType string `json:"msg_type"`
}

// MessageDTO 消息数据传输对象
type MessageDTO struct {
	ID         int64  `json:"id"`
	GroupID    uint   `json:"group_id"`
	SenderID   uint   `json:"sender_id"`
	Sender     string `json:"sender"`
	Content    string `json:"content"`
	MsgType    string `json:"msg_type"`
	SequenceID int64  `json:"sequence_id"`
	CreatedAt  string `json:"created_at"`
}

// NextSequenceID 生成组内递增序号
func (s *ChatService) NextSequenceID(ctx context.Context, groupID uint) (int64, error) {
	key := fmt.Sprintf("group:%d:seq_id", groupID)
	return s.redisClient.Incr(ctx, key).Result()
}

// SendMessage 校验成员身份并持久化一条消息
func (s *ChatService) SendMessage(userID, groupID uint, req *SendMessageRequest) (*MessageDTO, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, ErrEmptyMessage
	}
	if _, err := s.groupRepo.GetByID(groupID); err != nil {
		return nil, ErrGroupNotFound
	}
	if _, err := s.groupRepo.GetMember(groupID, userID); err != nil {
		return nil, ErrNotMember
	}

	id, err := s.idGen.NextID()
	if err != nil {
		return nil, err
	}

	seq, err := s.NextSequenceID(context.Background(), groupID)
	if err != nil {
		// Redis 不可用时退化为时间戳序号，保证消息不丢
		seq = time.Now().UnixNano()
	}

	msgType := req.MsgType
	if msgType == "" {
		msgType = "text"
	}

	msg := &models.Message{
		ID:         id,
		GroupID:    groupID,
		SenderID:   userID,
		Content:    req.Content,
		MsgType:    msgType,
		SequenceID: seq,
	}
	if err := s.messageRepo.Save(msg); err != nil {
		return nil, err
	}

	return &MessageDTO{
		ID:         msg.ID,
		GroupID:    msg.GroupID,
		SenderID:   msg.SenderID,
		Content:    msg.Content,
		MsgType:    msg.MsgType,
		SequenceID: msg.SequenceID,
		CreatedAt:  msg.CreatedAt.Format(time.RFC3339),
	}, nil
}

// History 拉取小组历史消息，仅成员可见
func (s *ChatService) History(userID, groupID uint, afterSeq int64, limit int) ([]MessageDTO, error) {
	if _, err := s.groupRepo.GetByID(groupID); err != nil {
		return nil, ErrGroupNotFound
	}
	if _, err := s.groupRepo.GetMember(groupID, userID); err != nil {
		return nil, ErrNotMember
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	messages, err := s.messageRepo.ListByGroup(groupID, afterSeq, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]MessageDTO, 0, len(messages))
	for _, m := range messages {
		dto := MessageDTO{
			ID:         m.ID,
			GroupID:    m.GroupID,
			SenderID:   m.SenderID,
			Content:    m.Content,
			MsgType:    m.MsgType,
			SequenceID: m.SequenceID,
			CreatedAt:  m.CreatedAt.Format(time.RFC3339),
		}
		if m.Sender != nil {
			dto.Sender = m.Sender.UserName
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

// GroupIDsForUser 用户所属的小组 ID 列表，WebSocket 建连时订阅用
func (s *ChatService) GroupIDsForUser(userID uint) ([]uint, error) {
	groups, err := s.groupRepo.ListUserGroups(userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	return ids, nil
}

// SetUserOnline 标记用户在线，TTL 到期自动下线
func (s *ChatService) SetUserOnline(ctx context.Context, userID uint) error {
	key := fmt.Sprintf("user:%d:online", userID)
	return s.redisClient.Set(ctx, key, 1, onlineTTL).Err()
}

// IsUserOnline 查询用户是否在线
func (s *ChatService) IsUserOnline(ctx context.Context, userID uint) (bool, error) {
	key := fmt.Sprintf("user:%d:online", userID)
	n, err := s.redisClient.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RemoveUserOnline 连接断开时清除在线标记
func (s *ChatService) RemoveUserOnline(ctx context.Context, userID uint) error {
	key := fmt.Sprintf("user:%d:online", userID)
	return s.redisClient.Del(ctx, key).Err()
}
