package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Gopher0727/StudyRoom/internal/models"
	"github.com/Gopher0727/StudyRoom/internal/repositories"
	"github.com/Gopher0727/StudyRoom/pkg/mq"
	"github.com/Gopher0727/StudyRoom/utils/bloom"
)

var ErrNotificationNotFound = errors.New("通知不存在")

// NotificationEvent 通知事件，经 Kafka 流转
type NotificationEvent struct {
	UserID  uint   `json:"user_id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	RefType string `json:"ref_type"`
	RefID   uint   `json:"ref_id"`
}

// NotificationDTO 通知数据传输对象
type NotificationDTO struct {
	ID        uint   `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	RefType   string `json:"ref_type"`
	RefID     uint   `json:"ref_id"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

// NotificationService 通知服务
// 事件优先走 Kafka，由消费者落库并推送；Kafka 不可用时降级为直接落库。
// 布隆过滤器在进程生命周期内抑制重复事件（fire-and-forget 语义下的重试防护）
type NotificationService struct {
	notificationRepo *repositories.NotificationRepository
	producer         *mq.Producer
	seen             *bloom.Filter
}

// NewNotificationService 创建通知服务实例，producer 可以为 nil（降级模式）
func NewNotificationService(notificationRepo *repositories.NotificationRepository, producer *mq.Producer) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		producer:         producer,
		seen:             bloom.New(1<<20, 4),
	}
}

// Notify 发送一条通知（fire-and-forget），实现 Notifier 接口
func (s *NotificationService) Notify(userID uint, notifyType, title, body, refType string, refID uint) {
	dedupeKey := fmt.Sprintf("%d:%s:%s:%d:%s", userID, notifyType, refType, refID, body)
	if s.seen.TestAndAdd([]byte(dedupeKey)) {
		// 本进程内已发过同一事件，直接丢弃
		return
	}

	event := &NotificationEvent{
		UserID:  userID,
		Type:    notifyType,
		Title:   title,
		Body:    body,
		RefType: refType,
		RefID:   refID,
	}

	if s.producer != nil {
		if err := s.producer.SendMessage(fmt.Sprintf("user-%d", userID), event); err == nil {
			return
		}
		log.Printf("通知事件写入 Kafka 失败，降级为直接落库: user=%d type=%s", userID, notifyType)
	}

	if _, err := s.Store(event); err != nil {
		log.Printf("通知落库失败: user=%d type=%s err=%v", userID, notifyType, err)
	}
}

// Store 将事件持久化为通知记录，消费者与降级路径共用
func (s *NotificationService) Store(event *NotificationEvent) (*NotificationDTO, error) {
	n := &models.Notification{
		UserID:  event.UserID,
		Type:    event.Type,
		Title:   event.Title,
		Body:    event.Body,
		RefType: event.RefType,
		RefID:   event.RefID,
	}
	if err := s.notificationRepo.Create(n); err != nil {
		return nil, err
	}
	return toNotificationDTO(n), nil
}

func toNotificationDTO(n *models.Notification) *NotificationDTO {
	return &NotificationDTO{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		RefType:   n.RefType,
		RefID:     n.RefID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}

// List 分页获取用户通知
func (s *NotificationService) List(userID uint, page, pageSize int) ([]NotificationDTO, int64, error) {
	offset := (page - 1) * pageSize
	notifications, total, err := s.notificationRepo.ListByUser(userID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]NotificationDTO, 0, len(notifications))
	for i := range notifications {
		dtos = append(dtos, *toNotificationDTO(&notifications[i]))
	}
	return dtos, total, nil
}

// MarkRead 标记单条已读
func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	affected, err := s.notificationRepo.MarkRead(userID, notificationID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead 全部已读
func (s *NotificationService) MarkAllRead(userID uint) error {
	return s.notificationRepo.MarkAllRead(userID)
}

// UnreadCount 未读数
func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	return s.notificationRepo.CountUnread(userID)
}
