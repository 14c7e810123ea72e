package consumer

import (
	"context"
	"encoding/json"
	"log"

	"github.com/IBM/sarama"

	"github.com/Gopher0727/StudyRoom/internal/services"
	"github.com/Gopher0727/StudyRoom/internal/ws"
)

// MessageConsumer 消费聊天消息：落库后广播给小组的在线成员
type MessageConsumer struct {
	chatService *services.ChatService
	hub         *ws.Hub
}

func NewMessageConsumer(chatService *services.ChatService, hub *ws.Hub) *MessageConsumer {
	return &MessageConsumer{
		chatService: chatService,
		hub:         hub,
	}
}

// Setup is run at the beginning of a new session, before ConsumeClaim
func (consumer *MessageConsumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited
func (consumer *MessageConsumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim must start a consumer loop of ConsumerGroupClaim's Messages().
func (consumer *MessageConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		log.Printf("消费消息: value = %s, timestamp = %v, topic = %s", string(message.Value), message.Timestamp, message.Topic)

		var req ws.ChatEnvelope
		if err := json.Unmarshal(message.Value, &req); err != nil {
			log.Printf("反序列化消息失败: %v", err)
			session.MarkMessage(message, "")
			continue
		}

		// 调用 Service 保存消息
		resp, err := consumer.chatService.SendMessage(req.UserID, req.GroupID, req.Content)
		if err != nil {
			log.Printf("保存来自 Kafka 的消息失败: %v", err)
			// 暂时标记为已消费，避免死循环
			session.MarkMessage(message, "")
			continue
		}

		// 广播消息
		consumer.hub.BroadcastToGroup(req.GroupID, resp)

		session.MarkMessage(message, "")
	}
	return nil
}

// NotificationConsumer 消费通知事件：持久化后定向推送给目标用户
type NotificationConsumer struct {
	notificationService *services.NotificationService
	hub                 *ws.Hub
}

func NewNotificationConsumer(notificationService *services.NotificationService, hub *ws.Hub) *NotificationConsumer {
	return &NotificationConsumer{
		notificationService: notificationService,
		hub:                 hub,
	}
}

func (consumer *NotificationConsumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *NotificationConsumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *NotificationConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var event services.NotificationEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			log.Printf("反序列化通知事件失败: %v", err)
			session.MarkMessage(message, "")
			continue
		}

		dto, err := consumer.notificationService.Store(&event)
		if err != nil {
			log.Printf("保存来自 Kafka 的通知失败: %v", err)
			session.MarkMessage(message, "")
			continue
		}

		// 用户在线则实时推送，离线时下次查询通知列表可见
		consumer.hub.PushToUser(event.UserID, dto)

		session.MarkMessage(message, "")
	}
	return nil
}

// StartConsumer 以消费者组方式持续消费指定 topic
func StartConsumer(brokers []string, groupID string, topic string, handler sarama.ConsumerGroupHandler) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Offsets.Initial = sarama.OffsetNewest

	client, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		log.Fatalf("创建消费者组客户端失败: %v", err)
	}

	ctx := context.Background()
	go func() {
		for {
			if err := client.Consume(ctx, []string{topic}, handler); err != nil {
				log.Printf("消费者错误: %v", err)
			}
			// check if context was cancelled, signaling that the consumer should stop
			if ctx.Err() != nil {
				return
			}
		}
	}()
}
