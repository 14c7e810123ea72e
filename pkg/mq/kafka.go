package mq

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/IBM/sarama"

	"github.com/Gopher0727/StudyRoom/config"
)

const defaultRetryMax = 3

// Producer 面向单个 topic 的同步生产者
// 事件按 key 分区，同一用户/小组的事件落在同一分区内保持有序
type Producer struct {
	sync  sarama.SyncProducer
	topic string
}

func producerConfig(cfg *config.KafkaConfig) *sarama.Config {
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = cfg.ProducerRetryMax
	if sc.Producer.Retry.Max <= 0 {
		sc.Producer.Retry.Max = defaultRetryMax
	}
	return sc
}

// NewProducer 创建指向 topic 的生产者，重试等参数取自配置
func NewProducer(cfg *config.KafkaConfig, topic string) (*Producer, error) {
	sync, err := sarama.NewSyncProducer(cfg.Brokers, producerConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("启动 Sarama 生产者失败: %w", err)
	}
	return &Producer{sync: sync, topic: topic}, nil
}

// SendMessage 序列化事件并同步发送
func (p *Producer) SendMessage(key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	partition, offset, err := p.sync.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("发送消息到 kafka 失败: %w", err)
	}

	log.Printf("消息已存储到 topic(%s)/partition(%d)/offset(%d)", p.topic, partition, offset)
	return nil
}

func (p *Producer) Close() error {
	return p.sync.Close()
}
