package job

import (
	"context"
	"log"
	"sync"
	"time"

	"digiwallet/internal/model"
)

// OutboxStore 发件箱存储，由 repository.OutboxRepository 实现
type OutboxStore interface {
	FetchPending(ctx context.Context, limit int) ([]*model.OutboxMessage, error)
	MarkSent(ctx context.Context, id int64) error
	MarkRetry(ctx context.Context, id int64, maxRetry int) error
}

// MessageSender 消息发送方，由 mq.Producer 实现
type MessageSender interface {
	SendMessage(topic, key, value string) error
}

// OutboxSender 将交易事务中写入的发件箱消息投递到 Kafka
// 投递至少一次，消费方按 invoice_number 去重
type OutboxSender struct {
	store     OutboxStore
	sender    MessageSender
	interval  time.Duration
	batchSize int
	maxRetry  int
	stopCh    chan struct{}
	stopOnce  sync.Once
}

func NewOutboxSender(store OutboxStore, sender MessageSender, interval time.Duration, batchSize, maxRetry int) *OutboxSender {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if maxRetry <= 0 {
		maxRetry = 1
	}
	return &OutboxSender{
		store:     store,
		sender:    sender,
		interval:  interval,
		batchSize: batchSize,
		maxRetry:  maxRetry,
		stopCh:    make(chan struct{}),
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	log.Println("[OutboxSender] 消息发送任务启动")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[OutboxSender] 收到停止信号，任务退出")
			return
		case <-s.stopCh:
			log.Println("[OutboxSender] 任务停止")
			return
		case <-ticker.C:
			s.processPendingMessages(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *OutboxSender) processPendingMessages(ctx context.Context) int {
	messages, err := s.store.FetchPending(ctx, s.batchSize)
	if err != nil {
		log.Printf("[OutboxSender] 查询消息失败: %v", err)
		return 0
	}

	sent := 0
	for _, msg := range messages {
		if s.sendMessage(ctx, msg) {
			sent++
		}
	}
	return sent
}

func (s *OutboxSender) sendMessage(ctx context.Context, msg *model.OutboxMessage) bool {
	err := s.sender.SendMessage(msg.Topic, msg.MessageKey, msg.Payload)
	if err == nil {
		if updateErr := s.store.MarkSent(ctx, msg.ID); updateErr != nil {
			log.Printf("[OutboxSender] 更新消息状态失败: id=%d, err=%v", msg.ID, updateErr)
		}
		return true
	}

	log.Printf("[OutboxSender] 消息发送失败: id=%d, retry=%d, err=%v", msg.ID, msg.RetryCount+1, err)
	if err := s.store.MarkRetry(ctx, msg.ID, s.maxRetry); err != nil {
		log.Printf("[OutboxSender] 记录重试失败: id=%d, err=%v", msg.ID, err)
	}
	if msg.RetryCount+1 >= s.maxRetry {
		log.Printf("[OutboxSender] 消息超过最大重试次数，标记为失败: id=%d", msg.ID)
	}
	return false
}
