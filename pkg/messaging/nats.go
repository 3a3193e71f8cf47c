// pkg/messaging/nats.go
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"StockSeed/pkg/importer"
	"StockSeed/pkg/model"
)

// 主题与Stream
const (
	SubjectImportCompleted = "imports.completed"
	SubjectBarPrefix       = "bars."

	StreamBars    = "BARS_STREAM"
	StreamImports = "IMPORTS_STREAM"
)

// NATSClient NATS JetStream客户端
type NATSClient struct {
	conn      *nats.Conn
	jetStream jetstream.JetStream
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	consumers map[string]jetstream.MessagesContext
	mu        sync.Mutex
	wg        sync.WaitGroup
}

// MessageHandler 通用消息处理函数类型
type MessageHandler func(data []byte) error

var _ importer.Notifier = (*NATSClient)(nil)

// NewNATSClient 创建新的NATS客户端
func NewNATSClient(natsURL string, logger *slog.Logger) (*NATSClient, error) {
	if logger == nil {
		logger = slog.Default()
	}

	nc, err := nats.Connect(natsURL,
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1), // 无限重连
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS连接断开", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS重新连接成功")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("连接NATS失败: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("创建JetStream失败: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &NATSClient{
		conn:      nc,
		jetStream: js,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		consumers: make(map[string]jetstream.MessagesContext),
	}

	if err := client.setupStreams(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// setupStreams 设置K线与导入结果的Streams
func (c *NATSClient) setupStreams() error {
	streams := []jetstream.StreamConfig{
		{
			Name:        StreamBars,
			Subjects:    []string{SubjectBarPrefix + "*"},
			Description: "导入的K线数据流",
			Retention:   jetstream.LimitsPolicy,
			MaxMsgs:     100000,
			MaxBytes:    100 * 1024 * 1024, // 100MB
			MaxAge:      7 * 24 * time.Hour,
		},
		{
			Name:        StreamImports,
			Subjects:    []string{"imports.*"},
			Description: "导入结果数据流",
			Retention:   jetstream.LimitsPolicy,
			MaxMsgs:     10000,
			MaxAge:      30 * 24 * time.Hour,
		},
	}

	for _, streamConfig := range streams {
		if _, err := c.jetStream.CreateOrUpdateStream(c.ctx, streamConfig); err != nil {
			return fmt.Errorf("创建/更新Stream %s 失败: %w", streamConfig.Name, err)
		}
		c.logger.Debug("Stream设置成功", "stream", streamConfig.Name)
	}
	return nil
}

// Publish 发布消息到指定主题
func (c *NATSClient) Publish(ctx context.Context, subject string, data interface{}) error {
	var payload []byte
	var err error

	switch v := data.(type) {
	case []byte:
		payload = v
	case string:
		payload = []byte(v)
	default:
		payload, err = json.Marshal(data)
		if err != nil {
			return fmt.Errorf("序列化数据失败: %w", err)
		}
	}

	if _, err := c.jetStream.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("发布消息到 %s 失败: %w", subject, err)
	}

	c.logger.Debug("发布消息", "subject", subject, "bytes", len(payload))
	return nil
}

// BarImported 发布单条写入的K线
func (c *NATSClient) BarImported(ctx context.Context, bar *model.StockBar) error {
	return c.Publish(ctx, BarSubject(bar.Instrument), bar)
}

// ImportFinished 发布导入结果
func (c *NATSClient) ImportFinished(ctx context.Context, report *importer.Report) error {
	return c.Publish(ctx, SubjectImportCompleted, report)
}

// BarSubject 品种代码作为主题的最后一段，NATS保留字符替换为下划线
func BarSubject(instrument string) string {
	token := strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		}
		return r
	}, instrument)
	if token == "" {
		token = "_"
	}
	return SubjectBarPrefix + token
}

// 处理失败的消息最多投递次数
const maxDeliver = 5

// Subscribe 订阅指定主题的消息
func (c *NATSClient) Subscribe(streamName, consumerName, filterSubject string, handler MessageHandler) error {
	consumerConfig := jetstream.ConsumerConfig{
		Name:          consumerName,
		Description:   fmt.Sprintf("%s 消费者", consumerName),
		FilterSubject: filterSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    maxDeliver,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	}

	consumer, err := c.jetStream.CreateOrUpdateConsumer(c.ctx, streamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("创建消费者 %s 失败: %w", consumerName, err)
	}

	iter, err := consumer.Messages(jetstream.PullMaxMessages(10))
	if err != nil {
		return fmt.Errorf("获取 %s 消息迭代器失败: %w", consumerName, err)
	}

	c.mu.Lock()
	c.consumers[consumerName] = iter
	c.mu.Unlock()

	c.wg.Add(1)
	go c.consumeMessages(iter, consumerName, handler)

	c.logger.Info("已订阅", "subject", filterSubject, "stream", streamName, "consumer", consumerName)
	return nil
}

// consumeMessages 消费消息直到迭代器停止
func (c *NATSClient) consumeMessages(iter jetstream.MessagesContext, consumerName string, handler MessageHandler) {
	defer c.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("消费者异常退出", "consumer", consumerName, "panic", r)
		}
	}()

	for {
		msg, err := iter.Next()
		if err != nil {
			if errors.Is(err, jetstream.ErrMsgIteratorClosed) || c.ctx.Err() != nil {
				return
			}
			c.logger.Warn("获取消息失败", "consumer", consumerName, "error", err)
			time.Sleep(time.Second)
			continue
		}

		if err := handler(msg.Data()); err != nil {
			c.logger.Warn("处理消息失败", "consumer", consumerName, "error", err)
			msg.Nak()
		} else {
			msg.Ack()
		}
	}
}

// IsConnected 检查连接状态
func (c *NATSClient) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Close 停止所有消费者并关闭连接
func (c *NATSClient) Close() error {
	c.cancel()

	c.mu.Lock()
	for name, iter := range c.consumers {
		iter.Stop()
		delete(c.consumers, name)
	}
	c.mu.Unlock()
	c.wg.Wait()

	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}
