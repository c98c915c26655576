package kafka

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/ninja0404/defi-reputation/pkg/logger"
)

type MessageHandler func(message []byte) error
type wrapperMessageHandler func(message *kafka.Message) error

type KafkaConsumer struct {
	consumer    *kafka.Consumer
	config      *kafka.ConfigMap
	srcConfig   *KafkaConsumerConfig
	brokers     []string
	topics      []string
	groupId     string
	readTimeout int

	handlers map[string]wrapperMessageHandler

	done   chan struct{}
	closed chan struct{}

	cancelCtx  context.Context
	cancelFunc context.CancelFunc
}

func NewKafkaConsumer(brokers []string, cfg KafkaConsumerConfig) (*KafkaConsumer, error) {
	config := newConsumerConfig(brokers, cfg)
	consumer, err := kafka.NewConsumer(config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	instance := &KafkaConsumer{
		consumer:    consumer,
		config:      config,
		srcConfig:   &cfg,
		brokers:     brokers,
		topics:      cfg.Topics,
		groupId:     cfg.GroupId,
		readTimeout: cfg.ReadTimeout,
		done:        make(chan struct{}),
		closed:      make(chan struct{}),
		handlers:    make(map[string]wrapperMessageHandler, 0),
		cancelCtx:   ctx,
		cancelFunc:  cancel,
	}
	return instance, nil
}

func (kc *KafkaConsumer) RegisterTopicHandler(t string, h MessageHandler) error {
	wrapperHandler := func(msg *kafka.Message) error {
		var err error
		defer func() {
			if r := recover(); r != nil {
				logger.Error("recovery from kafka message handler",
					logger.String("topic", *msg.TopicPartition.Topic),
					logger.Int32("partition", msg.TopicPartition.Partition),
					logger.String("offset", msg.TopicPartition.Offset.String()),
					logger.String("stack", string(debug.Stack())),
				)

				err = fmt.Errorf("panic in message handler: %v", r)
			}
		}()

		err = h(msg.Value)
		if err != nil {
			logger.Error("kafka message handler error",
				logger.FieldErr(err),
				logger.String("topic", *msg.TopicPartition.Topic))
			return err
		}
		return nil
	}
	for _, topic := range kc.topics {
		if topic == t {
			kc.handlers[t] = wrapperHandler
			return nil
		}
	}
	return errors.New("topic not in consumer list")
}

func (kc *KafkaConsumer) Close() error {
	close(kc.done)

	// 关闭消费者
	if err := kc.consumer.Close(); err != nil {
		return fmt.Errorf("close consumer error: %w", err)
	}

	logger.Info("consumer closed successfully")
	return nil
}

func (kc *KafkaConsumer) Start() error {
	subErr := kc.consumer.SubscribeTopics(kc.topics, nil)
	if subErr != nil {
		return subErr
	}

	// 开始消费。消息级的失败隔离在上层handler内完成，
	// 这里处理完一条就提交一条，handler出错只记录日志不重试。
	go func() {
		for {
			select {
			case <-kc.done:
				return
			default:
				msg, err := kc.consumer.ReadMessage(-1)
				if err != nil {
					select {
					case <-kc.done:
						return
					default:
					}
					logger.Error("kafka consumer read message error", logger.FieldErr(err), logger.Int("read_timeout", kc.readTimeout))
					continue
				}

				topic := *msg.TopicPartition.Topic

				h, ok := kc.handlers[topic]
				if !ok {
					logger.Warn("kafka consumer no handler for topic", logger.String("topic", topic))
					continue
				}

				if err = h(msg); err != nil {
					logger.Warn("kafka message handler failed, skip message",
						logger.String("topic", topic),
						logger.String("offset", msg.TopicPartition.Offset.String()),
						logger.FieldErr(err))
				}

				if _, cErr := kc.consumer.CommitMessage(msg); cErr != nil {
					logger.Error("commit offset err", logger.FieldErr(cErr))
				}
			}
		}
	}()
	return nil
}
