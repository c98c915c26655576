package publisher

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/ninja0404/defi-reputation/internal/model"
	"github.com/ninja0404/defi-reputation/pkg/logger"
	"github.com/ninja0404/defi-reputation/pkg/mq/kafka"
	"github.com/ninja0404/defi-reputation/pkg/utils"
)

// KafkaPublisher Kafka发布器 - 成功与失败报告分别写入对应topic，
// 以钱包地址为key保证同一钱包的报告落在同一分区
type KafkaPublisher struct {
	successTopic string
	failureTopic string
}

// NewKafkaPublisher 创建Kafka发布器，复用全局producer
func NewKafkaPublisher(successTopic, failureTopic string) *KafkaPublisher {
	return &KafkaPublisher{
		successTopic: successTopic,
		failureTopic: failureTopic,
	}
}

func (p *KafkaPublisher) GetType() string {
	return "kafka"
}

func (p *KafkaPublisher) Publish(report *model.Report) error {
	var (
		topic   string
		payload []byte
		err     error
	)

	if report.IsSuccess() {
		topic = p.successTopic
		payload, err = json.Marshal(report.Success)
	} else {
		topic = p.failureTopic
		payload, err = json.Marshal(report.Failure)
	}
	if err != nil {
		return errors.Wrap(err, "序列化评分报告失败")
	}

	wallet := report.WalletAddress()
	if err := kafka.SendMessageWithKey(topic, wallet, payload); err != nil {
		return errors.Wrapf(err, "发送报告到topic %s 失败", topic)
	}

	logger.Debug("📤 报告已发送到Kafka",
		logger.String("topic", topic),
		logger.String("wallet", utils.GetDisplayWalletAddress(wallet)),
		logger.Int("payload_size", len(payload)))
	return nil
}

func (p *KafkaPublisher) Close() error {
	// producer生命周期由app统一管理
	return nil
}
