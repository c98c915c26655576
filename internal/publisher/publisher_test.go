package publisher

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/ninja0404/defi-reputation/internal/model"
)

type countingPublisher struct {
	published int
}

func (p *countingPublisher) GetType() string { return "counting" }

func (p *countingPublisher) Publish(report *model.Report) error {
	p.published++
	return nil
}

func (p *countingPublisher) Close() error { return nil }

type failingPublisher struct{}

func (p *failingPublisher) GetType() string { return "failing" }

func (p *failingPublisher) Publish(report *model.Report) error {
	return errors.New("broker unavailable")
}

func (p *failingPublisher) Close() error { return nil }

func successReport(wallet string) *model.Report {
	return &model.Report{
		Success: &model.ScoreReport{
			WalletAddress: wallet,
			ZScore:        "0.500000000000000000",
			Categories:    []*model.CategoryResult{},
		},
	}
}

func TestManagerPublishesToAllPublishers(t *testing.T) {
	first := &countingPublisher{}
	second := &countingPublisher{}

	manager := NewManager()
	manager.AddPublisher(first)
	manager.AddPublisher(second)

	manager.PublishReport(successReport("wallet-1"))
	manager.PublishReport(successReport("wallet-2"))

	assert.Equal(t, 2, first.published)
	assert.Equal(t, 2, second.published)
}

func TestManagerFailingPublisherDoesNotBlockOthers(t *testing.T) {
	counting := &countingPublisher{}

	manager := NewManager()
	manager.AddPublisher(&failingPublisher{})
	manager.AddPublisher(counting)

	manager.PublishReport(successReport("wallet-1"))

	// 前一个发布器失败，后面的发布器照常收到报告
	assert.Equal(t, 1, counting.published)
}

func TestLogPublisher(t *testing.T) {
	p := &LogPublisher{}
	assert.Equal(t, "log", p.GetType())
	assert.NoError(t, p.Publish(successReport("wallet-1")))
	assert.NoError(t, p.Publish(&model.Report{
		Failure: model.NewFailureReport("wallet-2", "parse error: bad json", 1700000000, 3),
	}))
	assert.NoError(t, p.Close())
}

func TestConsolePublisher(t *testing.T) {
	p := &ConsolePublisher{}
	assert.Equal(t, "console", p.GetType())
	assert.NoError(t, p.Publish(successReport("wallet-1")))
}
