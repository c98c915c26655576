package scorer

import (
	"fmt"
	"sync"
	"time"

	simplejson "github.com/bitly/go-simplejson"

	"github.com/ninja0404/defi-reputation/internal/model"
	"github.com/ninja0404/defi-reputation/internal/stats"
	"github.com/ninja0404/defi-reputation/pkg/logger"
	"github.com/ninja0404/defi-reputation/pkg/utils"
)

const (
	defaultWorkerCount = 8
	messageChanBuffer  = 1024
	reportChanBuffer   = 1024

	// 无法从原始消息恢复钱包地址时的占位值
	unknownWallet = "unknown"
)

// Engine 评分引擎：worker池消费原始消息，每条消息产出且仅产出一份终态报告
type Engine struct {
	workerCount int
	messageCh   chan *model.RawBatchMessage
	reportCh    chan *model.Report
	tracker     *stats.Tracker

	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewEngine(workerCount int, tracker *stats.Tracker) *Engine {
	if workerCount <= 0 {
		workerCount = defaultWorkerCount
	}
	return &Engine{
		workerCount: workerCount,
		messageCh:   make(chan *model.RawBatchMessage, messageChanBuffer),
		reportCh:    make(chan *model.Report, reportChanBuffer),
		tracker:     tracker,
	}
}

// Start 启动worker池
func (e *Engine) Start() {
	for i := 0; i < e.workerCount; i++ {
		e.wg.Add(1)
		go e.worker(i)
	}
	logger.Info("🚀 评分引擎已启动",
		logger.Int("worker_count", e.workerCount),
	)
}

// Submit 投递一条待评分的原始消息
func (e *Engine) Submit(msg *model.RawBatchMessage) {
	e.messageCh <- msg
}

// Reports 终态报告输出通道，引擎停止并排空后关闭
func (e *Engine) Reports() <-chan *model.Report {
	return e.reportCh
}

// Stop 关闭输入通道，等待worker处理完剩余消息后关闭输出通道
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.messageCh)
		e.wg.Wait()
		close(e.reportCh)
		logger.Info("评分引擎已停止")
	})
}

func (e *Engine) worker(id int) {
	defer e.wg.Done()
	logger.Debug("评分worker启动", logger.Int("worker_id", id))

	for msg := range e.messageCh {
		e.reportCh <- e.Process(msg)
	}

	logger.Debug("评分worker退出", logger.Int("worker_id", id))
}

// Process 单条消息的完整处理流程，任何输入都返回一份终态报告
func (e *Engine) Process(msg *model.RawBatchMessage) *model.Report {
	start := msg.ReceivedAt
	if start.IsZero() {
		start = time.Now()
	}

	batch, err := model.ParseWalletBatch(msg.Value)
	if err != nil {
		wallet := recoverWalletAddress(msg.Value)
		elapsedMs := time.Since(start).Milliseconds()
		logger.Warn("消息解析失败，产出失败报告",
			logger.String("wallet", utils.GetDisplayWalletAddress(wallet)),
			logger.Int("payload_size", len(msg.Value)),
			logger.FieldErr(err),
		)
		e.tracker.Record(stats.OutcomeFailure, elapsedMs)
		return &model.Report{
			Failure: model.NewFailureReport(wallet, fmt.Sprintf("parse error: %v", err), time.Now().Unix(), elapsedMs),
		}
	}

	report, scoreErr := e.scoreBatch(batch)
	elapsedMs := time.Since(start).Milliseconds()

	if scoreErr != nil {
		logger.Error("❌ 钱包评分失败",
			logger.String("wallet", utils.GetDisplayWalletAddress(batch.WalletAddress)),
			logger.FieldErr(scoreErr),
		)
		e.tracker.Record(stats.OutcomeFailure, elapsedMs)
		return &model.Report{
			Failure: model.NewFailureReport(batch.WalletAddress, fmt.Sprintf("scoring error: %v", scoreErr), time.Now().Unix(), elapsedMs),
		}
	}

	report.Timestamp = time.Now().Unix()
	report.ProcessingTimeMs = elapsedMs
	e.tracker.Record(stats.OutcomeSuccess, elapsedMs)

	logger.Info("✅ 钱包评分完成",
		logger.String("wallet", utils.GetDisplayWalletAddress(batch.WalletAddress)),
		logger.String("zscore", report.ZScore),
		logger.Int64("elapsed_ms", elapsedMs),
	)
	return &model.Report{Success: report}
}

// scoreBatch 特征提取与打分。panic在此边界转换为错误，不影响其他消息。
func (e *Engine) scoreBatch(batch *model.WalletBatch) (report *model.ScoreReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("评分过程发生panic",
				logger.String("wallet", utils.GetDisplayWalletAddress(batch.WalletAddress)),
				logger.Any("panic", r),
				logger.FieldStack(utils.GetStack()),
			)
			report = nil
			err = fmt.Errorf("panic during scoring: %v", r)
		}
	}()

	records := batch.Flatten()
	lpRecords, swapRecords, skipped := Partition(records)
	for _, tx := range skipped {
		logger.Debug("跳过无法归类的交易记录",
			logger.String("wallet", utils.GetDisplayWalletAddress(batch.WalletAddress)),
			logger.String("document_id", tx.DocumentID),
			logger.String("action", string(tx.Action)),
			logger.Int64("timestamp", tx.Timestamp),
		)
	}

	lpResult := ScoreLiquidityProvision(ExtractLPFeatures(lpRecords), len(lpRecords))
	tradingResult := ScoreTrading(ExtractTradingFeatures(swapRecords), len(swapRecords))
	final := AggregateScore(batch.WalletAddress, lpResult, tradingResult)

	return &model.ScoreReport{
		WalletAddress: batch.WalletAddress,
		ZScore:        FormatZScore(final),
		Categories:    []*model.CategoryResult{lpResult, tradingResult},
	}, nil
}

// recoverWalletAddress 从无法反序列化为完整批次的消息中尽力提取钱包地址
func recoverWalletAddress(payload []byte) string {
	js, err := simplejson.NewJson(payload)
	if err != nil {
		return unknownWallet
	}
	if addr, err := js.Get("wallet_address").String(); err == nil && addr != "" {
		return addr
	}
	return unknownWallet
}
