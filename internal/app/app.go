package app

import (
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"github.com/ninja0404/defi-reputation/internal/config"
	"github.com/ninja0404/defi-reputation/internal/pipeline"
	"github.com/ninja0404/defi-reputation/internal/publisher"
	"github.com/ninja0404/defi-reputation/internal/repo"
	"github.com/ninja0404/defi-reputation/internal/scorer"
	"github.com/ninja0404/defi-reputation/internal/server"
	"github.com/ninja0404/defi-reputation/internal/source"
	sourcekafka "github.com/ninja0404/defi-reputation/internal/source/kafka"
	"github.com/ninja0404/defi-reputation/internal/stats"
	"github.com/ninja0404/defi-reputation/pkg/database/mysql"
	"github.com/ninja0404/defi-reputation/pkg/logger"
	"github.com/ninja0404/defi-reputation/pkg/mq/kafka"
)

// Application 钱包信誉评分应用
type Application struct {
	configManager *config.Manager
	statsTracker  *stats.Tracker
	pipeline      *pipeline.Pipeline
	httpServer    *server.Server
	db            *gorm.DB
	scoreRepo     repo.ScoreRepo
}

// New 创建钱包信誉评分应用实例
func New() *Application {
	return &Application{
		configManager: config.NewManager(),
		statsTracker:  stats.NewTracker(),
	}
}

// Initialize 初始化应用
func (app *Application) Initialize(configPath string) error {
	// 1. 加载配置
	if err := app.configManager.Load(configPath); err != nil {
		return err
	}

	// 2. 初始化日志系统
	if err := app.configManager.InitLogger(); err != nil {
		return err
	}
	logger.Info("🚀 钱包信誉评分服务初始化开始", logger.String("config_path", configPath))

	// 3. 初始化Kafka生产者（报告出站通道）
	kafkaConfig := app.configManager.GetKafkaConfig()
	if err := kafka.SetupKafkaProducer(kafkaConfig.Brokers, kafkaConfig.Producer); err != nil {
		return err
	}

	// 4. 初始化归档存储（可选）
	if err := app.initArchive(); err != nil {
		return err
	}

	// 5. 组装评分管道
	app.setupPipeline()

	// 6. 创建HTTP服务
	app.httpServer = server.New(app.configManager.GetServerConfig(), app.pipeline, app.configManager)

	logger.Info("✅ 钱包信誉评分服务初始化完成")
	return nil
}

// initArchive 初始化评分归档数据库，archive.enabled为false时跳过
func (app *Application) initArchive() error {
	archiveConfig := app.configManager.GetArchiveConfig()
	if !archiveConfig.Enabled {
		logger.Info("评分归档未启用")
		return nil
	}

	if err := mysql.SetupDatabaseFromDefaultConfig(); err != nil {
		return err
	}

	db, err := mysql.GetDb()
	if err != nil {
		return err
	}
	app.db = db
	app.scoreRepo = repo.NewScoreRepo(db)

	logger.Info("📊 评分归档数据库已连接")
	return nil
}

// setupPipeline 组装数据源、评分引擎与发布器
func (app *Application) setupPipeline() {
	kafkaConfig := app.configManager.GetKafkaConfig()
	engineConfig := app.configManager.GetEngineConfig()

	// 评分引擎
	scorerEngine := scorer.NewEngine(engineConfig.Workers, app.statsTracker)

	// 发布管理器
	publisherManager := publisher.NewManager()
	publisherManager.AddPublisher(publisher.NewKafkaPublisher(kafkaConfig.SuccessTopic, kafkaConfig.FailureTopic))
	publisherManager.AddPublisher(&publisher.LogPublisher{})
	if app.scoreRepo != nil {
		publisherManager.AddPublisher(publisher.NewArchivePublisher(app.scoreRepo))
	}

	// 数据源工厂，管道重启时重建Kafka消费者
	sourceFactory := func() (*source.Manager, error) {
		manager := source.NewManager()
		manager.AddSource(sourcekafka.NewSource(sourcekafka.SourceConfig{
			Topic:       kafkaConfig.InputTopic,
			Brokers:     kafkaConfig.Brokers,
			KafkaConfig: kafkaConfig.Consumer,
		}))
		return manager, nil
	}

	app.pipeline = pipeline.NewPipeline(sourceFactory, scorerEngine, publisherManager, app.statsTracker)

	logger.Info("🧩 评分管道已组装",
		logger.String("input_topic", kafkaConfig.InputTopic),
		logger.String("success_topic", kafkaConfig.SuccessTopic),
		logger.String("failure_topic", kafkaConfig.FailureTopic),
		logger.Int("workers", engineConfig.Workers))
}

// Run 运行应用
func (app *Application) Run() error {
	logger.Info("🎯 启动钱包信誉评分管道")

	// 启动评分管道
	if err := app.pipeline.Start(); err != nil {
		return err
	}

	// 启动HTTP服务
	app.httpServer.Start()

	logger.Info("🔥 钱包信誉评分服务已启动，开始消费钱包交易批次...")

	// 等待终止信号
	app.waitForShutdown()

	return nil
}

// waitForShutdown 等待关闭信号
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// 阻塞等待信号
	sig := <-quit
	logger.Info("📤 收到终止信号，开始优雅关闭应用...", logger.String("signal", sig.String()))

	// 优雅关闭
	app.Shutdown()
}

// Shutdown 优雅关闭应用
func (app *Application) Shutdown() {
	logger.Info("🛑 开始关闭钱包信誉评分服务...")

	// 停止HTTP服务
	if err := app.httpServer.Stop(); err != nil {
		logger.Error("停止HTTP服务失败", logger.FieldErr(err))
	}

	// 停止评分管道，排空在途消息
	if err := app.pipeline.Stop(); err != nil {
		logger.Error("停止评分管道失败", logger.FieldErr(err))
	}

	// 关闭Kafka生产者，flush未发送的报告
	if err := kafka.CloseProducer(); err != nil {
		logger.Error("关闭Kafka生产者失败", logger.FieldErr(err))
	}

	// 关闭归档数据库
	if app.db != nil {
		if err := mysql.Stop(); err != nil {
			logger.Error("关闭归档数据库失败", logger.FieldErr(err))
		}
	}

	// 输出最终统计
	snapshot := app.statsTracker.Snapshot()
	logger.Info("📈 服务运行统计",
		logger.Int64("total_processed", snapshot.TotalProcessed),
		logger.Int64("successful_processed", snapshot.SuccessfulProcessed),
		logger.Int64("failed_processed", snapshot.FailedProcessed),
		logger.Float64("average_processing_time_ms", snapshot.AverageProcessingTimeMs))

	logger.Info("✨ 钱包信誉评分服务已成功关闭")
}

// Start 启动应用的便捷方法
func (app *Application) Start(configPath string) error {
	// 初始化
	if err := app.Initialize(configPath); err != nil {
		logger.Error("❌ 钱包信誉评分服务初始化失败", logger.FieldErr(err))
		return err
	}

	// 运行
	if err := app.Run(); err != nil {
		logger.Error("❌ 钱包信誉评分服务运行失败", logger.FieldErr(err))
		return err
	}

	return nil
}

// GetPipeline 获取评分管道（用于调试和监控）
func (app *Application) GetPipeline() *pipeline.Pipeline {
	return app.pipeline
}

// GetConfigManager 获取配置管理器
func (app *Application) GetConfigManager() *config.Manager {
	return app.configManager
}

// GetScoreRepo 获取评分归档仓储
func (app *Application) GetScoreRepo() repo.ScoreRepo {
	return app.scoreRepo
}
