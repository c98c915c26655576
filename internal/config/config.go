package config

import (
	"github.com/ninja0404/defi-reputation/pkg/config"
	"github.com/ninja0404/defi-reputation/pkg/config/source"
	"github.com/ninja0404/defi-reputation/pkg/config/source/file"
	"github.com/ninja0404/defi-reputation/pkg/database/mysql"
	"github.com/ninja0404/defi-reputation/pkg/logger"
	"github.com/ninja0404/defi-reputation/pkg/mq/kafka"
)

// AppConfig 应用配置结构
type AppConfig struct {
	Logger  LoggerConfig  `yaml:"logger" json:"logger"`
	Kafka   KafkaConfig   `yaml:"kafka" json:"kafka"`
	Engine  EngineConfig  `yaml:"engine" json:"engine"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	Archive ArchiveConfig `yaml:"archive" json:"archive"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Output     string `yaml:"output" json:"output"`
	Debug      bool   `yaml:"debug" json:"debug"`
	Level      string `yaml:"level" json:"level"`
	AddCaller  bool   `yaml:"add_caller" json:"add_caller"`
	CallerSkip int    `yaml:"caller_skip" json:"caller_skip"`
}

// KafkaConfig Kafka传输配置
type KafkaConfig struct {
	Brokers      []string                  `yaml:"brokers" json:"brokers"`
	InputTopic   string                    `yaml:"input_topic" json:"input_topic"`
	SuccessTopic string                    `yaml:"success_topic" json:"success_topic"`
	FailureTopic string                    `yaml:"failure_topic" json:"failure_topic"`
	Consumer     kafka.KafkaConsumerConfig `yaml:"consumer" json:"consumer"`
	Producer     kafka.KafkaProducerConfig `yaml:"producer" json:"producer"`
}

// EngineConfig 评分引擎配置
type EngineConfig struct {
	Workers int `yaml:"workers" json:"workers"` // worker协程数，默认8
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// ArchiveConfig 评分归档配置
type ArchiveConfig struct {
	Enabled bool              `yaml:"enabled" json:"enabled"`
	Mysql   mysql.MysqlConfig `yaml:"mysql" json:"mysql"`
}

// Manager 配置管理器
type Manager struct {
	config *AppConfig
}

// NewManager 创建配置管理器
func NewManager() *Manager {
	return &Manager{}
}

// Load 加载配置文件
func (m *Manager) Load(configPath string) error {
	// 使用默认config，它已经支持yaml格式了
	err := config.Load(file.NewSource(
		file.WithPath(configPath),
		source.WithFormat("yaml"),
	))
	if err != nil {
		return err
	}

	// 解析配置
	var appConfig AppConfig
	err = config.Scan(&appConfig)
	if err != nil {
		return err
	}

	m.config = &appConfig
	return nil
}

// GetAppConfig 获取应用配置
func (m *Manager) GetAppConfig() *AppConfig {
	return m.config
}

// GetLoggerConfig 获取日志配置
func (m *Manager) GetLoggerConfig() LoggerConfig {
	return m.config.Logger
}

// GetKafkaConfig 获取Kafka配置
func (m *Manager) GetKafkaConfig() KafkaConfig {
	return m.config.Kafka
}

// GetEngineConfig 获取评分引擎配置
func (m *Manager) GetEngineConfig() EngineConfig {
	return m.config.Engine
}

// GetServerConfig 获取HTTP服务配置
func (m *Manager) GetServerConfig() ServerConfig {
	return m.config.Server
}

// GetArchiveConfig 获取归档配置
func (m *Manager) GetArchiveConfig() ArchiveConfig {
	return m.config.Archive
}

const maskedValue = "******"

// MaskedConfig 返回脱敏后的配置视图，用于运维接口展示
func (m *Manager) MaskedConfig() *AppConfig {
	if m.config == nil {
		return nil
	}

	masked := *m.config
	if masked.Kafka.Consumer.SaslPassword != "" {
		masked.Kafka.Consumer.SaslPassword = maskedValue
	}
	if masked.Kafka.Producer.SaslPassword != "" {
		masked.Kafka.Producer.SaslPassword = maskedValue
	}
	if masked.Archive.Mysql.Password != "" {
		masked.Archive.Mysql.Password = maskedValue
	}
	return &masked
}

// InitLogger 初始化日志系统
func (m *Manager) InitLogger() error {
	loggerConfig := logger.FromConfig("logger")
	loggerInstance := loggerConfig.Build()
	logger.SetDefault(loggerInstance)
	logger.SetDefaultL1(loggerInstance)
	return nil
}
