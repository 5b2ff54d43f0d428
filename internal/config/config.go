// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Log           LogConfig           `mapstructure:"log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Tika          TikaConfig          `mapstructure:"tika"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Embedding     EmbeddingConfig     `mapstructure:"embedding"`
	Classifier    ClassifierConfig    `mapstructure:"classifier"`
	Resolver      ResolverConfig      `mapstructure:"resolver"`
	Intents       IntentsConfig       `mapstructure:"intents"`
	Offices       map[string]string   `mapstructure:"offices"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 JWT 相关的配置。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
	RefreshTokenExpireDays int    `mapstructure:"refresh_token_expire_days"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// TikaConfig 存储 Tika 服务器相关的配置。
type TikaConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// EmbeddingConfig 存储 Embedding 模型相关的配置。
type EmbeddingConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// ClassifierConfig 存储意图分类模型服务相关的配置。
type ClassifierConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// ResolverConfig 集中存放混合应答仲裁的所有阈值与权重。
// 这些值编码了分类器与向量检索之间的冲突裁决策略，禁止在业务代码中内联。
type ResolverConfig struct {
	// NeuralThreshold 是神经网络置信度"直接胜出"的阈值。
	NeuralThreshold float64 `mapstructure:"neural_threshold"`
	// ResponseGate 是产出意图应答所需的总体置信度下限。
	ResponseGate float64 `mapstructure:"response_gate"`
	// VectorFloor 是向量检索结果可信的最低得分。
	VectorFloor float64 `mapstructure:"vector_floor"`
	// FallbackFloor 是低置信度兜底全库检索的得分下限。
	FallbackFloor float64 `mapstructure:"fallback_floor"`
	// EarlyExitScore 是语料扫描提前返回的高置信度阈值。
	EarlyExitScore float64 `mapstructure:"early_exit_score"`
	// NeuralWeight 与 VectorWeight 是集成打分的两路权重。
	NeuralWeight float64 `mapstructure:"neural_weight"`
	VectorWeight float64 `mapstructure:"vector_weight"`
	// ContextBonus 是检索标签命中用户当前办公室上下文时的加成。
	ContextBonus float64 `mapstructure:"context_bonus"`
	// SearchTopK 是向量检索的候选数量。
	SearchTopK int `mapstructure:"search_top_k"`
	// RandomSeed 非零时用于确定性的应答抽取（测试用途）。
	RandomSeed int64 `mapstructure:"random_seed"`
}

// IntentsConfig 存储意图语料的加载配置。
type IntentsConfig struct {
	CorpusPath string `mapstructure:"corpus_path"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// 仲裁阈值的默认值，可被 config.yaml 覆盖
	viper.SetDefault("resolver.neural_threshold", 0.75)
	viper.SetDefault("resolver.response_gate", 0.7)
	viper.SetDefault("resolver.vector_floor", 0.6)
	viper.SetDefault("resolver.fallback_floor", 0.6)
	viper.SetDefault("resolver.early_exit_score", 0.80)
	viper.SetDefault("resolver.neural_weight", 0.6)
	viper.SetDefault("resolver.vector_weight", 0.4)
	viper.SetDefault("resolver.context_bonus", 0.1)
	viper.SetDefault("resolver.search_top_k", 5)
	viper.SetDefault("intents.corpus_path", "./data/intents.json")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}
