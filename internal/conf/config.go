package conf

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	MinIO    MinIOConfig
	Milvus   MilvusConfig
	Log      LogConfig
	AI       AIConfig
	Memory   MemoryConfig
	Agent    AgentConfig
	WebFetch  WebFetchConfig
	WebSearch WebSearchConfig
	Canvas    CanvasConfig
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type MilvusConfig struct {
	Address    string `mapstructure:"address"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type LogConfig struct {
	Level            string        `mapstructure:"level"`
	Format           string        `mapstructure:"format"`
	Output           string        `mapstructure:"output"`
	File             FileLogConfig `mapstructure:"file"`
	EnableCaller     bool          `mapstructure:"enablecaller"`
	EnableStacktrace bool          `mapstructure:"enablestacktrace"`
}

type FileLogConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"maxsize"`
	MaxAge     int    `mapstructure:"maxage"`
	MaxBackups int    `mapstructure:"maxbackups"`
	Compress   bool   `mapstructure:"compress"`
}

// AIConfig 模型服务商配置（OpenAI 协议）
type AIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
}

// MemoryConfig 长期记忆配置
type MemoryConfig struct {
	EmbeddingModel     string        `mapstructure:"embedding_model"`
	EmbeddingDimension int           `mapstructure:"embedding_dimension"`
	TopK               int           `mapstructure:"top_k"`
	ScoreThreshold     float32       `mapstructure:"score_threshold"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
	Workers            int           `mapstructure:"workers"`
}

// AgentConfig Agent 循环配置
type AgentConfig struct {
	MaxIterations int `mapstructure:"max_iterations"` // 单次运行的最大模型调用轮数
}

// WebFetchConfig 网页抓取配置
type WebFetchConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxTokens int           `mapstructure:"max_tokens"` // 抓取内容截断上限（token 数）
}

// WebSearchConfig 网络搜索配置，provider 为空时不注册搜索工具
type WebSearchConfig struct {
	Provider   string        `mapstructure:"provider"` // tavily | searxng
	APIHost    string        `mapstructure:"api_host"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxResults int           `mapstructure:"max_results"`
}

// CanvasConfig 画布编辑配置
type CanvasConfig struct {
	SaveDebounce time.Duration `mapstructure:"save_debounce"` // 编辑保存合并窗口
}

func LoadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()

	viper.SetDefault("agent.max_iterations", 20)
	viper.SetDefault("memory.top_k", 3)
	viper.SetDefault("memory.score_threshold", 0.75)
	viper.SetDefault("memory.embedding_dimension", 1536)
	viper.SetDefault("memory.workers", 4)
	viper.SetDefault("webfetch.max_tokens", 2000)
	viper.SetDefault("webfetch.timeout", 30*time.Second)
	viper.SetDefault("websearch.timeout", 30*time.Second)
	viper.SetDefault("websearch.max_results", 10)
	viper.SetDefault("canvas.save_debounce", 500*time.Millisecond)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
