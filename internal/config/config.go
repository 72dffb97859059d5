package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ashwinyue/llm-drift/internal/model"
)

// DefaultQuestion 问题文件缺失或为空时使用的内置问题
const DefaultQuestion = "How did the war in Ukraine and Russia start?"

// DefaultTemperature 提供商未配置 temperature 时使用的采样温度
const DefaultTemperature = 0.7

// Config 应用配置
type Config struct {
	App         AppConfig
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Log         LogConfig
	Monitor     MonitorConfig
	Embedding   EmbeddingConfig
	Credentials CredentialsConfig
	Providers   []ProviderConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver       string // postgres | sqlite
	Path         string // sqlite 文件路径
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string `mapstructure:"dbname"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxLifetime  int    `mapstructure:"max_lifetime"`
}

// RedisConfig Redis配置，仅用于跨进程的任务锁
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string
	Format string // text | json
}

// MonitorConfig 漂移监控调度配置
type MonitorConfig struct {
	JobName         string        `mapstructure:"job_name"`
	Interval        time.Duration // 两次采集之间的间隔
	RunOnStart      bool          `mapstructure:"run_on_start"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"` // 单次提供商调用超时
	Concurrency     int           // 同一问题下并发查询的提供商数量，1 为顺序执行
	RateLimit       time.Duration `mapstructure:"rate_limit"` // 两次提供商调用之间的最小间隔，0 关闭
	QuestionsFile   string        `mapstructure:"questions_file"`
	DefaultQuestion string        `mapstructure:"default_question"`
	LockTTL         time.Duration `mapstructure:"lock_ttl"`
}

// EmbeddingConfig Embedding配置
type EmbeddingConfig struct {
	Provider   string // dashscope | openai
	Model      string
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Timeout    int
	Dimensions int
}

// CredentialsConfig 各提供商的 API Key，来自环境变量
type CredentialsConfig struct {
	OpenAI    string
	Anthropic string
	Mistral   string
	Google    string
	XAI       string `mapstructure:"xai"`
	DeepSeek  string `mapstructure:"deepseek"`
}

// ProviderConfig 单个被监控模型的配置
type ProviderConfig struct {
	Name         string // 注册名，同时作为模型记录的唯一键
	Family       string
	Model        string
	Version      string
	APIKey       string `mapstructure:"api_key"` // 为空时取 Credentials 中对应提供商的 key
	BaseURL      string `mapstructure:"base_url"`
	Temperature  float64
	MaxTokens    int    `mapstructure:"max_tokens"`
	SystemPrompt string `mapstructure:"system_prompt"`
	Disabled     bool
}

// Load 加载配置
// path 为空时只使用默认值和环境变量
func Load(path string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	bindCredentials(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 环境变量
	v.SetEnvPrefix("DRIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Providers) == 0 {
		cfg.Providers = DefaultProviders()
	} else {
		applyProviderDefaults(v, cfg.Providers)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// applyProviderDefaults 为未写 temperature 的提供商填充默认值
// 显式配置的 0 保持不变，因此需要检查原始配置中是否存在该键
func applyProviderDefaults(v *viper.Viper, providers []ProviderConfig) {
	raw, _ := v.Get("providers").([]interface{})
	for i := range providers {
		if i < len(raw) && hasKey(raw[i], "temperature") {
			continue
		}
		providers[i].Temperature = DefaultTemperature
	}
}

func hasKey(entry interface{}, key string) bool {
	switch m := entry.(type) {
	case map[string]interface{}:
		for k := range m {
			if strings.EqualFold(k, key) {
				return true
			}
		}
	case map[interface{}]interface{}:
		for k := range m {
			if ks, ok := k.(string); ok && strings.EqualFold(ks, key) {
				return true
			}
		}
	}
	return false
}

// Validate 启动时校验配置
// 缺少 API Key 不视为错误，对应提供商会被禁用
func (c *Config) Validate() error {
	var errs []error

	if c.Monitor.Interval <= 0 {
		errs = append(errs, errors.New("monitor.interval must be positive"))
	}
	if c.Monitor.RequestTimeout <= 0 {
		errs = append(errs, errors.New("monitor.request_timeout must be positive"))
	}
	if c.Monitor.Concurrency < 1 {
		errs = append(errs, errors.New("monitor.concurrency must be at least 1"))
	}
	if c.Monitor.RateLimit < 0 {
		errs = append(errs, errors.New("monitor.rate_limit must not be negative"))
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver: %q", c.Database.Driver))
	}

	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("providers[%d]: name is required", i))
			continue
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Errorf("providers[%d]: duplicate name %q", i, p.Name))
		}
		seen[p.Name] = true

		if _, err := model.ParseProviderFamily(p.Family); err != nil {
			errs = append(errs, fmt.Errorf("providers[%d] %s: %w", i, p.Name, err))
		}
		if p.Model == "" {
			errs = append(errs, fmt.Errorf("providers[%d] %s: model is required", i, p.Name))
		}
		if p.Temperature < 0 || p.Temperature > 2 {
			errs = append(errs, fmt.Errorf("providers[%d] %s: temperature must be within [0, 2]", i, p.Name))
		}
		if p.MaxTokens < 0 {
			errs = append(errs, fmt.Errorf("providers[%d] %s: max_tokens must not be negative", i, p.Name))
		}
	}

	return errors.Join(errs...)
}

// APIKeyFor 返回提供商使用的 API Key，单独配置优先
func (c *Config) APIKeyFor(p ProviderConfig) string {
	if p.APIKey != "" {
		return p.APIKey
	}
	family, err := model.ParseProviderFamily(p.Family)
	if err != nil {
		return ""
	}
	switch family {
	case model.ProviderFamilyOpenAI:
		return c.Credentials.OpenAI
	case model.ProviderFamilyAnthropic:
		return c.Credentials.Anthropic
	case model.ProviderFamilyMistral:
		return c.Credentials.Mistral
	case model.ProviderFamilyGoogle:
		return c.Credentials.Google
	case model.ProviderFamilyXAI:
		return c.Credentials.XAI
	case model.ProviderFamilyDeepSeek:
		return c.Credentials.DeepSeek
	}
	return ""
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr 获取 Redis 地址
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DefaultProviders 默认监控的模型列表
func DefaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{
			Name:         "chatgpt",
			Family:       string(model.ProviderFamilyOpenAI),
			Model:        "gpt-3.5-turbo",
			Temperature:  DefaultTemperature,
			SystemPrompt: "You are a helpful assistant providing concise and neutral answers.",
		},
		{
			Name:        "claude",
			Family:      string(model.ProviderFamilyAnthropic),
			Model:       "claude-3-sonnet-20240229",
			Temperature: DefaultTemperature,
			MaxTokens:   1024,
		},
		{
			Name:        "mistral",
			Family:      string(model.ProviderFamilyMistral),
			Model:       "mistral-large-latest",
			Temperature: DefaultTemperature,
		},
		{
			Name:        "gemini",
			Family:      string(model.ProviderFamilyGoogle),
			Model:       "gemini-1.5-flash",
			Temperature: DefaultTemperature,
		},
		{
			Name:        "grok",
			Family:      string(model.ProviderFamilyXAI),
			Model:       "grok-1",
			Temperature: DefaultTemperature,
		},
		{
			Name:         "deepseek",
			Family:       string(model.ProviderFamilyDeepSeek),
			Model:        "deepseek-chat",
			Temperature:  DefaultTemperature,
			SystemPrompt: "You are a helpful assistant.",
		},
	}
}

// bindCredentials 绑定各提供商惯用的环境变量
func bindCredentials(v *viper.Viper) {
	_ = v.BindEnv("credentials.openai", "DRIFT_CREDENTIALS_OPENAI", "OPENAI_API_KEY")
	_ = v.BindEnv("credentials.anthropic", "DRIFT_CREDENTIALS_ANTHROPIC", "CLAUDE_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("credentials.mistral", "DRIFT_CREDENTIALS_MISTRAL", "MISTRAL_API_KEY")
	_ = v.BindEnv("credentials.google", "DRIFT_CREDENTIALS_GOOGLE", "GEMINI_API_KEY")
	_ = v.BindEnv("credentials.xai", "DRIFT_CREDENTIALS_XAI", "GROK_API_KEY")
	_ = v.BindEnv("credentials.deepseek", "DRIFT_CREDENTIALS_DEEPSEEK", "DEEPSEEK_API_KEY")
	_ = v.BindEnv("embedding.api_key", "DRIFT_EMBEDDING_API_KEY", "DASHSCOPE_API_KEY")
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "llm-drift")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", false)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	// Database
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/llm_responses.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "llm_drift")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_lifetime", 300)

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Monitor
	v.SetDefault("monitor.job_name", "fetch_and_store_responses")
	v.SetDefault("monitor.interval", 6*time.Hour)
	v.SetDefault("monitor.run_on_start", true)
	v.SetDefault("monitor.request_timeout", 60*time.Second)
	v.SetDefault("monitor.concurrency", 1)
	v.SetDefault("monitor.rate_limit", time.Second)
	v.SetDefault("monitor.questions_file", "questions.yaml")
	v.SetDefault("monitor.default_question", DefaultQuestion)
	v.SetDefault("monitor.lock_ttl", 2*time.Hour)

	// Embedding
	v.SetDefault("embedding.provider", "dashscope")
	v.SetDefault("embedding.timeout", 30)
}
