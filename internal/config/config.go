package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/gorm/logger"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置
	Postgres PostgresConfig `mapstructure:"postgres"` // PostgreSQL配置
	Auth     UpstreamConfig `mapstructure:"auth"`     // 第三方身份服务
	Cron     CronConfig     `mapstructure:"cron"`     // 外部定时任务鉴权
	Sweeper  SweeperConfig  `mapstructure:"sweeper"`  // 进程内对战状态巡检
	Log      LogConfig      `mapstructure:"log"`      // 日志
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port            int           `mapstructure:"port"`             // 服务端口
	Mode            string        `mapstructure:"mode"`             // Gin运行模式：debug/release/test
	SiteURL         string        `mapstructure:"site_url"`         // 站点根地址，用于 sitemap/robots
	Pprof           bool          `mapstructure:"pprof"`            // 是否注册 pprof 路由
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`     // 读超时
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`    // 写超时
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // 优雅退出等待时间
	CORSOrigins     []string      `mapstructure:"cors_origins"`     // 允许跨域的来源
}

// PostgresConfig PostgreSQL数据库配置
type PostgresConfig struct {
	DSN               string        `mapstructure:"dsn"`                // 连接DSN（URL 形式）
	MaxOpenConns      int           `mapstructure:"max_open_conns"`     // 最大打开连接数
	MaxIdleConns      int           `mapstructure:"max_idle_conns"`     // 最大空闲连接数
	ConnMaxLifetime   time.Duration `mapstructure:"conn_max_lifetime"`  // 连接最大存活时间
	LogLevel          string        `mapstructure:"log_level"`          // GORM日志级别：silent/error/warn/info
	InstallProcedures bool          `mapstructure:"install_procedures"` // 启动时安装排行榜存储过程
}

// UpstreamConfig 外部 HTTP 服务配置
type UpstreamConfig struct {
	BaseURL string `mapstructure:"base_url"` // API基础地址
	APIKey  string `mapstructure:"api_key"`  // 服务端 API Key
	Timeout int    `mapstructure:"timeout"`  // 请求超时（秒）
	Proxy   string `mapstructure:"proxy"`    // 代理地址
}

// CronConfig 外部调度器调用状态巡检接口时携带的共享密钥
type CronConfig struct {
	Secret string `mapstructure:"secret"`
}

// SweeperConfig 进程内巡检间隔，0 表示只依赖外部调度
type SweeperConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug/info/warn/error
	Format string `mapstructure:"format"` // text/json
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return decode(v)
}

// LoadFromFile 从指定路径加载配置（测试与运维脚本用）
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	v.SetTypeByDefaultValue(true)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	cfg.Server.SiteURL = strings.TrimSuffix(cfg.Server.SiteURL, "/")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.site_url", "https://meme-battle-arena.vercel.app")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("postgres.max_open_conns", 20)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("postgres.log_level", "warn")
	v.SetDefault("auth.timeout", 10)
	v.SetDefault("sweeper.interval", time.Duration(0))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("AUTH_BASE_URL"); v != "" {
		cfg.Auth.BaseURL = v
	}
	if v := os.Getenv("AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("AUTH_PROXY"); v != "" {
		cfg.Auth.Proxy = v
	}
	if v := os.Getenv("CRON_SECRET"); v != "" {
		cfg.Cron.Secret = v
	}
	if v := os.Getenv("SITE_URL"); v != "" {
		cfg.Server.SiteURL = v
	}
}

// GormLogLevel 将配置中的日志级别映射为 GORM 日志级别
func (p *PostgresConfig) GormLogLevel() logger.LogLevel {
	switch strings.ToLower(p.LogLevel) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
