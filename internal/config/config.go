package config

import (
	"fmt"
	"strings"

	"github.com/mifaly/new-ae-server/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Policy   PolicyConfig   `mapstructure:"policy"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// IngestConfig 采集端限流配置
type IngestConfig struct {
	RateWindowSeconds int `mapstructure:"rate_window_seconds"`
	RateMaxRequests   int `mapstructure:"rate_max_requests"`
	RateBlockSeconds  int `mapstructure:"rate_block_seconds"`
}

// PolicyConfig 业务策略常量
type PolicyConfig struct {
	OfferPriceRate           float64 `mapstructure:"offer_price_rate"`             // 新建 offer 时的价格加成倍率
	CheckOfferSalesAfterDays int     `mapstructure:"check_offer_sales_after_days"` // 低销量提示的最小上架天数
	Sale2Stock               float64 `mapstructure:"sale2stock"`                   // 建议备货 = sales30 * 该系数
	WeightRatio              int64   `mapstructure:"weight_ratio"`                 // 重量估算分母
	NeedUpdateWeight         int64   `mapstructure:"need_update_weight"`           // 稳定期重量复核周期（件数）
	UnpublishBarrierUV30     int64   `mapstructure:"unpublish_barrier_uv30"`       // 低流量回草稿箱阈值
	AnalysisBeforeDays       int     `mapstructure:"analysis_before_days"`         // 低流量判断最小上架天数
	RetentionDays            int     `mapstructure:"retention_days"`               // 软删除/历史订单保留天数
	OfferURLPattern          string  `mapstructure:"offer_url_pattern"`            // offer 抓取地址模板，含 {OFFER_ID}
	LgOrderURLPattern        string  `mapstructure:"lg_order_url_pattern"`         // 物流单地址模板，含 {LG_ORDER_ID}
}

// Subset 按键名导出策略值，供前端按需拉取
func (c PolicyConfig) Subset(keys []string) map[string]any {
	all := map[string]any{
		"offer_price_rate":             c.OfferPriceRate,
		"check_offer_sales_after_days": c.CheckOfferSalesAfterDays,
		"sale2stock":                   c.Sale2Stock,
		"weight_ratio":                 c.WeightRatio,
		"need_update_weight":           c.NeedUpdateWeight,
		"unpublish_barrier_uv30":       c.UnpublishBarrierUV30,
		"analysis_before_days":         c.AnalysisBeforeDays,
		"retention_days":               c.RetentionDays,
		"offer_url_pattern":            c.OfferURLPattern,
		"lg_order_url_pattern":         c.LgOrderURLPattern,
	}
	result := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := all[k]; ok {
			result[k] = v
		}
	}
	return result
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.filename", "ae.log")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "./db/ae.db")
	viper.SetDefault("database.pool.max_open_conns", 1)
	viper.SetDefault("database.pool.max_idle_conns", 1)
	viper.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	viper.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "ae")
	viper.SetDefault("queue.enabled", true)
	viper.SetDefault("queue.host", "127.0.0.1")
	viper.SetDefault("queue.port", 6379)
	viper.SetDefault("queue.password", "")
	viper.SetDefault("queue.db", 1)
	viper.SetDefault("queue.concurrency", 10)
	viper.SetDefault("queue.queues", map[string]int{
		"default": 10,
	})
	viper.SetDefault("cors.allowed_origins", []string{"*"})
	viper.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Cache-Control",
		"X-Requested-With",
	})
	viper.SetDefault("cors.allow_credentials", true)
	viper.SetDefault("cors.max_age", 600)
	viper.SetDefault("ingest.rate_window_seconds", 60)
	viper.SetDefault("ingest.rate_max_requests", 600)
	viper.SetDefault("ingest.rate_block_seconds", 300)
	viper.SetDefault("policy.offer_price_rate", 1.5)
	viper.SetDefault("policy.check_offer_sales_after_days", 90)
	viper.SetDefault("policy.sale2stock", 0.67)
	viper.SetDefault("policy.weight_ratio", 1000)
	viper.SetDefault("policy.need_update_weight", 32)
	viper.SetDefault("policy.unpublish_barrier_uv30", 10)
	viper.SetDefault("policy.analysis_before_days", 180)
	viper.SetDefault("policy.retention_days", 180)
	viper.SetDefault("policy.offer_url_pattern", "")
	viper.SetDefault("policy.lg_order_url_pattern", "")

	// 环境变量支持（policy.weight_ratio -> POLICY_WEIGHT_RATIO）
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}
