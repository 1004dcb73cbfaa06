package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	Port           int
	MongoURI       string
	MongoDB        string
	JWTKey         string
	Debug          bool
	SweepInterval  time.Duration // 告警扫描周期
	SummaryHour    int           // 每日告警汇总发送时间（小时）
	EmailAPIURL    string        // 外部邮件服务地址
	WebhookTimeout time.Duration // webhook发送超时
}

// LoadConfig 从环境变量加载配置，支持.env文件
func LoadConfig() *Config {
	// .env不存在时直接使用环境变量
	_ = godotenv.Load()

	port, _ := strconv.Atoi(getEnv("PORT", "8080"))
	sweepMinutes, _ := strconv.Atoi(getEnv("ALERT_SWEEP_INTERVAL_MINUTES", "5"))
	if sweepMinutes <= 0 {
		sweepMinutes = 5
	}
	summaryHour, _ := strconv.Atoi(getEnv("SUMMARY_HOUR", "9"))
	webhookTimeout, _ := strconv.Atoi(getEnv("WEBHOOK_TIMEOUT_SECONDS", "10"))
	if webhookTimeout <= 0 {
		webhookTimeout = 10
	}

	return &Config{
		Port:           port,
		MongoURI:       getEnv("MONGO_URI", "mongodb://127.0.0.1:27017/shop?authSource=admin"),
		MongoDB:        getEnv("MONGO_DB", "shop"),
		JWTKey:         getEnv("JWT_KEY", "your-secret-key"), // 实际环境应替换为安全密钥
		Debug:          getEnv("GIN_MODE", "debug") == "debug",
		SweepInterval:  time.Duration(sweepMinutes) * time.Minute,
		SummaryHour:    summaryHour,
		EmailAPIURL:    getEnv("EMAIL_API_URL", ""),
		WebhookTimeout: time.Duration(webhookTimeout) * time.Second,
	}
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
