package configs

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

var (
	JWTSecret string

	// Payment gateway
	GatewayProvider       string // "razorpay" | "midtrans"
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	MidtransServerKey     string
	MidtransUseProd       bool

	// Reconciliation knobs
	IntentTTLMinutes     int // payment intents left in created/authorized expire after this
	SweepIntervalSeconds int
	UpcomingHorizonDays  int // unpaid items due beyond this report "upcoming" instead of "pending"
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ No .env file found, using system ENV")
		} else {
			log.Println("✅ .env file loaded")
		}
	} else {
		log.Println("🚀 Running in Railway, using system ENV")
	}

	JWTSecret = GetEnv("JWT_SECRET")

	GatewayProvider = GetEnv("PAYMENT_GATEWAY_PROVIDER", "razorpay")
	RazorpayKeyID = GetEnv("RAZORPAY_KEY_ID")
	RazorpayKeySecret = GetEnv("RAZORPAY_KEY_SECRET")
	RazorpayWebhookSecret = GetEnv("RAZORPAY_WEBHOOK_SECRET")
	MidtransServerKey = GetEnv("MIDTRANS_SERVER_KEY")
	MidtransUseProd = GetEnvBool("MIDTRANS_USE_PROD", false)

	IntentTTLMinutes = GetEnvInt("PAYMENT_INTENT_TTL_MINUTES", 15)
	SweepIntervalSeconds = GetEnvInt("PAYMENT_SWEEP_INTERVAL_SECONDS", 60)
	UpcomingHorizonDays = GetEnvInt("FEE_UPCOMING_HORIZON_DAYS", 30)

	if JWTSecret == "" {
		log.Println("❌ JWT_SECRET is not set!")
	}
	switch GatewayProvider {
	case "razorpay":
		if RazorpayKeyID == "" || RazorpayKeySecret == "" {
			log.Println("❌ RAZORPAY_KEY_ID / RAZORPAY_KEY_SECRET are not set!")
		}
	case "midtrans":
		if MidtransServerKey == "" {
			log.Println("❌ MIDTRANS_SERVER_KEY is not set!")
		}
	default:
		log.Printf("⚠️ Unknown PAYMENT_GATEWAY_PROVIDER=%q, falling back to razorpay", GatewayProvider)
		GatewayProvider = "razorpay"
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func GetEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func GetEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func IntentTTL() time.Duration {
	if IntentTTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(IntentTTLMinutes) * time.Minute
}

func UpcomingHorizon() time.Duration {
	if UpcomingHorizonDays <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(UpcomingHorizonDays) * 24 * time.Hour
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger() gormLogger.Interface {
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      gormLogger.Info,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	l.LogLevel = level
	return l
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	log.Printf("[INFO] "+msg, data...)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	log.Printf("[WARN] "+msg, data...)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	log.Printf("[ERROR] "+msg, data...)
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	if err != nil {
		log.Printf("[ERROR] %s | %v | %s | %d rows | %s", file, err, elapsed, rows, sql)
	} else if elapsed > l.SlowThreshold {
		log.Printf("[SLOW SQL] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	}
}
