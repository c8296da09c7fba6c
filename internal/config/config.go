package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// SignalConfig holds the tunables for the five micro-structure detectors.
type SignalConfig struct {
	PriceSpikeThresholdPct   decimal.Decimal
	PriceSpikeWindow         time.Duration
	VolumeSpikeMultiplier    decimal.Decimal
	VolumeSpikeBaselineWindow time.Duration
	SpreadCompressionPct     decimal.Decimal
	SpreadCompressionMinSpread decimal.Decimal
	SweepWindow              time.Duration
	SweepMinTradeCount       int
	SweepMinTotalSize        decimal.Decimal
	SweepMinPriceImpactPct   decimal.Decimal
	DepthPullThresholdPct    decimal.Decimal
	DepthPullMinDepth        decimal.Decimal
	WarmUp                   time.Duration
	Cooldown                 time.Duration
}

// QualityConfig holds the market-quality tier thresholds.
type QualityConfig struct {
	HighMinVolume24h   decimal.Decimal
	HighMaxSpread      decimal.Decimal
	HighMinTrades24h   int
	MediumMinVolume24h decimal.Decimal
	MediumMaxSpread    decimal.Decimal
	MediumMinTrades24h int
	LowMinVolume24h    decimal.Decimal
	LowMaxSpread       decimal.Decimal
	LowMinTrades24h    int
}

// WhaleUniverseConfig holds qualification/rebuild tunables for the whale universe.
type WhaleUniverseConfig struct {
	MinVolume  decimal.Decimal
	MinTrades  int
	RebuildEvery time.Duration
}

// Config is the process-wide configuration, loaded once at startup from
// the environment.
type Config struct {
	Debug bool

	// Telegram alert channel
	TelegramToken  string
	TelegramChatID int64

	// Venue stream
	VenueWSURL string

	// Database (optional archive)
	DatabasePath string

	Signal SignalConfig
	Quality QualityConfig
	WhaleUniverse WhaleUniverseConfig

	LinkerRefresh time.Duration

	EdgeCacheTTL time.Duration
	EdgeCooldown time.Duration

	ArbMinEdge   decimal.Decimal
	ArbCheckEvery time.Duration
	ArbDedupeWindow time.Duration

	AlertDedupeWindow time.Duration
	AlertRatePerMinute int

	WebhookURL  string
	AlertFilePath string
}

// Load builds a Config from the environment, applying the defaults named
// in the external interfaces table.
func Load() (*Config, error) {
	cfg := &Config{
		Debug:        getEnvBool("DEBUG", false),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		VenueWSURL:   getEnv("VENUE_WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws"),
		DatabasePath: getEnv("DATABASE_PATH", "data/engine.db"),

		Signal: SignalConfig{
			PriceSpikeThresholdPct:    getEnvDecimal("PRICE_SPIKE_THRESHOLD_PCT", decimal.NewFromFloat(3)),
			PriceSpikeWindow:          getEnvDuration("PRICE_SPIKE_WINDOW", 300*time.Second),
			VolumeSpikeMultiplier:     getEnvDecimal("VOLUME_SPIKE_MULTIPLIER", decimal.NewFromFloat(3)),
			VolumeSpikeBaselineWindow: getEnvDuration("VOLUME_SPIKE_BASELINE_WINDOW", 1800*time.Second),
			SpreadCompressionPct:      getEnvDecimal("SPREAD_COMPRESSION_THRESHOLD_PCT", decimal.NewFromFloat(40)),
			SpreadCompressionMinSpread: getEnvDecimal("SPREAD_COMPRESSION_MIN_SPREAD", decimal.NewFromFloat(0.02)),
			SweepWindow:               getEnvDuration("AGGRESSIVE_SWEEP_WINDOW", 30*time.Second),
			SweepMinTradeCount:        getEnvInt("AGGRESSIVE_SWEEP_MIN_TRADE_COUNT", 3),
			SweepMinTotalSize:         getEnvDecimal("AGGRESSIVE_SWEEP_MIN_TOTAL_SIZE", decimal.NewFromFloat(50)),
			SweepMinPriceImpactPct:    getEnvDecimal("AGGRESSIVE_SWEEP_MIN_PRICE_IMPACT_PCT", decimal.NewFromFloat(1)),
			DepthPullThresholdPct:     getEnvDecimal("DEPTH_PULL_THRESHOLD_PCT", decimal.NewFromFloat(50)),
			DepthPullMinDepth:         getEnvDecimal("DEPTH_PULL_MIN_DEPTH", decimal.NewFromFloat(100)),
			WarmUp:                    getEnvDuration("SIGNAL_WARMUP", 30*time.Second),
			Cooldown:                  getEnvDuration("SIGNAL_COOLDOWN", 60*time.Second),
		},

		Quality: QualityConfig{
			HighMinVolume24h:   getEnvDecimal("QUALITY_HIGH_MIN_VOLUME", decimal.NewFromFloat(100000)),
			HighMaxSpread:      getEnvDecimal("QUALITY_HIGH_MAX_SPREAD", decimal.NewFromFloat(0.02)),
			HighMinTrades24h:   getEnvInt("QUALITY_HIGH_MIN_TRADES", 100),
			MediumMinVolume24h: getEnvDecimal("QUALITY_MEDIUM_MIN_VOLUME", decimal.NewFromFloat(25000)),
			MediumMaxSpread:    getEnvDecimal("QUALITY_MEDIUM_MAX_SPREAD", decimal.NewFromFloat(0.05)),
			MediumMinTrades24h: getEnvInt("QUALITY_MEDIUM_MIN_TRADES", 25),
			LowMinVolume24h:    getEnvDecimal("QUALITY_LOW_MIN_VOLUME", decimal.NewFromFloat(5000)),
			LowMaxSpread:       getEnvDecimal("QUALITY_LOW_MAX_SPREAD", decimal.NewFromFloat(0.10)),
			LowMinTrades24h:    getEnvInt("QUALITY_LOW_MIN_TRADES", 10),
		},

		WhaleUniverse: WhaleUniverseConfig{
			MinVolume:    getEnvDecimal("WHALE_UNIVERSE_MIN_VOLUME", decimal.NewFromFloat(10000)),
			MinTrades:    getEnvInt("WHALE_UNIVERSE_MIN_TRADES", 10),
			RebuildEvery: getEnvDuration("WHALE_UNIVERSE_REBUILD", time.Hour),
		},

		LinkerRefresh: getEnvDuration("LINKER_REFRESH", 10*time.Minute),

		EdgeCacheTTL: getEnvDuration("EDGE_CACHE_TTL", 60*time.Second),
		EdgeCooldown: getEnvDuration("EDGE_COOLDOWN", 5*time.Minute),

		ArbMinEdge:      getEnvDecimal("ARB_MIN_EDGE", decimal.NewFromFloat(0.02)),
		ArbCheckEvery:   getEnvDuration("ARB_CHECK_EVERY", 30*time.Second),
		ArbDedupeWindow: getEnvDuration("ARB_DEDUPE_WINDOW", 5*time.Minute),

		AlertDedupeWindow:  getEnvDuration("ALERT_DEDUPE_WINDOW", 60*time.Second),
		AlertRatePerMinute: getEnvInt("ALERT_RATE_PER_MINUTE", 60),

		WebhookURL:    os.Getenv("ALERT_WEBHOOK_URL"),
		AlertFilePath: getEnv("ALERT_FILE_PATH", "data/alerts.log"),
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}
