package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"codearena/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MatchConfig тайминги матча и liveness
type MatchConfig struct {
	ChallengeGrace    time.Duration // сколько ждём предложение задачи до дефолта
	Countdown         time.Duration
	Duration          time.Duration // окно решения
	HeartbeatInterval time.Duration
	MissedBeats       int // сколько пропущенных heartbeat'ов до форфейта
	SweepInterval     time.Duration
	FinishedRetention time.Duration // сколько держим завершённые комнаты для поздних сообщений
	DefaultDifficulty string
}

// ForfeitAfter время тишины, после которого участник проигрывает
func (m MatchConfig) ForfeitAfter() time.Duration {
	return m.HeartbeatInterval * time.Duration(m.MissedBeats)
}

type Config struct {
	Env           string
	AppPort       string
	LogLevel      string
	LogJSON       bool
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	JWTSecret     string
	AllowedOrigin string

	RateLimit  int
	RateWindow time.Duration

	BotToken         string
	AnnounceChatIDs  []int64
	AdminTelegramIDs []int64

	Match MatchConfig
}

// DefaultMatchConfig значения по умолчанию (поведение эталонного клиента)
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		ChallengeGrace:    5 * time.Second,
		Countdown:         5 * time.Second,
		Duration:          420 * time.Second,
		HeartbeatInterval: 10 * time.Second,
		MissedBeats:       3,
		SweepInterval:     time.Second,
		FinishedRetention: 2 * time.Minute,
		DefaultDifficulty: "easy",
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	d := DefaultMatchConfig()
	v.SetDefault("env", "dev")
	v.SetDefault("app_port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("database_url", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("jwt_secret", "dev-secret-change-me")
	v.SetDefault("allowed_origin", "")
	v.SetDefault("rate_limit", 30)
	v.SetDefault("rate_window", time.Minute)
	v.SetDefault("bot_token", "")
	v.SetDefault("announce_chat_ids", "")
	v.SetDefault("admin_telegram_ids", "")

	v.SetDefault("challenge_grace", d.ChallengeGrace)
	v.SetDefault("countdown", d.Countdown)
	v.SetDefault("match_duration", d.Duration)
	v.SetDefault("heartbeat_interval", d.HeartbeatInterval)
	v.SetDefault("missed_beats", d.MissedBeats)
	v.SetDefault("sweep_interval", d.SweepInterval)
	v.SetDefault("finished_retention", d.FinishedRetention)
	v.SetDefault("default_difficulty", d.DefaultDifficulty)

	v.AutomaticEnv()
	return v
}

// Load читает .env (если есть) и переменные окружения
func Load() *Config {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			logger.Warn("failed to load .env", "error", err)
		}
	}
	return fromViper(newViper())
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Env:           v.GetString("env"),
		AppPort:       v.GetString("app_port"),
		LogLevel:      v.GetString("log_level"),
		LogJSON:       strings.EqualFold(v.GetString("log_format"), "json"),
		DatabaseURL:   v.GetString("database_url"),
		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),
		RedisDB:       v.GetInt("redis_db"),
		JWTSecret:     v.GetString("jwt_secret"),
		AllowedOrigin: v.GetString("allowed_origin"),
		RateLimit:     v.GetInt("rate_limit"),
		RateWindow:    v.GetDuration("rate_window"),
		BotToken:      v.GetString("bot_token"),
		Match: MatchConfig{
			ChallengeGrace:    v.GetDuration("challenge_grace"),
			Countdown:         v.GetDuration("countdown"),
			Duration:          v.GetDuration("match_duration"),
			HeartbeatInterval: v.GetDuration("heartbeat_interval"),
			MissedBeats:       v.GetInt("missed_beats"),
			SweepInterval:     v.GetDuration("sweep_interval"),
			FinishedRetention: v.GetDuration("finished_retention"),
			DefaultDifficulty: v.GetString("default_difficulty"),
		},
	}
	cfg.AnnounceChatIDs = parseIDs(v.GetString("announce_chat_ids"))
	cfg.AdminTelegramIDs = parseIDs(v.GetString("admin_telegram_ids"))

	// порог ниже одного удара бессмысленен
	if cfg.Match.MissedBeats < 1 {
		cfg.Match.MissedBeats = 1
	}
	return cfg
}

func parseIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			logger.Warn("skipping bad chat id", "value", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
