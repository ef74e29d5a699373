package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultSettingsFile = "settings.yaml"

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Limits   LimitsConfig   `yaml:"limits"`
	Policy   PolicyConfig   `yaml:"policy"`
	Provider ProviderConfig `yaml:"provider"`
	Notify   NotifyConfig   `yaml:"notify"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// ServerConfig 只读监控面板，Addr 为空时不启动。
type ServerConfig struct {
	Addr string     `yaml:"addr"`
	Cors CorsConfig `yaml:"cors"`
}

type CorsConfig struct {
	AllowOrigins     []string `yaml:"allowOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials"`
}

// StorageConfig 运行记录数据库，SQLitePath 为空时不记录。
type StorageConfig struct {
	SQLitePath string `yaml:"sqlitePath"`
}

type LimitsConfig struct {
	// GlobalQPS 所有账号共享的请求速率上限。未设置（0）时取默认值 5，< 0 表示不限速。
	GlobalQPS   float64 `yaml:"globalQPS"`
	GlobalBurst int     `yaml:"globalBurst"`
}

// PolicyConfig 节奏控制参数。这些是本地策略，不是远端协议要求。
type PolicyConfig struct {
	ClickBatchMin   int `yaml:"clickBatchMin"`
	ClickDelayMinMs int `yaml:"clickDelayMinMs"`
	ClickDelayMaxMs int `yaml:"clickDelayMaxMs"`
	// MaxClickRejections 连续被拒绝多少次后放弃本轮点击，0 表示不限。
	MaxClickRejections    int `yaml:"maxClickRejections"`
	AchieveClaimGapMs     int `yaml:"achieveClaimGapMs"`
	QuestGapMs            int `yaml:"questGapMs"`
	QuestLotteryGapMs     int `yaml:"questLotteryGapMs"`
	MaxQuestLotteryClaims int `yaml:"maxQuestLotteryClaims"`
	SpinShareDelayMs      int `yaml:"spinShareDelayMs"`
	SpinAdsDelayMs        int `yaml:"spinAdsDelayMs"`
	SpinGapMs             int `yaml:"spinGapMs"`
	ClaimPadMs            int `yaml:"claimPadMs"`
	SpeedupPadSec         int `yaml:"speedupPadSec"`
	// SpeedupFallbackSec 加速不可用时的下次领取间隔，默认 8 小时 + 10 秒。
	SpeedupFallbackSec int `yaml:"speedupFallbackSec"`
	StaggerMs          int `yaml:"staggerMs"`
	// MaxRunHours 进程最长运行时间，只是兜底，默认 7 天。
	MaxRunHours int `yaml:"maxRunHours"`
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func (c PolicyConfig) ClickDelayMin() time.Duration   { return ms(c.ClickDelayMinMs) }
func (c PolicyConfig) ClickDelayMax() time.Duration   { return ms(c.ClickDelayMaxMs) }
func (c PolicyConfig) AchieveClaimGap() time.Duration { return ms(c.AchieveClaimGapMs) }
func (c PolicyConfig) QuestGap() time.Duration        { return ms(c.QuestGapMs) }
func (c PolicyConfig) QuestLotteryGap() time.Duration { return ms(c.QuestLotteryGapMs) }
func (c PolicyConfig) SpinShareDelay() time.Duration  { return ms(c.SpinShareDelayMs) }
func (c PolicyConfig) SpinAdsDelay() time.Duration    { return ms(c.SpinAdsDelayMs) }
func (c PolicyConfig) SpinGap() time.Duration         { return ms(c.SpinGapMs) }
func (c PolicyConfig) ClaimPad() time.Duration        { return ms(c.ClaimPadMs) }
func (c PolicyConfig) Stagger() time.Duration         { return ms(c.StaggerMs) }
func (c PolicyConfig) SpeedupPad() time.Duration      { return time.Duration(c.SpeedupPadSec) * time.Second }
func (c PolicyConfig) SpeedupFallback() time.Duration {
	return time.Duration(c.SpeedupFallbackSec) * time.Second
}
func (c PolicyConfig) MaxRun() time.Duration { return time.Duration(c.MaxRunHours) * time.Hour }

type ProviderConfig struct {
	BaseURL   string           `yaml:"baseURL"`
	TimeoutMs int              `yaml:"timeoutMs"`
	Retry     ProviderRetryCfg `yaml:"retry"`
	UserAgent string           `yaml:"userAgent"`
	Proxy     string           `yaml:"proxy"`
}

type ProviderRetryCfg struct {
	Count     int `yaml:"count"`
	WaitMs    int `yaml:"waitMs"`
	MaxWaitMs int `yaml:"maxWaitMs"`
}

func (c ProviderConfig) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c ProviderRetryCfg) Wait() time.Duration {
	if c.WaitMs <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(c.WaitMs) * time.Millisecond
}

func (c ProviderRetryCfg) MaxWait() time.Duration {
	if c.MaxWaitMs <= 0 {
		return 1200 * time.Millisecond
	}
	return time.Duration(c.MaxWaitMs) * time.Millisecond
}

type NotifyConfig struct {
	Email EmailConfig `yaml:"email"`
}

type EmailConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Host             string   `yaml:"host"`
	Port             int      `yaml:"port"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	From             string   `yaml:"from"`
	To               []string `yaml:"to"`
	SummaryWindowSec int      `yaml:"summaryWindowSec"`
}

func (c EmailConfig) SummaryWindow() time.Duration {
	if c.SummaryWindowSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.SummaryWindowSec) * time.Second
}

// Default returns a config with every default applied.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

// Load reads path. A missing file is not an error: defaults are used.
// Environment variables (optionally from .env) override the file.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SettingsPath honours BANANA_SETTINGS, falling back to settings.yaml.
func SettingsPath() string {
	if v := strings.TrimSpace(os.Getenv("BANANA_SETTINGS")); v != "" {
		return v
	}
	return DefaultSettingsFile
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("BANANA_BASE_URL")); v != "" {
		c.Provider.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("BANANA_PROXY")); v != "" {
		c.Provider.Proxy = v
	}
	if v := strings.TrimSpace(os.Getenv("BANANA_MONITOR_ADDR")); v != "" {
		c.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("BANANA_SQLITE_PATH")); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := strings.TrimSpace(os.Getenv("SMTP_PASSWORD")); v != "" {
		c.Notify.Email.Password = v
	}
	if v := strings.TrimSpace(os.Getenv("BANANA_MAX_RUN_HOURS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Policy.MaxRunHours = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Limits.GlobalQPS == 0 {
		c.Limits.GlobalQPS = 5
	}
	if c.Limits.GlobalBurst <= 0 {
		c.Limits.GlobalBurst = 10
	}
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "https://interface.carv.io/banana"
	}
	if c.Provider.Retry.Count < 0 {
		c.Provider.Retry.Count = 0
	}

	p := &c.Policy
	if p.ClickBatchMin <= 0 {
		p.ClickBatchMin = 10
	}
	if p.ClickDelayMinMs <= 0 {
		p.ClickDelayMinMs = 500
	}
	if p.ClickDelayMaxMs <= 0 {
		p.ClickDelayMaxMs = 3000
	}
	if p.ClickDelayMaxMs < p.ClickDelayMinMs {
		p.ClickDelayMaxMs = p.ClickDelayMinMs
	}
	if p.MaxClickRejections < 0 {
		p.MaxClickRejections = 0
	}
	if p.AchieveClaimGapMs <= 0 {
		p.AchieveClaimGapMs = 1000
	}
	if p.QuestGapMs <= 0 {
		p.QuestGapMs = 2000
	}
	if p.QuestLotteryGapMs <= 0 {
		p.QuestLotteryGapMs = 1000
	}
	if p.MaxQuestLotteryClaims <= 0 {
		p.MaxQuestLotteryClaims = 50
	}
	if p.SpinShareDelayMs <= 0 {
		p.SpinShareDelayMs = 500
	}
	if p.SpinAdsDelayMs <= 0 {
		p.SpinAdsDelayMs = 1000
	}
	if p.SpinGapMs <= 0 {
		p.SpinGapMs = 1000
	}
	if p.ClaimPadMs <= 0 {
		p.ClaimPadMs = 1000
	}
	if p.SpeedupPadSec <= 0 {
		p.SpeedupPadSec = 10
	}
	if p.SpeedupFallbackSec <= 0 {
		p.SpeedupFallbackSec = 8*60*60 + 10
	}
	if p.StaggerMs <= 0 {
		p.StaggerMs = 1000
	}
	if p.MaxRunHours <= 0 {
		p.MaxRunHours = 24 * 7
	}

	if c.Notify.Email.Port <= 0 {
		c.Notify.Email.Port = 465
	}
	if c.Notify.Email.From == "" {
		c.Notify.Email.From = c.Notify.Email.Username
	}
}

func (c Config) validate() error {
	if c.Provider.BaseURL == "" {
		return errors.New("provider.baseURL is required")
	}
	if c.Notify.Email.Enabled {
		if c.Notify.Email.Host == "" {
			return errors.New("notify.email.host is required when email is enabled")
		}
		if len(c.Notify.Email.To) == 0 {
			return errors.New("notify.email.to is required when email is enabled")
		}
	}
	return nil
}
