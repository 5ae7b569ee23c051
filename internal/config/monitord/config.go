package monitord_config

import (
	"time"

	"github.com/pulseguard/pulseguard/internal/obs"
	"github.com/pulseguard/pulseguard/internal/probe"
	pginfra "github.com/pulseguard/pulseguard/internal/repository/postgres"
	"github.com/pulseguard/pulseguard/internal/services/notifier"
)

type AppCfg struct {
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type SchedCfg struct {
	Interval time.Duration `mapstructure:"interval"`
	Workers  int           `mapstructure:"workers"`
}

type HTTPCfg struct {
	Addr            string        `mapstructure:"addr"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
}

type ProbeCfg struct {
	DefaultTimeout  time.Duration `mapstructure:"default_timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
	FollowRedirects bool          `mapstructure:"follow_redirects"`
	VerifyTLS       bool          `mapstructure:"verify_tls"`
}

type SMTPCfg struct {
	Enabled    bool          `mapstructure:"enabled"`
	Addr       string        `mapstructure:"addr"`
	From       string        `mapstructure:"from"`
	User       string        `mapstructure:"user"`
	Password   string        `mapstructure:"password"`
	UseTLS     bool          `mapstructure:"use_tls"`
	Timeout    time.Duration `mapstructure:"timeout"`
	SubjPrefix string        `mapstructure:"subj_prefix"`
}

type SMSCfg struct {
	Enabled    bool          `mapstructure:"enabled"`
	BaseURL    string        `mapstructure:"base_url"`
	AccountSID string        `mapstructure:"account_sid"`
	AuthToken  string        `mapstructure:"auth_token"`
	From       string        `mapstructure:"from"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type WebhookCfg struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type NotifyCfg struct {
	QueueSize int        `mapstructure:"queue_size"`
	SMTP      SMTPCfg    `mapstructure:"smtp"`
	SMS       SMSCfg     `mapstructure:"sms"`
	Webhook   WebhookCfg `mapstructure:"webhook"`
}

type AuthCfg struct {
	Secret         string `mapstructure:"secret"`
	TriggerKeyHash string `mapstructure:"trigger_key_hash"`
}

type StreamCfg struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	BusBuffer      int      `mapstructure:"bus_buffer"`
}

type LogCfg struct {
	Level          string `mapstructure:"level"`
	Pretty         bool   `mapstructure:"pretty"`
	File           string `mapstructure:"file"`
	FileMaxSizeMB  int    `mapstructure:"file_max_size_mb"`
	FileMaxBackups int    `mapstructure:"file_max_backups"`
	FileMaxAgeDays int    `mapstructure:"file_max_age_days"`
}

type OTELCfg struct {
	Enable      bool    `mapstructure:"enable"`
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type Config struct {
	App    AppCfg         `mapstructure:"app"`
	DB     pginfra.Config `mapstructure:"db"`
	Sched  SchedCfg       `mapstructure:"sched"`
	HTTP   HTTPCfg        `mapstructure:"http"`
	Probe  ProbeCfg       `mapstructure:"probe"`
	Notify NotifyCfg      `mapstructure:"notify"`
	Auth   AuthCfg        `mapstructure:"auth"`
	Stream StreamCfg      `mapstructure:"stream"`
	Log    LogCfg         `mapstructure:"log"`
	OTEL   OTELCfg        `mapstructure:"otel"`
}

func (c *Config) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:          c.Log.Level,
		Pretty:         c.Log.Pretty,
		App:            "monitord",
		Env:            c.App.Env,
		Ver:            c.App.Version,
		File:           c.Log.File,
		FileMaxSizeMB:  c.Log.FileMaxSizeMB,
		FileMaxBackups: c.Log.FileMaxBackups,
		FileMaxAgeDays: c.Log.FileMaxAgeDays,
	}
}

func (c *Config) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      c.OTEL.Enable,
		Endpoint:    c.OTEL.Endpoint,
		ServiceName: c.OTEL.ServiceName,
		SampleRatio: c.OTEL.SampleRatio,
	}
}

func (c *Config) AsProbeConfig() probe.Config {
	return probe.Config{
		DefaultTimeout:  c.Probe.DefaultTimeout,
		UserAgent:       c.Probe.UserAgent,
		FollowRedirects: c.Probe.FollowRedirects,
		VerifyTLS:       c.Probe.VerifyTLS,
	}
}

func (c *Config) AsSMTPConfig() notifier.SMTPConfig {
	return notifier.SMTPConfig{
		Addr:       c.Notify.SMTP.Addr,
		From:       c.Notify.SMTP.From,
		User:       c.Notify.SMTP.User,
		Password:   c.Notify.SMTP.Password,
		UseTLS:     c.Notify.SMTP.UseTLS,
		Timeout:    c.Notify.SMTP.Timeout,
		SubjPrefix: c.Notify.SMTP.SubjPrefix,
	}
}

func (c *Config) AsSMSConfig() notifier.SMSConfig {
	return notifier.SMSConfig{
		BaseURL:    c.Notify.SMS.BaseURL,
		AccountSID: c.Notify.SMS.AccountSID,
		AuthToken:  c.Notify.SMS.AuthToken,
		From:       c.Notify.SMS.From,
		Timeout:    c.Notify.SMS.Timeout,
	}
}
