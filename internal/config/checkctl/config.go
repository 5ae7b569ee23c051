package checkctl_config

import (
	"time"

	"github.com/pulseguard/pulseguard/internal/obs"
	"github.com/pulseguard/pulseguard/internal/probe"
	pginfra "github.com/pulseguard/pulseguard/internal/repository/postgres"
	"github.com/pulseguard/pulseguard/internal/services/notifier"
)

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
	SMTP    SMTPCfg    `mapstructure:"smtp"`
	SMS     SMSCfg     `mapstructure:"sms"`
	Webhook WebhookCfg `mapstructure:"webhook"`
}

type Config struct {
	DB       pginfra.Config `mapstructure:"db"`
	Probe    ProbeCfg       `mapstructure:"probe"`
	Notify   NotifyCfg      `mapstructure:"notify"`
	Workers  int            `mapstructure:"workers"`
	LogLevel string         `mapstructure:"log_level"`
}

func (c *Config) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  c.LogLevel,
		Pretty: true,
		App:    "checkctl",
		Env:    "cli",
		Ver:    "dev",
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
