package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Hara602/usbFortify/internal/notify"
)

// Config 运行参数。普通参数来自命令行（环境变量作为默认值），凭据只从环境变量读取
type Config struct {
	LogPath          string
	JournalPath      string
	DeviceInterval   time.Duration
	ResourceInterval time.Duration
	UdevWake         bool
	FailureThreshold int
	MaxBackoff       time.Duration
	Debug            bool

	SMTP      notify.SMTPConfig
	AlertFrom string
	AlertTo   string
}

// NotifyEnabled 是否配置了 SMTP 服务器和收件人
func (c *Config) NotifyEnabled() bool {
	return c.SMTP.Host != "" && c.AlertTo != ""
}

// Load 解析命令行参数。getenv 一般传 os.Getenv
func Load(args []string, getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{}
	fs := flag.NewFlagSet("agent", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.LogPath, "log", env("FORTIFY_LOG", "system_monitor.log"), "Path of the append-only monitor log")
	fs.StringVar(&cfg.JournalPath, "journal", env("FORTIFY_JOURNAL", ""), "Optional SQLite journal mirroring every log line")
	fs.DurationVar(&cfg.DeviceInterval, "device-interval", 2*time.Second, "Removable device poll interval")
	fs.DurationVar(&cfg.ResourceInterval, "resource-interval", 5*time.Second, "Resource usage sample interval")
	fs.BoolVar(&cfg.UdevWake, "udev-wake", false, "Wake the device poll on udev block events (Linux)")
	fs.IntVar(&cfg.FailureThreshold, "failure-threshold", 3, "Consecutive failures before a subsystem is reported degraded")
	fs.DurationVar(&cfg.MaxBackoff, "max-backoff", time.Minute, "Upper bound of the retry delay after failures")
	fs.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&cfg.SMTP.Host, "smtp-host", env("FORTIFY_SMTP_HOST", ""), "SMTP server host")
	fs.StringVar(&cfg.AlertTo, "alert-to", env("FORTIFY_ALERT_TO", ""), "Alert recipient address")
	fs.DurationVar(&cfg.SMTP.Timeout, "smtp-timeout", 30*time.Second, "SMTP dial and session timeout")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	port := env("FORTIFY_SMTP_PORT", "587")
	p, err := strconv.Atoi(port)
	if err != nil || p <= 0 || p > 65535 {
		return nil, fmt.Errorf("invalid FORTIFY_SMTP_PORT %q", port)
	}
	cfg.SMTP.Port = p
	cfg.SMTP.Username = getenv("FORTIFY_SMTP_USER")
	cfg.SMTP.Password = getenv("FORTIFY_SMTP_PASSWORD")
	cfg.AlertFrom = env("FORTIFY_ALERT_FROM", cfg.SMTP.Username)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.LogPath == "" {
		return errors.New("log path must not be empty")
	}
	if c.DeviceInterval <= 0 || c.ResourceInterval <= 0 {
		return errors.New("poll intervals must be positive")
	}
	if c.FailureThreshold <= 0 {
		return errors.New("failure threshold must be positive")
	}
	if c.MaxBackoff <= 0 {
		return errors.New("max backoff must be positive")
	}
	return nil
}
