package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Hara602/usbFortify/internal/config"
	"github.com/Hara602/usbFortify/internal/hostinfo"
	"github.com/Hara602/usbFortify/internal/journal"
	"github.com/Hara602/usbFortify/internal/notify"
	"github.com/Hara602/usbFortify/internal/procsnap"
	"github.com/Hara602/usbFortify/internal/sampler"
	"github.com/Hara602/usbFortify/internal/sink"
	"github.com/Hara602/usbFortify/internal/supervisor"
	"github.com/Hara602/usbFortify/internal/sysutil"
	"github.com/Hara602/usbFortify/internal/tracker"
	"github.com/Hara602/usbFortify/internal/watcher"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		sysutil.InitLogger(false)
		sysutil.Log.Fatal("Invalid configuration", zap.Error(err))
	}

	// 初始化日志
	sysutil.InitLogger(cfg.Debug)
	defer sysutil.Log.Sync()

	sysutil.Log.Info("🛡️ USB Fortify Agent Starting...", zap.String("log", cfg.LogPath))

	// 日志输出：文本文件为主，SQLite 为可选副本
	var mirrors []sink.Sink
	if cfg.JournalPath != "" {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			sysutil.Log.Fatal("Journal init failed", zap.Error(err))
		}
		defer j.Close()
		if n, err := j.Count(); err == nil {
			sysutil.Log.Info("Journal opened", zap.String("path", cfg.JournalPath), zap.Int("lines", n))
		}
		mirrors = append(mirrors, j)
	}
	out := sink.Multi(sink.NewFile(cfg.LogPath), mirrors...)

	if err := out.Append("Monitor started at " + sysutil.Stamp(time.Now())); err != nil {
		sysutil.Log.Error("Failed to write start line", zap.Error(err))
	}

	// 初始化核心模块 (依赖注入)
	host := hostinfo.New()

	var channel notify.Channel
	if cfg.NotifyEnabled() {
		channel = notify.NewSMTP(cfg.SMTP)
	} else {
		sysutil.Log.Warn("SMTP not configured, insert alerts will be logged as failed")
	}
	notifier := notify.New(channel, out, cfg.AlertFrom, cfg.AlertTo)

	var wake <-chan struct{}
	if cfg.UdevWake {
		blockWatcher := watcher.New()
		wake, err = blockWatcher.Start()
		if err != nil {
			sysutil.Log.Warn("udev watcher unavailable, polling only", zap.Error(err))
		} else {
			defer blockWatcher.Stop()
		}
	}

	usb := tracker.New(tracker.Options{
		Lister:      host,
		Sink:        out,
		Snapshotter: procsnap.New(host, out),
		Notifier:    notifier,
		Interval:    cfg.DeviceInterval,
		Wake:        wake,
	})
	resources := sampler.New(sampler.Options{
		Host:     host,
		Sink:     out,
		Interval: cfg.ResourceInterval,
	})

	// 捕获操作系统信号，优雅关闭
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sup := supervisor.New(out, supervisor.Options{
		FailureThreshold: cfg.FailureThreshold,
		MaxBackoff:       cfg.MaxBackoff,
	})
	sup.Run(ctx, usb, resources)
	sysutil.Log.Info("Shutting down...")
}
