package tracker

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/Hara602/usbFortify/internal/model"
	"github.com/Hara602/usbFortify/internal/notify"
	"github.com/Hara602/usbFortify/internal/sink"
	"github.com/Hara602/usbFortify/internal/sysutil"
	"go.uber.org/zap"
)

const (
	Name            = "usb-monitor"
	DefaultInterval = 2 * time.Second
	StartedLine     = "USB polling started"
)

// DeviceLister 设备枚举接口
type DeviceLister interface {
	Devices(ctx context.Context) ([]model.Device, error)
}

// Snapshotter 设备事件发生时采集进程表
type Snapshotter interface {
	Capture(ctx context.Context) error
}

// Notifier 插入事件的告警
type Notifier interface {
	Notify(ctx context.Context, deviceID string) notify.Result
}

type Options struct {
	Lister      DeviceLister
	Sink        sink.Sink
	Snapshotter Snapshotter
	Notifier    Notifier
	Interval    time.Duration
	// Wake 可选，收到信号时提前结束本轮等待（例如 udev 块设备事件）
	Wake <-chan struct{}
	Now  func() time.Time
}

// Tracker 轮询可移动设备，与上一次的集合做差分，生成插入/移除事件
type Tracker struct {
	opts      Options
	connected model.DeviceSet
	baselined bool
	// missed 基线建立之前有过失败的枚举
	missed    bool
}

func New(opts Options) *Tracker {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tracker{opts: opts, connected: model.DeviceSet{}}
}

func (t *Tracker) Name() string               { return Name }
func (t *Tracker) Interval() time.Duration    { return t.opts.Interval }
func (t *Tracker) Wake() <-chan struct{}      { return t.opts.Wake }
func (t *Tracker) Connected() model.DeviceSet { return maps.Clone(t.connected) }

// Init 写入启动行并立即取基线。枚举失败不算初始化失败，基线留给之后的 Tick
func (t *Tracker) Init(ctx context.Context) error {
	if err := t.opts.Sink.Append(StartedLine); err != nil {
		return err
	}
	if t.baselined {
		return nil
	}
	devs, err := t.opts.Lister.Devices(ctx)
	if err != nil {
		t.missed = true
		sysutil.Log.Warn("Baseline enumeration failed", zap.Error(err))
		return nil
	}
	t.baseline(model.RemovableSet(devs))
	return nil
}

func (t *Tracker) baseline(current model.DeviceSet) {
	t.connected = current
	t.baselined = true
	sysutil.Log.Info("Baseline devices", zap.Strings("devices", current.Sorted()))
}

// Diff 由同一对快照计算插入和移除的设备，两者不相交
func Diff(prev, current model.DeviceSet) (inserted, removed []string) {
	return current.Minus(prev), prev.Minus(current)
}

// EventLine 事件在日志中的格式
func EventLine(ev model.DeviceEvent) string {
	return fmt.Sprintf("[%s] USB %s: %s", sysutil.Stamp(ev.Time), ev.Kind, ev.DeviceID)
}

// Tick 执行一次轮询。枚举或写日志失败时返回错误，已连接集合保持不变，下一轮会重新比较
func (t *Tracker) Tick(ctx context.Context) error {
	devs, err := t.opts.Lister.Devices(ctx)
	if err != nil {
		if !t.baselined {
			t.missed = true
		}
		return fmt.Errorf("enumerate devices: %w", err)
	}
	current := model.RemovableSet(devs)

	// 第一次成功的轮询只作为基线，启动时已存在的设备不算插入。
	// 之前枚举失败过的话，无法区分启动时已有的设备和这期间插入的设备，全部按插入上报
	if !t.baselined {
		if !t.missed {
			t.baseline(current)
			return nil
		}
		t.baselined = true
		sysutil.Log.Warn("Late baseline, reporting present devices as inserted", zap.Strings("devices", current.Sorted()))
	}

	inserted, removed := Diff(t.connected, current)
	byID := make(map[string]model.Device, len(devs))
	for _, d := range devs {
		byID[d.ID] = d
	}

	for _, id := range inserted {
		if err := t.handle(ctx, model.DeviceEvent{Kind: model.Inserted, DeviceID: id, Time: t.opts.Now()}, byID[id]); err != nil {
			return err
		}
	}
	for _, id := range removed {
		if err := t.handle(ctx, model.DeviceEvent{Kind: model.Removed, DeviceID: id, Time: t.opts.Now()}, model.Device{ID: id}); err != nil {
			return err
		}
	}

	t.connected = current
	return nil
}

func (t *Tracker) handle(ctx context.Context, ev model.DeviceEvent, dev model.Device) error {
	if err := t.opts.Sink.Append(EventLine(ev)); err != nil {
		return fmt.Errorf("log %s event: %w", ev.Kind, err)
	}

	if ev.Kind == model.Inserted {
		sysutil.Log.Info("✅ USB Connected",
			zap.String("dev", ev.DeviceID),
			zap.String("mount", dev.MountPoint),
			zap.String("fstype", dev.Fstype))
		if dev.HasOpt(model.OptBadUSBSuspect) {
			sysutil.Log.Warn("🚨 BADUSB DETECTED", zap.String("dev", ev.DeviceID))
		}
	} else {
		sysutil.Log.Info("❌ USB Removed", zap.String("dev", ev.DeviceID))
	}

	if err := t.opts.Snapshotter.Capture(ctx); err != nil {
		return fmt.Errorf("process snapshot: %w", err)
	}

	if ev.Kind == model.Inserted {
		// 结果已经由 Notifier 写入日志，失败不影响轮询
		_ = t.opts.Notifier.Notify(ctx, ev.DeviceID)
	}
	return nil
}
