package sampler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Hara602/usbFortify/internal/model"
	"github.com/Hara602/usbFortify/internal/sink"
	"github.com/Hara602/usbFortify/internal/sysutil"
	"go.uber.org/zap"
)

const (
	Name            = "resource-monitor"
	DefaultInterval = 5 * time.Second
)

// Host 累计 I/O 计数和瞬时 CPU/内存读数
type Host interface {
	Counters(ctx context.Context) (model.CounterSample, error)
	Gauges(ctx context.Context) (cpuPercent, memPercent float64, err error)
}

type Options struct {
	Host     Host
	Sink     sink.Sink
	Interval time.Duration
	Now      func() time.Time
}

// Sampler 每个周期读取计数，与上一次相减得到速率并写入日志
type Sampler struct {
	opts     Options
	previous model.CounterSample
}

func New(opts Options) *Sampler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Sampler{opts: opts}
}

func (s *Sampler) Name() string            { return Name }
func (s *Sampler) Interval() time.Duration { return s.opts.Interval }

// Init 读取初始计数，并预热 CPU 读数（第一次调用没有参照）
func (s *Sampler) Init(ctx context.Context) error {
	prev, err := s.opts.Host.Counters(ctx)
	if err != nil {
		return fmt.Errorf("initial counters: %w", err)
	}
	if _, _, err := s.opts.Host.Gauges(ctx); err != nil {
		return fmt.Errorf("initial gauges: %w", err)
	}
	s.previous = prev
	return nil
}

// Rate 两次累计计数之差换算成 MB。计数回退（网卡或驱动重置）时返回 0
func Rate(prev, current uint64) float64 {
	if current < prev {
		return 0
	}
	return float64(current-prev) / model.BytesPerMB
}

func (s *Sampler) Tick(ctx context.Context) error {
	current, err := s.opts.Host.Counters(ctx)
	if err != nil {
		return fmt.Errorf("read counters: %w", err)
	}
	cpuPct, memPct, err := s.opts.Host.Gauges(ctx)
	if err != nil {
		return fmt.Errorf("read gauges: %w", err)
	}

	if current.DiskBytes < s.previous.DiskBytes || current.NetBytes < s.previous.NetBytes {
		sysutil.Log.Warn("I/O counters went backwards, reporting 0 for this interval",
			zap.Uint64("prev_disk", s.previous.DiskBytes),
			zap.Uint64("disk", current.DiskBytes),
			zap.Uint64("prev_net", s.previous.NetBytes),
			zap.Uint64("net", current.NetBytes))
	}

	rec := model.MetricsRecord{
		Time:         s.opts.Now(),
		CPUPercent:   cpuPct,
		MemPercent:   memPct,
		DiskRateMBps: Rate(s.previous.DiskBytes, current.DiskBytes),
		NetRateMBps:  Rate(s.previous.NetBytes, current.NetBytes),
	}
	if err := s.opts.Sink.Append(RecordLines(rec)...); err != nil {
		return fmt.Errorf("log metrics: %w", err)
	}
	sysutil.Log.Debug("Metrics recorded",
		zap.Float64("cpu", rec.CPUPercent),
		zap.Float64("mem", rec.MemPercent),
		zap.Float64("disk_mb", rec.DiskRateMBps),
		zap.Float64("net_mb", rec.NetRateMBps))

	s.previous = current
	return nil
}

// RecordLines 一条采样记录在日志中的多行格式
func RecordLines(rec model.MetricsRecord) []string {
	return []string{
		fmt.Sprintf("[%s] SYSTEM STATS", sysutil.Stamp(rec.Time)),
		"CPU Usage: " + percent(rec.CPUPercent) + "%",
		"Memory Usage: " + percent(rec.MemPercent) + "%",
		fmt.Sprintf("Disk I/O: %.2f MB/s", rec.DiskRateMBps),
		fmt.Sprintf("Network I/O: %.2f MB/s", rec.NetRateMBps),
	}
}

// percent 保留一位小数，例如 12.5、3.0
func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
