package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Hara602/usbFortify/internal/sink"
	"github.com/Hara602/usbFortify/internal/sysutil"
	"go.uber.org/zap"
)

// Task 一个独立运行的轮询循环
type Task interface {
	Name() string
	Interval() time.Duration
	// Init 在第一次等待之前执行一次
	Init(ctx context.Context) error
	// Tick 每个周期执行一次
	Tick(ctx context.Context) error
}

// Waker 可选接口，返回的通道有信号时提前结束本轮等待
type Waker interface {
	Wake() <-chan struct{}
}

type Options struct {
	// FailureThreshold 连续失败多少次后写入 DEGRADED 行
	FailureThreshold int
	MaxBackoff       time.Duration
	Now              func() time.Time
}

// Supervisor 为每个 Task 启动一个 goroutine，失败后退避重试，不让单个循环静默退出
type Supervisor struct {
	sink sink.Sink
	opts Options
}

func New(s sink.Sink, opts Options) *Supervisor {
	if opts.FailureThreshold <= 0 {
		opts.FailureThreshold = 3
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Supervisor{sink: s, opts: opts}
}

// Run 并发运行所有 Task，直到 ctx 取消并且所有循环都退出
func (s *Supervisor) Run(ctx context.Context, tasks ...Task) error {
	var wg sync.WaitGroup
	for _, t := range tasks {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			s.runTask(ctx, t)
		}(t)
	}
	wg.Wait()
	return ctx.Err()
}

func (s *Supervisor) runTask(ctx context.Context, t Task) {
	log := sysutil.Log.With(zap.String("task", t.Name()))
	var wake <-chan struct{}
	if w, ok := t.(Waker); ok {
		wake = w.Wake()
	}
	h := &taskHealth{}

	// 初始化失败也按退避重试
	for {
		err := call(ctx, t.Init)
		if err == nil {
			s.succeeded(t, h)
			break
		}
		s.failed(t, h, err)
		if !sleep(ctx, h.backoff(t.Interval(), s.opts.MaxBackoff), nil) {
			return
		}
	}
	log.Info("Task started", zap.Duration("interval", t.Interval()))

	delay, woken := t.Interval(), wake
	for {
		if !sleep(ctx, delay, woken) {
			log.Info("Task stopped")
			return
		}
		if err := call(ctx, t.Tick); err != nil {
			s.failed(t, h, err)
			// 退避期间不响应 wake
			delay, woken = h.backoff(t.Interval(), s.opts.MaxBackoff), nil
			continue
		}
		s.succeeded(t, h)
		delay, woken = t.Interval(), wake
	}
}

func (s *Supervisor) failed(t Task, h *taskHealth, err error) {
	n := h.recordFailure()
	sysutil.Log.Error("Task failed",
		zap.String("task", t.Name()),
		zap.Int("consecutive", n),
		zap.Error(err))
	if n == s.opts.FailureThreshold {
		h.degraded = true
		s.record(DegradedLine(s.opts.Now(), t.Name(), n, err))
	}
}

func (s *Supervisor) succeeded(t Task, h *taskHealth) {
	if h.recordSuccess() {
		sysutil.Log.Info("Task recovered", zap.String("task", t.Name()))
		s.record(RecoveredLine(s.opts.Now(), t.Name()))
	}
}

func (s *Supervisor) record(line string) {
	if err := s.sink.Append(line); err != nil {
		sysutil.Log.Error("Failed to write supervisor line", zap.String("line", line), zap.Error(err))
	}
}

// DegradedLine 子系统连续失败达到阈值时写入的行
func DegradedLine(at time.Time, name string, failures int, err error) string {
	return fmt.Sprintf("[%s] SUBSYSTEM DEGRADED: %s (%d consecutive failures): %v", sysutil.Stamp(at), name, failures, err)
}

// RecoveredLine 子系统从 DEGRADED 恢复时写入的行
func RecoveredLine(at time.Time, name string) string {
	return fmt.Sprintf("[%s] SUBSYSTEM RECOVERED: %s", sysutil.Stamp(at), name)
}

// call 执行一次 Init/Tick，panic 转为错误
func call(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// sleep 等待 d，被 wake 提前唤醒也返回 true。ctx 取消时返回 false
func sleep(ctx context.Context, d time.Duration, wake <-chan struct{}) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	case <-wake:
		return true
	}
}
