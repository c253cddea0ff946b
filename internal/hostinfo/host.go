// Package hostinfo 基于 gopsutil 读取本机的分区、I/O 计数、CPU/内存和进程表
package hostinfo

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/Hara602/usbFortify/internal/model"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// Host 本机信息采集器
type Host struct {
	// sysRoot 是 sysfs 挂载点，测试时可以替换
	sysRoot string
	now     func() time.Time

	mu    sync.Mutex
	// procs 上一次进程快照中的进程，按 pid 复用以便计算两次快照之间的 CPU%
	procs map[int32]*process.Process
}

func New() *Host {
	return &Host{sysRoot: "/sys", now: time.Now}
}

// Devices 列出所有分区，并按平台补充 removable 等选项标志
func (h *Host) Devices(ctx context.Context) ([]model.Device, error) {
	parts, err := disk.PartitionsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}
	devs := make([]model.Device, 0, len(parts))
	for _, p := range parts {
		d := model.Device{
			ID:         p.Device,
			MountPoint: p.Mountpoint,
			Fstype:     p.Fstype,
			Opts:       append([]string(nil), p.Opts...),
		}
		h.classify(&d)
		devs = append(devs, d)
	}
	return devs, nil
}

// Counters 读取累计的磁盘读写字节数和网络收发字节数
func (h *Host) Counters(ctx context.Context) (model.CounterSample, error) {
	disks, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return model.CounterSample{}, fmt.Errorf("disk io counters: %w", err)
	}
	nics, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return model.CounterSample{}, fmt.Errorf("net io counters: %w", err)
	}

	sample := model.CounterSample{TakenAt: h.now()}
	for name, c := range disks {
		// 分区的计数已经包含在整盘里
		if h.isPartition(name) {
			continue
		}
		sample.DiskBytes += c.ReadBytes + c.WriteBytes
	}
	for _, c := range nics {
		sample.NetBytes += c.BytesSent + c.BytesRecv
	}
	return sample, nil
}

// Gauges 返回当前 CPU 和内存使用率
func (h *Host) Gauges(ctx context.Context) (cpuPercent, memPercent float64, err error) {
	// interval 为 0 时与上一次调用比较
	pct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, 0, fmt.Errorf("cpu percent: %w", err)
	}
	if len(pct) > 0 {
		cpuPercent = pct[0]
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("virtual memory: %w", err)
	}
	return cpuPercent, vm.UsedPercent, nil
}

// Processes 返回进程表的惰性序列。单个进程读取失败（已退出、无权限）时产出该行的错误，由调用方决定跳过。
// CPU% 是距上一次快照的占用率，进程第一次出现时为 0
func (h *Host) Processes(ctx context.Context) (iter.Seq2[model.ProcessRow, error], error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	procs := h.track(ctx, pids)
	return func(yield func(model.ProcessRow, error) bool) {
		for _, p := range procs {
			row, err := processRow(ctx, p)
			if !yield(row, err) {
				return
			}
		}
	}, nil
}

// track 用本次的 pid 列表更新缓存。pid 被复用（创建时间不同）时换成新的进程对象
func (h *Host) track(ctx context.Context, pids []int32) []*process.Process {
	h.mu.Lock()
	defer h.mu.Unlock()

	next := make(map[int32]*process.Process, len(pids))
	out := make([]*process.Process, 0, len(pids))
	for _, pid := range pids {
		p, err := process.NewProcessWithContext(ctx, pid)
		if err != nil {
			continue
		}
		if old, ok := h.procs[pid]; ok && sameStart(ctx, old, p) {
			p = old
		}
		next[pid] = p
		out = append(out, p)
	}
	h.procs = next
	return out
}

func sameStart(ctx context.Context, a, b *process.Process) bool {
	ta, err := a.CreateTimeWithContext(ctx)
	if err != nil {
		return false
	}
	tb, err := b.CreateTimeWithContext(ctx)
	return err == nil && ta == tb
}

func processRow(ctx context.Context, p *process.Process) (model.ProcessRow, error) {
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return model.ProcessRow{}, fmt.Errorf("pid %d name: %w", p.Pid, err)
	}
	cpuPct, err := p.PercentWithContext(ctx, 0)
	if err != nil {
		return model.ProcessRow{}, fmt.Errorf("pid %d cpu: %w", p.Pid, err)
	}
	memPct, err := p.MemoryPercentWithContext(ctx)
	if err != nil {
		return model.ProcessRow{}, fmt.Errorf("pid %d memory: %w", p.Pid, err)
	}
	return model.ProcessRow{
		PID:        uint32(p.Pid),
		Name:       name,
		CPUPercent: cpuPct,
		MemPercent: float64(memPct),
	}, nil
}
