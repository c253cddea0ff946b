package procsnap

import (
	"context"
	"fmt"
	"iter"

	"github.com/Hara602/usbFortify/internal/model"
	"github.com/Hara602/usbFortify/internal/sink"
	"github.com/Hara602/usbFortify/internal/sysutil"
	"go.uber.org/zap"
)

const (
	Title  = "Process Snapshot"
	Header = "PID        NAME                CPU%      MEM%"
)

// Lister 进程表采集接口。外层错误表示整个枚举失败，序列中的错误只影响单行
type Lister interface {
	Processes(ctx context.Context) (iter.Seq2[model.ProcessRow, error], error)
}

// Snapshotter 设备事件发生时把当前进程表写入日志
type Snapshotter struct {
	lister Lister
	sink   sink.Sink
}

func New(lister Lister, s sink.Sink) *Snapshotter {
	return &Snapshotter{lister: lister, sink: s}
}

// Capture 同步采集并写入一个完整的快照块。只返回写日志失败的错误
func (s *Snapshotter) Capture(ctx context.Context) error {
	seq, err := s.lister.Processes(ctx)
	if err != nil {
		sysutil.Log.Warn("Process enumeration failed", zap.Error(err))
		return s.sink.Append(Title, "Process snapshot unavailable: "+err.Error())
	}

	lines := []string{Title, Header}
	skipped := 0
	for row, err := range seq {
		if err != nil {
			// 进程已退出或无权限，跳过这一行
			skipped++
			continue
		}
		lines = append(lines, FormatRow(row))
	}
	if skipped > 0 {
		sysutil.Log.Debug("Skipped unreadable processes", zap.Int("count", skipped))
	}
	return s.sink.Append(lines...)
}

// FormatRow 按固定列宽格式化一行
func FormatRow(r model.ProcessRow) string {
	return fmt.Sprintf("%-10d%-20s%-10.2f%.2f", r.PID, r.Name, r.CPUPercent, r.MemPercent)
}
