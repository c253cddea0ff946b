package sink

import (
	"strings"
	"sync"

	"github.com/Hara602/usbFortify/internal/sysutil"
	"go.uber.org/zap"
)

// Sink 只追加的行日志。一次 Append 的所有行作为一个整体写入，不会与其他调用交错
type Sink interface {
	Append(lines ...string) error
}

// Memory 内存中的 Sink，测试用
type Memory struct {
	mu    sync.Mutex
	lines []string
	Err   error // 非 nil 时 Append 直接返回该错误
}

func (m *Memory) Append(lines ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, l := range lines {
		m.lines = append(m.lines, Flatten(l))
	}
	return nil
}

// Lines 返回已写入行的副本
func (m *Memory) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.lines))
	copy(out, m.lines)
	return out
}

// SetErr 之后的 Append 都返回 err，传 nil 恢复
func (m *Memory) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Flatten 去掉结尾换行，内部的换行替换为空格，保证一条记录只占一行。
// 多行的 SMTP 应答等错误文本会原样出现在日志里
func Flatten(line string) string {
	return lineBreaks.Replace(strings.TrimRight(line, "\r\n"))
}

type multi struct {
	primary Sink
	mirrors []Sink
}

// Multi 主 Sink 加若干副本。只有主 Sink 的错误会返回；主 Sink 写入成功后才写副本，
// 副本失败只记录日志
func Multi(primary Sink, mirrors ...Sink) Sink {
	if len(mirrors) == 0 {
		return primary
	}
	return &multi{primary: primary, mirrors: mirrors}
}

func (m *multi) Append(lines ...string) error {
	if err := m.primary.Append(lines...); err != nil {
		return err
	}
	for _, s := range m.mirrors {
		if err := s.Append(lines...); err != nil {
			sysutil.Log.Warn("Mirror sink write failed", zap.Int("lines", len(lines)), zap.Error(err))
		}
	}
	return nil
}
