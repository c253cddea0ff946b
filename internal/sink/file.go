package sink

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// File 以追加方式写入单个文本文件。每次调用都打开、写入、关闭，不在调用之间持有文件
type File struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string { return f.path }

func (f *File) Append(lines ...string) error {
	if len(lines) == 0 {
		return nil
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(Flatten(l))
		b.WriteByte('\n')
	}

	// 进程内用互斥锁串行化，跨进程用 flock
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if err := lockFile(file); err != nil {
		file.Close()
		return fmt.Errorf("lock log file: %w", err)
	}
	// 一次 write 写完整个块
	if _, err := file.WriteString(b.String()); err != nil {
		unlockFile(file)
		file.Close()
		return fmt.Errorf("write log file: %w", err)
	}
	unlockFile(file)
	if err := file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}
