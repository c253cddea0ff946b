package sysutil

import "time"

// StampLayout 是日志文件里使用的时间格式
const StampLayout = "2006-01-02 15:04:05"

// Stamp 格式化时间戳，例如 2026-01-02 15:04:05
func Stamp(t time.Time) string {
	return t.Format(StampLayout)
}
