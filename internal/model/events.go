package model

import "time"

// EventKind 设备事件类型
type EventKind string

const (
	Inserted EventKind = "INSERTED"
	Removed  EventKind = "REMOVED"
)

// DeviceEvent 一次轮询中由集合差分得到的插拔事件，只以日志行的形式落盘
type DeviceEvent struct {
	Kind     EventKind
	DeviceID string // e.g., /dev/sdb1, E:\
	Time     time.Time
}

// ProcessRow 进程快照中的一行
type ProcessRow struct {
	PID        uint32
	Name       string
	CPUPercent float64
	MemPercent float64
}
