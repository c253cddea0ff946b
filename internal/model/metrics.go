package model

import "time"

// BytesPerMB 计算 MB 使用的字节数
const BytesPerMB = 1024 * 1024

// CounterSample 一次读取到的累计 I/O 计数
type CounterSample struct {
	DiskBytes uint64 // read + write，所有磁盘之和
	NetBytes  uint64 // sent + recv，所有网卡之和
	TakenAt   time.Time
}

// MetricsRecord 一次资源采样的结果
// 速率是两次轮询之间的累计差值（MB），其含义依赖轮询间隔，并不是按秒归一化的吞吐量
type MetricsRecord struct {
	Time         time.Time
	CPUPercent   float64
	MemPercent   float64
	DiskRateMBps float64
	NetRateMBps  float64
}
