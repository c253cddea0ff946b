//go:build !linux && !windows

package hostinfo

import "github.com/Hara602/usbFortify/internal/model"

// 其他平台直接使用系统给出的选项标志
func (h *Host) classify(d *model.Device) {}

func (h *Host) isPartition(name string) bool { return false }
