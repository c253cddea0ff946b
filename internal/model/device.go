package model

import (
	"sort"
	"strings"
)

// 设备选项标志
const (
	OptRemovable     = "removable"
	OptUSB           = "usb"
	OptBadUSBSuspect = "badusb-suspect"
)

// Device 设备枚举返回的一行（卷/分区）
type Device struct {
	ID         string // e.g., /dev/sdb1
	MountPoint string // e.g., /media/usb
	Fstype     string
	Opts       []string
}

// HasOpt 判断是否带有某个选项标志（忽略大小写）
func (d Device) HasOpt(opt string) bool {
	for _, o := range d.Opts {
		if strings.EqualFold(strings.TrimSpace(o), opt) {
			return true
		}
	}
	return false
}

// Removable 是否为可移动设备
func (d Device) Removable() bool { return d.HasOpt(OptRemovable) }

// DeviceSet 当前已连接的可移动设备集合
type DeviceSet map[string]struct{}

// RemovableSet 从枚举结果中筛出可移动设备
func RemovableSet(devs []Device) DeviceSet {
	set := make(DeviceSet, len(devs))
	for _, d := range devs {
		if d.ID != "" && d.Removable() {
			set[d.ID] = struct{}{}
		}
	}
	return set
}

func (s DeviceSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Minus 返回 s - other，按字典序排序
func (s DeviceSet) Minus(other DeviceSet) []string {
	var out []string
	for id := range s {
		if !other.Has(id) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Sorted 返回排序后的设备列表
func (s DeviceSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
