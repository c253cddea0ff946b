//go:build linux

package hostinfo

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Hara602/usbFortify/internal/model"
)

// classify 通过 /sys/class/block/{name} 回溯判断分区是否可移动
// 整盘的 removable 属性为 1，或者挂在 USB 总线上（向上能找到 idVendor），都视为可移动
func (h *Host) classify(d *model.Device) {
	// 只关心 /dev/ 开头的设备，且不是 loop 设备
	if !strings.HasPrefix(d.ID, "/dev/") || strings.HasPrefix(d.ID, "/dev/loop") {
		return
	}
	if d.Removable() {
		return
	}

	sysPath := filepath.Join(h.sysRoot, "class", "block", filepath.Base(d.ID))
	realSysPath, err := filepath.EvalSymlinks(sysPath)
	if err != nil {
		return
	}

	removable := readAttr(filepath.Join(diskDir(realSysPath), "removable")) == "1"

	if usbRoot, ok := findUSBRoot(realSysPath, h.sysRoot); ok {
		d.Opts = append(d.Opts, model.OptUSB)
		removable = true
		if isBad, _ := CheckBadUSB(usbRoot); isBad {
			d.Opts = append(d.Opts, model.OptBadUSBSuspect)
		}
	}
	if removable {
		d.Opts = append(d.Opts, model.OptRemovable)
	}
}

// isPartition 分区目录下有 partition 文件
func (h *Host) isPartition(name string) bool {
	_, err := os.Stat(filepath.Join(h.sysRoot, "class", "block", name, "partition"))
	return err == nil
}

// diskDir 分区返回其所属的整盘目录，整盘返回自身
func diskDir(blockPath string) string {
	if _, err := os.Stat(filepath.Join(blockPath, "partition")); err == nil {
		return filepath.Dir(blockPath)
	}
	return blockPath
}

// findUSBRoot 向上查找包含 idVendor 的目录（即 USB Device 根目录），不越过 sysRoot
func findUSBRoot(path, sysRoot string) (string, bool) {
	dir := path
	// 向上回溯最多 12 层，通常 USB 设备在 sysfs 树的上层
	for i := 0; i < 12; i++ {
		dir = filepath.Dir(dir)
		if dir == "/" || dir == "." || !strings.HasPrefix(dir, sysRoot) || dir == sysRoot {
			break
		}
		if _, err := os.Stat(filepath.Join(dir, "idVendor")); err == nil {
			return dir, true
		}
	}
	return "", false
}

func readAttr(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(b))
}
