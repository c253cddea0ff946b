//go:build windows

package hostinfo

import (
	"github.com/Hara602/usbFortify/internal/model"
	"golang.org/x/sys/windows"
)

// classify 按盘符的驱动器类型判断，DRIVE_REMOVABLE 即可移动
func (h *Host) classify(d *model.Device) {
	if d.Removable() {
		return
	}
	root := d.MountPoint
	if root == "" {
		root = d.ID
	}
	p, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return
	}
	if windows.GetDriveType(p) == windows.DRIVE_REMOVABLE {
		d.Opts = append(d.Opts, model.OptRemovable)
	}
}

func (h *Host) isPartition(name string) bool { return false }
