//go:build linux

package hostinfo

import (
	"os"
	"path/filepath"
	"strings"
)

// USB 接口类代码
const (
	usbClassHID     = "03"
	usbClassStorage = "08"
)

// CheckBadUSB 如果一个 USB 设备树下同时拥有 08(存储) 和 03(HID) 接口，则判定为 BadUSB
func CheckBadUSB(usbRoot string) (bool, string) {
	entries, err := os.ReadDir(usbRoot)
	if err != nil {
		return false, "unknown"
	}
	hasStorage := false
	hasHID := false
	for _, e := range entries {
		// 遍历接口目录，例如 1-1:1.0
		if !strings.Contains(e.Name(), ":") {
			continue
		}
		switch readAttr(filepath.Join(usbRoot, e.Name(), "bInterfaceClass")) {
		case usbClassHID:
			hasHID = true
		case usbClassStorage:
			hasStorage = true
		}
	}
	if hasStorage && hasHID {
		return true, "BADUSB_SUSPECT"
	} else if hasStorage {
		return false, "udisk"
	}
	return false, "other"
}
