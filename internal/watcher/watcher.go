package watcher

// BlockWatcher 监听块设备热插拔事件。事件只用来提前唤醒设备轮询，插拔结果仍以快照差分为准
type BlockWatcher interface {
	Start() (<-chan struct{}, error)
	Stop()
}

func New() BlockWatcher {
	return newWatcher()
}

// isBlockChange 判断 uevent 是否为块设备的增删
func isBlockChange(action string, env map[string]string) bool {
	if env["SUBSYSTEM"] != "block" {
		return false
	}
	if t := env["DEVTYPE"]; t != "partition" && t != "disk" {
		return false
	}
	return action == "add" || action == "remove" || action == "change"
}

// signal 非阻塞发送，多次事件合并成一次唤醒
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
