//go:build linux

package watcher

import (
	"github.com/Hara602/usbFortify/internal/sysutil"
	"github.com/pilebones/go-udev/netlink"
	"go.uber.org/zap"
)

type linuxWatcher struct {
	wake chan struct{}
	stop chan struct{}
}

func newWatcher() BlockWatcher {
	return &linuxWatcher{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
}

func (w *linuxWatcher) Start() (<-chan struct{}, error) {
	// 监听 UDEV 事件,连接 NETLINK_KOBJECT_UEVENT
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return nil, err
	}
	queue := make(chan netlink.UEvent)
	errChan := make(chan error)

	quit := conn.Monitor(queue, errChan, nil)

	go func() {
		// 确保退出时关闭连接
		defer conn.Close()

		for {
			select {
			case <-w.stop:
				// 发送退出信号给 Monitor
				close(quit)
				return

			case err := <-errChan:
				// 忽略底层网络错误，继续尝试
				sysutil.Log.Debug("udev monitor error", zap.Error(err))
				continue

			case uevent := <-queue:
				if isBlockChange(string(uevent.Action), uevent.Env) {
					sysutil.Log.Debug("udev block event",
						zap.String("action", string(uevent.Action)),
						zap.String("dev", uevent.Env["DEVNAME"]))
					signal(w.wake)
				}
			}
		}
	}()
	return w.wake, nil
}

func (w *linuxWatcher) Stop() {
	close(w.stop)
}
