//go:build !linux

package watcher

type noopWatcher struct{}

func newWatcher() BlockWatcher { return &noopWatcher{} }

// Start 返回 nil 通道，select 时永远不会触发
func (w *noopWatcher) Start() (<-chan struct{}, error) { return nil, nil }
func (w *noopWatcher) Stop()                           {}
