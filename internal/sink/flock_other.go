//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package sink

import "os"

// 其他平台只依赖进程内互斥锁和 O_APPEND
func lockFile(f *os.File) error { return nil }

func unlockFile(f *os.File) {}
