package sink

import (
	"errors"
	"fmt"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Hara602/usbFortify/internal/sysutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func TestFileAppendCreatesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system_monitor.log")
	f := NewFile(path)

	if err := f.Append("Monitor started at 2026-01-01 00:00:00"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := f.Append("a", "b\n", ""); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := f.Append(); err != nil {
		t.Fatalf("empty Append: %v", err)
	}

	got := readLines(t, path)
	want := []string{"Monitor started at 2026-01-01 00:00:00", "a", "b", ""}
	if len(got) != len(want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFileAppendDoesNotHoldFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "system_monitor.log")
	f := NewFile(path)

	if err := f.Append("first"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	// 外部把文件移走，下一次写入应该重新创建
	if err := os.Rename(path, filepath.Join(dir, "moved.log")); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := f.Append("second"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := readLines(t, path); len(got) != 1 || got[0] != "second" {
		t.Errorf("lines = %q, want [second]", got)
	}
}

func TestFileAppendError(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "missing", "x.log"))
	if err := f.Append("line"); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestFileConcurrentWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system_monitor.log")
	f := NewFile(path)

	const n, m = 200, 150
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			if err := f.Append(fmt.Sprintf("usb-%04d %s", i, strings.Repeat("u", 64))); err != nil {
				t.Errorf("Append: %v", err)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < m; i++ {
			if err := f.Append(fmt.Sprintf("res-%04d %s", i, strings.Repeat("r", 64))); err != nil {
				t.Errorf("Append: %v", err)
			}
		}
	}()
	wg.Wait()

	lines := readLines(t, path)
	if len(lines) != n+m {
		t.Fatalf("got %d lines, want %d", len(lines), n+m)
	}
	var usb, res int
	for _, l := range lines {
		switch {
		case strings.HasPrefix(l, "usb-") && strings.HasSuffix(l, strings.Repeat("u", 64)) && len(l) == 73:
			usb++
		case strings.HasPrefix(l, "res-") && strings.HasSuffix(l, strings.Repeat("r", 64)) && len(l) == 73:
			res++
		default:
			t.Errorf("malformed line %q", l)
		}
	}
	if usb != n || res != m {
		t.Errorf("usb=%d res=%d, want %d and %d", usb, res, n, m)
	}
}

func TestFileBlocksAreContiguous(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system_monitor.log")
	f := NewFile(path)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				tag := fmt.Sprintf("w%d-%d", w, i)
				if err := f.Append(tag+" begin", tag+" middle", tag+" end"); err != nil {
					t.Errorf("Append: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	lines := readLines(t, path)
	if len(lines) != 4*25*3 {
		t.Fatalf("got %d lines, want %d", len(lines), 4*25*3)
	}
	for i := 0; i < len(lines); i += 3 {
		tag := strings.Fields(lines[i])[0]
		if lines[i+1] != tag+" middle" || lines[i+2] != tag+" end" {
			t.Errorf("block at %d interleaved: %q", i, lines[i:i+3])
		}
	}
}

// 多行的 SMTP 应答拼进日志后仍然只占一行
func TestFileAppendFlattensEmbeddedNewlines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system_monitor.log")
	f := NewFile(path)

	reply := &textproto.Error{Code: 535, Msg: "5.7.8 Username and Password not accepted.\n5.7.8 https://support.google.com/mail/?p=BadCredentials"}
	if err := f.Append("Email failed to send: "+reply.Error(), "crlf\r\ninside\r\n"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	want := []string{
		"Email failed to send: 535 5.7.8 Username and Password not accepted. 5.7.8 https://support.google.com/mail/?p=BadCredentials",
		"crlf inside",
	}
	got := readLines(t, path)
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("lines = %q, want %q", got, want)
	}
}

func TestMulti(t *testing.T) {
	prev := sysutil.Log
	defer sysutil.SetLogger(prev)
	core, logs := observer.New(zap.WarnLevel)
	sysutil.SetLogger(zap.New(core))

	primary, mirror := &Memory{}, &Memory{}
	mirror.SetErr(errors.New("database is locked"))
	s := Multi(primary, mirror)

	if err := s.Append("x", "y"); err != nil {
		t.Errorf("mirror failure returned %v, want nil", err)
	}
	if got := primary.Lines(); len(got) != 2 {
		t.Errorf("primary.Lines() = %q, want 2 lines", got)
	}
	if logs.FilterMessage("Mirror sink write failed").Len() != 1 {
		t.Errorf("mirror failure not logged: %v", logs.All())
	}

	// 主 Sink 失败时返回错误，副本不写，避免重试时副本重复
	mirror.SetErr(nil)
	primary.SetErr(errors.New("disk full"))
	if err := s.Append("z"); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("err = %v, want disk full", err)
	}
	if got := mirror.Lines(); len(got) != 0 {
		t.Errorf("mirror.Lines() = %q, want none", got)
	}

	if Multi(primary) != Sink(primary) {
		t.Error("Multi with no mirrors should return the primary unchanged")
	}
}
