package notify

import (
	"context"
	"errors"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Hara602/usbFortify/internal/sink"
)

type fakeChannel struct {
	err   error
	panic bool
	sent  []Message
}

func (f *fakeChannel) Send(ctx context.Context, msg Message) error {
	if f.panic {
		panic("boom")
	}
	f.sent = append(f.sent, msg)
	return f.err
}

var fixed = time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local)

func TestNotifySuccess(t *testing.T) {
	ch := &fakeChannel{}
	mem := &sink.Memory{}
	n := New(ch, mem, "monitor@example.com", "admin@example.com").WithClock(func() time.Time { return fixed })

	res := n.Notify(context.Background(), "/dev/sdb1")
	if !res.Sent || res.Reason != "" {
		t.Errorf("res = %+v, want sent", res)
	}
	if len(ch.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(ch.sent))
	}
	msg := ch.sent[0]
	if msg.Subject != Subject || msg.From != "monitor@example.com" || msg.To != "admin@example.com" {
		t.Errorf("msg = %+v", msg)
	}
	if !strings.Contains(msg.Body, "Device: /dev/sdb1") || !strings.Contains(msg.Body, "Time  : 2026-03-04 05:06:07") {
		t.Errorf("body = %q", msg.Body)
	}
	if got := mem.Lines(); len(got) != 1 || got[0] != SentLine {
		t.Errorf("lines = %q, want [%q]", got, SentLine)
	}
}

func TestNotifyFailureIsLoggedNotPropagated(t *testing.T) {
	tests := []struct {
		name    string
		channel Channel
		reason  string
	}{
		{"send error", &fakeChannel{err: errors.New("535 authentication failed")}, "535 authentication failed"},
		{"panic", &fakeChannel{panic: true}, "channel panic: boom"},
		{"not configured", nil, ErrNotConfigured.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := &sink.Memory{}
			res := New(tt.channel, mem, "a", "b").Notify(context.Background(), `E:\`)
			if res.Sent || res.Reason != tt.reason {
				t.Errorf("res = %+v, want reason %q", res, tt.reason)
			}
			want := FailPrefix + tt.reason
			if got := mem.Lines(); len(got) != 1 || got[0] != want {
				t.Errorf("lines = %q, want [%q]", got, want)
			}
		})
	}
}

func TestNotifySinkFailureDoesNotPanic(t *testing.T) {
	mem := &sink.Memory{}
	mem.SetErr(errors.New("read-only file system"))
	res := New(&fakeChannel{}, mem, "a", "b").Notify(context.Background(), "/dev/sdc1")
	if !res.Sent {
		t.Errorf("res = %+v, want sent", res)
	}
}

// 服务器的多行拒绝应答在日志里仍是一条记录
func TestNotifyMultilineReplyStaysOneLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system_monitor.log")
	reply := &textproto.Error{Code: 535, Msg: "5.7.8 Username and Password not accepted.\n5.7.8 https://support.google.com/mail/?p=BadCredentials"}

	res := New(&fakeChannel{err: reply}, sink.NewFile(path), "a", "b").Notify(context.Background(), "/dev/sdb1")
	if res.Sent {
		t.Fatalf("res = %+v, want failure", res)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := FailPrefix + "535 5.7.8 Username and Password not accepted. 5.7.8 https://support.google.com/mail/?p=BadCredentials\n"
	if string(data) != want {
		t.Errorf("log = %q, want %q", data, want)
	}
}
