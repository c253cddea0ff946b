package procsnap

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/Hara602/usbFortify/internal/model"
	"github.com/Hara602/usbFortify/internal/sink"
)

type fakeProc struct {
	row model.ProcessRow
	err error
}

type fakeLister struct {
	procs []fakeProc
	err   error
}

func (f *fakeLister) Processes(ctx context.Context) (iter.Seq2[model.ProcessRow, error], error) {
	if f.err != nil {
		return nil, f.err
	}
	return func(yield func(model.ProcessRow, error) bool) {
		for _, p := range f.procs {
			if !yield(p.row, p.err) {
				return
			}
		}
	}, nil
}

func TestCaptureSkipsUnreadableRows(t *testing.T) {
	lister := &fakeLister{procs: []fakeProc{
		{row: model.ProcessRow{PID: 1, Name: "systemd", CPUPercent: 0.1, MemPercent: 0.2}},
		{row: model.ProcessRow{PID: 42, Name: "sshd", CPUPercent: 1, MemPercent: 0.5}},
		{err: errors.New("access denied")},
		{row: model.ProcessRow{PID: 1000, Name: "bash", MemPercent: 0.01}},
		{row: model.ProcessRow{PID: 1234, Name: "explorer.exe", CPUPercent: 12.5, MemPercent: 3.5}},
	}}
	mem := &sink.Memory{}

	if err := New(lister, mem).Capture(context.Background()); err != nil {
		t.Fatalf("Capture: %v", err)
	}

	lines := mem.Lines()
	if len(lines) != 2+4 {
		t.Fatalf("got %d lines, want 6: %q", len(lines), lines)
	}
	if lines[0] != Title || lines[1] != Header {
		t.Errorf("header = %q", lines[:2])
	}
	if want := "1         systemd             0.10      0.20"; lines[2] != want {
		t.Errorf("row = %q, want %q", lines[2], want)
	}
	if want := "1234      explorer.exe        12.50     3.50"; lines[5] != want {
		t.Errorf("row = %q, want %q", lines[5], want)
	}
	for _, l := range lines {
		if strings.Contains(l, "denied") {
			t.Errorf("unexpected line %q", l)
		}
	}
}

func TestCaptureEnumerationFailure(t *testing.T) {
	mem := &sink.Memory{}
	err := New(&fakeLister{err: errors.New("proc not mounted")}, mem).Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	lines := mem.Lines()
	if len(lines) != 2 || lines[0] != Title || lines[1] != "Process snapshot unavailable: proc not mounted" {
		t.Errorf("lines = %q", lines)
	}
}

func TestCaptureSinkFailure(t *testing.T) {
	mem := &sink.Memory{}
	mem.SetErr(errors.New("disk full"))
	err := New(&fakeLister{}, mem).Capture(context.Background())
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("err = %v, want disk full", err)
	}
}
