package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Hara602/usbFortify/internal/sink"
	"github.com/Hara602/usbFortify/internal/sysutil"
	"go.uber.org/zap"
)

const (
	Subject    = "USB Device Inserted Alert"
	SentLine   = "Email alert sent successfully"
	FailPrefix = "Email failed to send: "
)

var ErrNotConfigured = errors.New("notification channel not configured")

// Message 一封告警邮件
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Channel 外部通知通道，失败时返回错误
type Channel interface {
	Send(ctx context.Context, msg Message) error
}

// Result 通知结果，仅供调用方参考，调用方不需要处理
type Result struct {
	Sent   bool
	Reason string
}

// Notifier 设备插入时发送告警。失败只记日志，不重试，也不向调用方抛出
type Notifier struct {
	channel Channel
	sink    sink.Sink
	from    string
	to      string
	now     func() time.Time
}

// New channel 为 nil 时每次通知都记为失败
func New(channel Channel, s sink.Sink, from, to string) *Notifier {
	return &Notifier{channel: channel, sink: s, from: from, to: to, now: time.Now}
}

// WithClock 替换时钟，测试用
func (n *Notifier) WithClock(now func() time.Time) *Notifier {
	n.now = now
	return n
}

// Body 告警邮件正文
func Body(deviceID string, at time.Time) string {
	return fmt.Sprintf("\nA USB device was inserted.\n\nDevice: %s\nTime  : %s\n", deviceID, sysutil.Stamp(at))
}

func (n *Notifier) Notify(ctx context.Context, deviceID string) (res Result) {
	msg := Message{
		From:    n.from,
		To:      n.to,
		Subject: Subject,
		Body:    Body(deviceID, n.now()),
	}

	err := n.send(ctx, msg)
	if err == nil {
		res = Result{Sent: true}
		n.record(SentLine)
		sysutil.Log.Info("📧 Alert sent", zap.String("device", deviceID), zap.String("to", n.to))
		return res
	}

	res = Result{Reason: err.Error()}
	n.record(FailPrefix + err.Error())
	sysutil.Log.Error("Alert failed", zap.String("device", deviceID), zap.Error(err))
	return res
}

// send 通道的 panic 也按失败处理，不能让通知拖垮轮询循环
func (n *Notifier) send(ctx context.Context, msg Message) (err error) {
	if n.channel == nil {
		return ErrNotConfigured
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("channel panic: %v", r)
		}
	}()
	return n.channel.Send(ctx, msg)
}

func (n *Notifier) record(line string) {
	if err := n.sink.Append(line); err != nil {
		sysutil.Log.Error("Failed to write notification result", zap.Error(err))
	}
}
