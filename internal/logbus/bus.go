package logbus

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Message struct {
	Type string `json:"type"`
	Time int64  `json:"time"`
	Data any    `json:"data"`
}

type LogData struct {
	Level  string         `json:"level"`
	Msg    string         `json:"msg"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Bus keeps the last cap messages and fans new ones out to subscribers.
// Log lines are also written to the zerolog sink.
type Bus struct {
	mu     sync.RWMutex
	buf    []Message
	cap    int
	subs   map[chan Message]struct{}
	closed bool
	sink   zerolog.Logger
}

func New(capacity int, sink zerolog.Logger) *Bus {
	if capacity <= 0 {
		capacity = 200
	}
	return &Bus{
		cap:  capacity,
		buf:  make([]Message, 0, capacity),
		subs: make(map[chan Message]struct{}),
		sink: sink,
	}
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.buf = nil
}

func (b *Bus) Snapshot() []Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Message, len(b.buf))
	copy(out, b.buf)
	return out
}

func (b *Bus) Subscribe(buffer int) (<-chan Message, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Message, buffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
		b.mu.Unlock()
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if b.subs != nil {
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Bus) Publish(typ string, data any) {
	msg := Message{
		Type: typ,
		Time: time.Now().UnixMilli(),
		Data: data,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	if len(b.buf) < b.cap {
		b.buf = append(b.buf, msg)
	} else if b.cap > 0 {
		copy(b.buf, b.buf[1:])
		b.buf[b.cap-1] = msg
	}
	for ch := range b.subs {
		select {
		case ch <- msg:
		default:
		}
	}
	b.mu.Unlock()
}

func (b *Bus) Log(level, message string, fields map[string]any) {
	b.write(level, message, fields)
	b.Publish("log", LogData{Level: level, Msg: message, Fields: fields})
}

// Account returns a logger that stamps every line with the account name.
func (b *Bus) Account(name string) AccountLogger {
	return AccountLogger{bus: b, account: name}
}

func (b *Bus) write(level, message string, fields map[string]any) {
	ev := b.sink.WithLevel(ParseLevel(level))
	if ev == nil {
		return
	}
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msg(message)
}

type AccountLogger struct {
	bus     *Bus
	account string
}

func (l AccountLogger) Log(level, message string, fields map[string]any) {
	if l.bus == nil {
		return
	}
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["account"] = l.account
	l.bus.Log(level, message, out)
}

func (l AccountLogger) Info(message string, fields map[string]any) { l.Log("info", message, fields) }
func (l AccountLogger) Warn(message string, fields map[string]any) { l.Log("warn", message, fields) }
func (l AccountLogger) Debug(message string, fields map[string]any) {
	l.Log("debug", message, fields)
}

// Error logs err under the "error" field.
func (l AccountLogger) Error(message string, err error, fields map[string]any) {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	if err != nil {
		out["error"] = err.Error()
	}
	l.Log("error", message, out)
}
