package logbus

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestBus_RingBuffer(t *testing.T) {
	b := New(3, zerolog.Nop())
	for i := 0; i < 5; i++ {
		b.Publish("n", i)
	}
	snap := b.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(snap))
	}
	if snap[0].Data != 2 || snap[2].Data != 4 {
		t.Errorf("unexpected window: %v %v", snap[0].Data, snap[2].Data)
	}
}

func TestBus_SubscribeAndCancel(t *testing.T) {
	b := New(10, zerolog.Nop())
	ch, cancel := b.Subscribe(4)
	b.Log("info", "hello", nil)

	msg := <-ch
	if msg.Type != "log" {
		t.Fatalf("unexpected type %q", msg.Type)
	}
	if ld, ok := msg.Data.(LogData); !ok || ld.Msg != "hello" {
		t.Fatalf("unexpected data %#v", msg.Data)
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after cancel")
	}
	cancel()
}

func TestAccountLogger_StampsAccount(t *testing.T) {
	var out bytes.Buffer
	b := New(10, zerolog.New(&out))
	b.Account("alice").Error("claim failed", errTest("boom"), map[string]any{"step": "claim"})

	line := out.String()
	for _, want := range []string{`"account":"alice"`, `"error":"boom"`, `"step":"claim"`, `"level":"error"`} {
		if !strings.Contains(line, want) {
			t.Errorf("missing %s in %s", want, line)
		}
	}
	snap := b.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 message, got %d", len(snap))
	}
	if snap[0].Data.(LogData).Fields["account"] != "alice" {
		t.Errorf("bus message missing account: %#v", snap[0].Data)
	}
}

func TestBus_SinkLevelFilter(t *testing.T) {
	var out bytes.Buffer
	b := New(10, zerolog.New(&out).Level(zerolog.WarnLevel))
	b.Log("debug", "quiet", nil)
	if out.Len() != 0 {
		t.Errorf("debug line should be filtered, got %s", out.String())
	}
	if len(b.Snapshot()) != 1 {
		t.Error("bus should still keep filtered lines")
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
