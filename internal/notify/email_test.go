package notify

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"banana_bot/internal/config"
	"banana_bot/internal/logbus"
)

func TestBuildSummaryBody(t *testing.T) {
	events := []PrizeEvent{
		{At: 2000, Account: "bob", BananaID: 2, Name: "Gold <b>", Ripeness: "Rare"},
		{At: 1000, Account: "alice", BananaID: 1, Name: "Green", Ripeness: "Common"},
	}
	html, text, err := buildSummaryBody(events)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, "Gold <b>") {
		t.Error("html body must escape prize names")
	}
	if strings.Index(text, "alice") > strings.Index(text, "bob") {
		t.Errorf("rows should be sorted by time:\n%s", text)
	}
	if got := buildSummarySubject(events); !strings.Contains(got, "2 个香蕉 / 2 个账号") {
		t.Errorf("subject %q", got)
	}
}

func TestValidateEmailConfig(t *testing.T) {
	ok := config.EmailConfig{Host: "smtp.example.com", Port: 465, From: "bot@example.com", To: []string{"me@example.com"}}
	if err := validateEmailConfig(ok); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	bad := ok
	bad.To = []string{"not an address"}
	if err := validateEmailConfig(bad); err == nil {
		t.Error("invalid recipient accepted")
	}
}

func TestEmailNotifier_FlushOnClose(t *testing.T) {
	var mu sync.Mutex
	var batches [][]PrizeEvent

	cfg := config.EmailConfig{Enabled: true, SummaryWindowSec: 3600}
	n := NewEmailNotifier(cfg, logbus.New(10, zerolog.Nop()))
	n.send = func(_ context.Context, _ config.EmailConfig, events []PrizeEvent) error {
		mu.Lock()
		batches = append(batches, events)
		mu.Unlock()
		return nil
	}

	n.NotifyPrize(context.Background(), PrizeEvent{Account: "alice", BananaID: 1})
	n.NotifyPrize(context.Background(), PrizeEvent{Account: "alice", BananaID: 2})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.Close(ctx); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	total := 0
	for _, b := range batches {
		total += len(b)
	}
	if total != 2 {
		t.Fatalf("expected 2 events delivered, got %d in %d batches", total, len(batches))
	}
}
