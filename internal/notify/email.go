package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/mail"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/gomail.v2"

	"banana_bot/internal/config"
	"banana_bot/internal/logbus"
)

// EmailNotifier batches prize events and mails one summary per window.
type EmailNotifier struct {
	cfg  config.EmailConfig
	bus  *logbus.Bus
	send func(ctx context.Context, cfg config.EmailConfig, events []PrizeEvent) error

	mu     sync.Mutex
	queue  chan PrizeEvent
	ctx    context.Context
	cancel func()
	wg     sync.WaitGroup

	summaryWindow time.Duration
	maxBatch      int
}

func NewEmailNotifier(cfg config.EmailConfig, bus *logbus.Bus) *EmailNotifier {
	ctx, cancel := context.WithCancel(context.Background())
	n := &EmailNotifier{
		cfg:           cfg,
		bus:           bus,
		send:          SendPrizeSummaryEmail,
		queue:         make(chan PrizeEvent, 200),
		ctx:           ctx,
		cancel:        cancel,
		summaryWindow: cfg.SummaryWindow(),
		maxBatch:      80,
	}
	n.wg.Add(1)
	go n.loop()
	return n
}

// Close flushes pending events and stops the loop.
func (n *EmailNotifier) Close(ctx context.Context) error {
	n.mu.Lock()
	cancel := n.cancel
	n.cancel = nil
	n.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *EmailNotifier) NotifyPrize(_ context.Context, evt PrizeEvent) {
	select {
	case n.queue <- evt:
	default:
		if n.bus != nil {
			n.bus.Log("warn", "邮件通知丢弃：队列已满", map[string]any{
				"account":  evt.Account,
				"bananaId": evt.BananaID,
			})
		}
	}
}

func (n *EmailNotifier) loop() {
	defer n.wg.Done()

	var (
		pending []PrizeEvent
		timer   *time.Timer
		timerCh <-chan time.Time
	)

	stopTimer := func() {
		if timer == nil {
			return
		}
		timer.Stop()
		timer = nil
		timerCh = nil
	}

	flush := func(reason string) {
		stopTimer()
		if len(pending) == 0 {
			return
		}
		events := append([]PrizeEvent(nil), pending...)
		pending = pending[:0]
		n.handleBatch(reason, events)
	}

	for {
		select {
		case <-n.ctx.Done():
			// drain whatever is still queued
			for {
				select {
				case evt := <-n.queue:
					pending = append(pending, evt)
					continue
				default:
				}
				break
			}
			flush("shutdown")
			return
		case evt := <-n.queue:
			pending = append(pending, evt)
			if n.maxBatch > 0 && len(pending) >= n.maxBatch {
				flush("max")
				continue
			}
			if n.summaryWindow <= 0 {
				flush("immediate")
				continue
			}
			if timer == nil {
				timer = time.NewTimer(n.summaryWindow)
				timerCh = timer.C
			}
		case <-timerCh:
			timer = nil
			timerCh = nil
			flush("window")
		}
	}
}

func (n *EmailNotifier) handleBatch(reason string, events []PrizeEvent) {
	if !n.cfg.Enabled {
		return
	}
	// 关闭时 n.ctx 已取消，发送用独立的超时
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := n.send(ctx, n.cfg, events); err != nil {
		if n.bus != nil {
			n.bus.Log("warn", "邮件发送失败", map[string]any{
				"error":  err.Error(),
				"count":  len(events),
				"reason": reason,
			})
		}
		return
	}
	if n.bus != nil {
		n.bus.Log("info", "通知邮件已发送", map[string]any{
			"count":  len(events),
			"reason": reason,
			"to":     strings.Join(n.cfg.To, ","),
		})
	}
}

func validateEmailConfig(c config.EmailConfig) error {
	if strings.TrimSpace(c.Host) == "" {
		return errors.New("smtp host is required")
	}
	if len(c.To) == 0 {
		return errors.New("recipient is required")
	}
	for _, to := range c.To {
		if _, err := mail.ParseAddress(strings.TrimSpace(to)); err != nil {
			return fmt.Errorf("invalid recipient %q", to)
		}
	}
	if strings.TrimSpace(c.From) == "" {
		return errors.New("sender is required")
	}
	return nil
}

func SendPrizeSummaryEmail(ctx context.Context, c config.EmailConfig, events []PrizeEvent) error {
	if err := validateEmailConfig(c); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(events) == 0 {
		return errors.New("no events")
	}

	htmlBody, textBody, err := buildSummaryBody(events)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(strings.TrimSpace(c.From), "Banana Bot"))
	msg.SetHeader("To", c.To...)
	msg.SetHeader("Subject", buildSummarySubject(events))
	msg.SetBody("text/plain", textBody)
	msg.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(c.Host, c.Port, strings.TrimSpace(c.Username), c.Password)
	d.SSL = c.Port == 465
	return d.DialAndSend(msg)
}

func buildSummarySubject(events []PrizeEvent) string {
	accounts := make(map[string]struct{})
	for _, e := range events {
		accounts[e.Account] = struct{}{}
	}
	return fmt.Sprintf("[Banana] %d 个香蕉 / %d 个账号", len(events), len(accounts))
}

var summaryTemplate = template.Must(template.New("summary").Parse(`<html><body>
<h3>本轮抽到的香蕉</h3>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>时间</th><th>账号</th><th>ID</th><th>名称</th><th>稀有度</th></tr>
{{range .}}<tr><td>{{.Time}}</td><td>{{.Account}}</td><td>{{.BananaID}}</td><td>{{.Name}}</td><td>{{.Ripeness}}</td></tr>
{{end}}</table>
</body></html>`))

type summaryRow struct {
	PrizeEvent
	Time string
}

func buildSummaryBody(events []PrizeEvent) (string, string, error) {
	rows := make([]summaryRow, 0, len(events))
	for _, e := range events {
		rows = append(rows, summaryRow{PrizeEvent: e, Time: time.UnixMilli(e.At).Format(time.DateTime)})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].At < rows[j].At })

	var html bytes.Buffer
	if err := summaryTemplate.Execute(&html, rows); err != nil {
		return "", "", err
	}

	var text strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&text, "%s  %s  #%d %s (%s)\n", r.Time, r.Account, r.BananaID, r.Name, r.Ripeness)
	}
	return html.String(), text.String(), nil
}
