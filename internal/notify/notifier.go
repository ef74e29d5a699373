package notify

import "context"

type PrizeEvent struct {
	At       int64  `json:"atMs"`
	Account  string `json:"account"`
	Username string `json:"username,omitempty"`
	BananaID int64  `json:"bananaId"`
	Name     string `json:"name"`
	Ripeness string `json:"ripeness"`
}

type Notifier interface {
	NotifyPrize(ctx context.Context, evt PrizeEvent)
}
