package model

import "time"

// ActionRecord is one remote action outcome kept in the run history.
type ActionRecord struct {
	ID      string    `json:"id"`
	RunID   string    `json:"runId"`
	Account string    `json:"account"`
	Action  string    `json:"action"`
	OK      bool      `json:"ok"`
	Code    int       `json:"code,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

type PrizeRecord struct {
	ID       string    `json:"id"`
	RunID    string    `json:"runId"`
	Account  string    `json:"account"`
	BananaID int64     `json:"bananaId"`
	Name     string    `json:"name"`
	Ripeness string    `json:"ripeness"`
	At       time.Time `json:"at"`
}
