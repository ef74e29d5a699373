package model

import "time"

type LotteryInfo struct {
	CountdownEnd           bool  `json:"countdown_end"`
	CountdownInterval      int   `json:"countdown_interval"`
	LastCountdownStartTime int64 `json:"last_countdown_start_time"`
	RemainLotteryCount     int   `json:"remain_lottery_count"`
}

// CanClaimAt is the instant the server-side countdown ends.
func (l LotteryInfo) CanClaimAt() time.Time {
	return time.UnixMilli(l.LastCountdownStartTime + int64(l.CountdownInterval)*60_000)
}

// Remaining returns how long until CanClaimAt; negative when it already passed.
func (l LotteryInfo) Remaining(now time.Time) time.Duration {
	return l.CanClaimAt().Sub(now)
}

// Profile is a fresh snapshot of get_user_info. Never cache it.
type Profile struct {
	Username        string      `json:"username"`
	MaxClickCount   int         `json:"max_click_count"`
	TodayClickCount int         `json:"today_click_count"`
	Lottery         LotteryInfo `json:"lottery_info"`
}

func (p Profile) RemainingClicks() int {
	return p.MaxClickCount - p.TodayClickCount
}

type SpeedupInfo struct {
	Lottery LotteryInfo `json:"lottery_info"`
}

type LotteryPrize struct {
	BananaID int64  `json:"banana_id"`
	Name     string `json:"name"`
	Ripeness string `json:"ripeness"`
}

type AdsIncome struct {
	Income float64 `json:"income"`
}

// AdsIncomeType 广告收益领取类型。
type AdsIncomeType int

const (
	AdsIncomeClick   AdsIncomeType = 0
	AdsIncomeSpeedup AdsIncomeType = 1
	AdsIncomeLottery AdsIncomeType = 2
)
