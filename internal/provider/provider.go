package provider

import (
	"context"

	"banana_bot/internal/model"
)

type LoginResult struct {
	AccessToken string
	CookieToken string
}

// Provider exposes one method per remote action. Every method returns either
// the parsed payload, an *APIError (service code != 0) or a *TransportError.
// Retrying is left to the caller.
type Provider interface {
	Name() string

	Login(ctx context.Context, tgInfo, inviteCode string) (LoginResult, error)

	GetProfile(ctx context.Context, s model.Session) (model.Profile, error)
	Click(ctx context.Context, s model.Session, count int) error
	ClaimDaily(ctx context.Context, s model.Session) error
	ListQuests(ctx context.Context, s model.Session) (model.QuestList, error)
	AchieveQuest(ctx context.Context, s model.Session, questID int64) error
	ClaimQuest(ctx context.Context, s model.Session, questID int64) error
	DoLottery(ctx context.Context, s model.Session) (model.LotteryPrize, error)
	Share(ctx context.Context, s model.Session, bananaID int64) error
	ClaimAdsIncome(ctx context.Context, s model.Session, kind model.AdsIncomeType) (model.AdsIncome, error)
	Speedup(ctx context.Context, s model.Session) (model.SpeedupInfo, error)
	QuestLotteryStatus(ctx context.Context, s model.Session) (bool, error)
	ClaimQuestLottery(ctx context.Context, s model.Session) error
}
