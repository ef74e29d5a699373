package engine

import (
	"context"

	"golang.org/x/time/rate"

	"banana_bot/internal/config"
	"banana_bot/internal/model"
	"banana_bot/internal/provider"
)

func newLimiter(limits config.LimitsConfig) *rate.Limiter {
	if limits.GlobalQPS <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := limits.GlobalBurst
	if burst <= 0 {
		burst = 10
	}
	return rate.NewLimiter(rate.Limit(limits.GlobalQPS), burst)
}

// limitedProvider waits on the shared limiter before every remote call so
// all accounts together stay under the global QPS.
type limitedProvider struct {
	next    provider.Provider
	limiter *rate.Limiter
}

func (p *limitedProvider) wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

func (p *limitedProvider) Name() string { return p.next.Name() }

func (p *limitedProvider) Login(ctx context.Context, tgInfo, inviteCode string) (provider.LoginResult, error) {
	if err := p.wait(ctx); err != nil {
		return provider.LoginResult{}, err
	}
	return p.next.Login(ctx, tgInfo, inviteCode)
}

func (p *limitedProvider) GetProfile(ctx context.Context, s model.Session) (model.Profile, error) {
	if err := p.wait(ctx); err != nil {
		return model.Profile{}, err
	}
	return p.next.GetProfile(ctx, s)
}

func (p *limitedProvider) Click(ctx context.Context, s model.Session, count int) error {
	if err := p.wait(ctx); err != nil {
		return err
	}
	return p.next.Click(ctx, s, count)
}

func (p *limitedProvider) ClaimDaily(ctx context.Context, s model.Session) error {
	if err := p.wait(ctx); err != nil {
		return err
	}
	return p.next.ClaimDaily(ctx, s)
}

func (p *limitedProvider) ListQuests(ctx context.Context, s model.Session) (model.QuestList, error) {
	if err := p.wait(ctx); err != nil {
		return model.QuestList{}, err
	}
	return p.next.ListQuests(ctx, s)
}

func (p *limitedProvider) AchieveQuest(ctx context.Context, s model.Session, questID int64) error {
	if err := p.wait(ctx); err != nil {
		return err
	}
	return p.next.AchieveQuest(ctx, s, questID)
}

func (p *limitedProvider) ClaimQuest(ctx context.Context, s model.Session, questID int64) error {
	if err := p.wait(ctx); err != nil {
		return err
	}
	return p.next.ClaimQuest(ctx, s, questID)
}

func (p *limitedProvider) DoLottery(ctx context.Context, s model.Session) (model.LotteryPrize, error) {
	if err := p.wait(ctx); err != nil {
		return model.LotteryPrize{}, err
	}
	return p.next.DoLottery(ctx, s)
}

func (p *limitedProvider) Share(ctx context.Context, s model.Session, bananaID int64) error {
	if err := p.wait(ctx); err != nil {
		return err
	}
	return p.next.Share(ctx, s, bananaID)
}

func (p *limitedProvider) ClaimAdsIncome(ctx context.Context, s model.Session, kind model.AdsIncomeType) (model.AdsIncome, error) {
	if err := p.wait(ctx); err != nil {
		return model.AdsIncome{}, err
	}
	return p.next.ClaimAdsIncome(ctx, s, kind)
}

func (p *limitedProvider) Speedup(ctx context.Context, s model.Session) (model.SpeedupInfo, error) {
	if err := p.wait(ctx); err != nil {
		return model.SpeedupInfo{}, err
	}
	return p.next.Speedup(ctx, s)
}

func (p *limitedProvider) QuestLotteryStatus(ctx context.Context, s model.Session) (bool, error) {
	if err := p.wait(ctx); err != nil {
		return false, err
	}
	return p.next.QuestLotteryStatus(ctx, s)
}

func (p *limitedProvider) ClaimQuestLottery(ctx context.Context, s model.Session) error {
	if err := p.wait(ctx); err != nil {
		return err
	}
	return p.next.ClaimQuestLottery(ctx, s)
}
