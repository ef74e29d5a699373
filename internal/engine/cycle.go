package engine

import (
	"context"
	"time"

	"banana_bot/internal/model"
	"banana_bot/internal/notify"
	"banana_bot/internal/provider"
)

// ClaimDelay is how long to wait before the daily claim: the time left on the
// countdown (never negative) plus pad.
func ClaimDelay(l model.LotteryInfo, now time.Time, pad time.Duration) time.Duration {
	rest := l.Remaining(now)
	if rest < 0 {
		rest = 0
	}
	return rest + pad
}

// Claim submits the daily claim. A failure is a missed cycle, nothing more.
func (r *Runner) Claim(ctx context.Context) bool {
	err := r.provider.ClaimDaily(ctx, r.session)
	r.record(ctx, "claim_lottery", err)
	if err != nil {
		r.log.Error("领取失败", err, nil)
		return false
	}
	now := r.now()
	r.update(func(st *model.WorkerState) { st.LastClaimMs = now.UnixMilli() })
	r.log.Info("领取成功", nil)
	return true
}

// Speedup skips the countdown. On success it claims the speedup ad income and
// returns the wait derived from the countdown the service now reports.
func (r *Runner) Speedup(ctx context.Context) (time.Duration, bool) {
	info, err := r.provider.Speedup(ctx, r.session)
	r.record(ctx, "do_speedup", err)
	if err != nil {
		if provider.IsRejected(err) {
			r.log.Info("当前无可用加速", map[string]any{"code": provider.RejectCode(err)})
		} else {
			r.log.Error("加速失败", err, nil)
		}
		return 0, false
	}

	rest := info.Lottery.Remaining(r.now()).Truncate(time.Second)
	if rest < 0 {
		rest = 0
	}

	income, err := r.provider.ClaimAdsIncome(ctx, r.session, model.AdsIncomeSpeedup)
	r.record(ctx, "claim_ads_income", err)
	if err != nil {
		r.log.Error("加速广告收益领取失败", err, nil)
	} else {
		r.log.Info("加速成功", map[string]any{"rest": rest.String(), "income": income.Income})
	}
	return rest + r.policy.SpeedupPad(), true
}

// SpinLottery spends every remaining spin. Each successful spin is followed by
// share and then the lottery ad income claim. Any spin error ends the pass.
func (r *Runner) SpinLottery(ctx context.Context) int {
	profile, err := r.provider.GetProfile(ctx, r.session)
	r.record(ctx, "get_profile", err)
	if err != nil {
		r.log.Error("账号信息获取失败", err, nil)
		return 0
	}
	remain := profile.Lottery.RemainLotteryCount
	if remain <= 0 {
		return 0
	}

	spins := 0
	for remain > 0 {
		prize, err := r.provider.DoLottery(ctx, r.session)
		r.record(ctx, "do_lottery", err)
		if err != nil {
			r.log.Error("抽奖失败", err, map[string]any{"left": remain})
			return spins
		}
		remain--
		spins++
		r.prize(ctx, prize)

		if !r.sleep(ctx, r.policy.SpinShareDelay()) {
			return spins
		}
		err = r.provider.Share(ctx, r.session, prize.BananaID)
		r.record(ctx, "do_share", err)
		if err != nil {
			r.log.Error("分享失败", err, map[string]any{"bananaId": prize.BananaID})
		}

		if !r.sleep(ctx, r.policy.SpinAdsDelay()) {
			return spins
		}
		_, err = r.provider.ClaimAdsIncome(ctx, r.session, model.AdsIncomeLottery)
		r.record(ctx, "claim_ads_income", err)
		if err != nil {
			r.log.Error("抽奖广告收益领取失败", err, nil)
		}

		if remain > 0 && !r.sleep(ctx, r.policy.SpinGap()) {
			return spins
		}
	}
	return spins
}

func (r *Runner) prize(ctx context.Context, p model.LotteryPrize) {
	now := r.now()
	r.log.Info("抽到香蕉", map[string]any{
		"bananaId": p.BananaID,
		"name":     p.Name,
		"ripeness": p.Ripeness,
	})
	if r.recorder != nil {
		rec := model.PrizeRecord{
			RunID:    r.runID,
			Account:  r.session.Account,
			BananaID: p.BananaID,
			Name:     p.Name,
			Ripeness: p.Ripeness,
			At:       now,
		}
		if err := r.recorder.RecordPrize(context.WithoutCancel(ctx), rec); err != nil {
			r.log.Debug("记录奖品失败", map[string]any{"error": err.Error()})
		}
	}
	if r.notifier != nil {
		r.notifier.NotifyPrize(ctx, notify.PrizeEvent{
			At:       now.UnixMilli(),
			Account:  r.session.Account,
			Username: r.username,
			BananaID: p.BananaID,
			Name:     p.Name,
			Ripeness: p.Ripeness,
		})
	}
}
