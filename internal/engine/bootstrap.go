package engine

import (
	"context"
	"errors"
	"fmt"

	"banana_bot/internal/model"
	"banana_bot/internal/provider"
)

// clickBatch returns remaining when it is small, otherwise a random size in [min, remaining).
func clickBatch(remaining, min int, intn func(int) int) int {
	if min <= 0 {
		min = 1
	}
	if remaining <= min {
		return remaining
	}
	return min + intn(remaining-min)
}

// ClickPass submits click batches until remaining reaches zero, then claims
// the click ad income once. Rejected batches are not counted and the pass goes
// on; transport failures abort it.
func (r *Runner) ClickPass(ctx context.Context, remaining int) error {
	rejections := 0
	for remaining > 0 {
		batch := clickBatch(remaining, r.policy.ClickBatchMin, r.intn)
		err := r.provider.Click(ctx, r.session, batch)
		r.record(ctx, "click", err)
		switch {
		case err == nil:
			remaining -= batch
			rejections = 0
			r.log.Debug("点击成功", map[string]any{"batch": batch, "remaining": remaining})
		case provider.IsRejected(err):
			rejections++
			r.log.Warn("点击被拒绝", map[string]any{"batch": batch, "code": provider.RejectCode(err)})
			if r.policy.MaxClickRejections > 0 && rejections >= r.policy.MaxClickRejections {
				return fmt.Errorf("%w: %d consecutive rejections", ErrClickAborted, rejections)
			}
		default:
			return fmt.Errorf("%w: %w", ErrClickAborted, err)
		}
		if remaining <= 0 {
			break
		}
		if !r.sleep(ctx, r.jitter(r.policy.ClickDelayMin(), r.policy.ClickDelayMax())) {
			return ctx.Err()
		}
	}

	income, err := r.provider.ClaimAdsIncome(ctx, r.session, model.AdsIncomeClick)
	r.record(ctx, "claim_ads_income", err)
	if err != nil {
		r.log.Error("点击广告收益领取失败", err, nil)
		return nil
	}
	r.log.Info("点击完成", map[string]any{"income": income.Income})
	return nil
}

// CompleteQuests achieves then claims every pending quest that needs no human
// action. Every pending quest, skipped or not, is followed by the quest gap.
// One quest failing does not stop the others.
func (r *Runner) CompleteQuests(ctx context.Context) error {
	list, err := r.provider.ListQuests(ctx, r.session)
	r.record(ctx, "get_quest_list", err)
	if err != nil {
		return errors.Join(ErrQuestListUnavailable, err)
	}

	for _, q := range list.Quests {
		if !q.Pending() {
			continue
		}
		if q.Type.AutoCompletable() {
			r.completeQuest(ctx, q)
		} else {
			r.log.Debug("跳过需要人工完成的任务", map[string]any{"questId": q.ID, "type": string(q.Type)})
		}
		if !r.sleep(ctx, r.policy.QuestGap()) {
			return ctx.Err()
		}
	}
	return nil
}

func (r *Runner) completeQuest(ctx context.Context, q model.Quest) {
	fields := map[string]any{"questId": q.ID, "name": q.Name, "type": string(q.Type)}
	err := r.provider.AchieveQuest(ctx, r.session, q.ID)
	r.record(ctx, "achieve_quest", err)
	if err != nil {
		r.log.Error("任务完成失败", err, fields)
		return
	}
	if !r.sleep(ctx, r.policy.AchieveClaimGap()) {
		return
	}
	err = r.provider.ClaimQuest(ctx, r.session, q.ID)
	r.record(ctx, "claim_quest", err)
	if err != nil {
		r.log.Error("任务奖励领取失败", err, fields)
		return
	}
	r.log.Info("任务已完成", fields)
}

// DrainQuestLottery claims quest lottery rewards while the service reports one
// is available. It returns the number of claims made.
func (r *Runner) DrainQuestLottery(ctx context.Context) int {
	claims := 0
	for claims < r.policy.MaxQuestLotteryClaims {
		available, err := r.provider.QuestLotteryStatus(ctx, r.session)
		if err != nil {
			r.record(ctx, "quest_lottery_status", err)
			r.log.Error("任务抽奖状态查询失败", err, nil)
			return claims
		}
		if !available {
			return claims
		}
		err = r.provider.ClaimQuestLottery(ctx, r.session)
		r.record(ctx, "claim_quest_lottery", err)
		if err != nil {
			r.log.Error("任务抽奖领取失败", err, nil)
			return claims
		}
		claims++
		if !r.sleep(ctx, r.policy.QuestLotteryGap()) {
			return claims
		}
	}
	return claims
}
