package engine

import (
	"context"
	"errors"
	"time"

	"banana_bot/internal/config"
	"banana_bot/internal/logbus"
	"banana_bot/internal/model"
	"banana_bot/internal/notify"
	"banana_bot/internal/provider"
)

var (
	ErrBootstrap            = errors.New("bootstrap failed")
	ErrClickAborted         = errors.New("click pass aborted")
	ErrQuestListUnavailable = errors.New("quest list unavailable")
)

// Runner drives one account through the bootstrap steps and then the
// claim / speedup / lottery cycle. It owns its session; nothing else writes it.
type Runner struct {
	session  model.Session
	provider provider.Provider
	log      logbus.AccountLogger
	recorder Recorder
	notifier notify.Notifier
	policy   config.PolicyConfig
	runID    string

	sleep  func(ctx context.Context, d time.Duration) bool
	intn   func(n int) int
	now    func() time.Time
	report func(update func(*model.WorkerState))

	username string
}

func (r *Runner) Account() string { return r.session.Account }

func (r *Runner) setPhase(phase model.WorkerPhase) {
	r.update(func(st *model.WorkerState) { st.Phase = phase })
}

func (r *Runner) update(fn func(*model.WorkerState)) {
	if r.report != nil {
		r.report(fn)
	}
}

// Bootstrap fetches the baseline profile and runs the one-shot steps. Only a
// failed profile fetch is returned; later steps log their own failures.
func (r *Runner) Bootstrap(ctx context.Context) (model.Profile, error) {
	r.setPhase(model.PhaseBootstrapping)
	profile, err := r.provider.GetProfile(ctx, r.session)
	r.record(ctx, "get_profile", err)
	if err != nil {
		return model.Profile{}, errors.Join(ErrBootstrap, err)
	}
	r.username = profile.Username
	r.update(func(st *model.WorkerState) { st.Username = profile.Username })
	r.log.Info("账号信息已获取", map[string]any{
		"username":  profile.Username,
		"clicks":    profile.TodayClickCount,
		"maxClicks": profile.MaxClickCount,
		"spins":     profile.Lottery.RemainLotteryCount,
	})

	r.setPhase(model.PhaseClicking)
	if err := r.ClickPass(ctx, profile.RemainingClicks()); err != nil {
		r.log.Error("点击中止", err, nil)
	}
	if ctx.Err() != nil {
		return profile, ctx.Err()
	}

	r.setPhase(model.PhaseQuestCompleting)
	if err := r.CompleteQuests(ctx); err != nil {
		r.log.Error("任务处理失败", err, nil)
	}
	if ctx.Err() != nil {
		return profile, ctx.Err()
	}

	r.setPhase(model.PhaseQuestLotteryDraining)
	if n := r.DrainQuestLottery(ctx); n > 0 {
		r.log.Info("任务抽奖次数已领取", map[string]any{"claims": n})
	}
	return profile, ctx.Err()
}

// Loop runs cycles until ctx is done. first is the wait before the first claim.
func (r *Runner) Loop(ctx context.Context, first time.Duration) error {
	wait := first
	for {
		next, ok := r.RunCycle(ctx, wait)
		if !ok {
			return ctx.Err()
		}
		wait = next
	}
}

// RunCycle sleeps for wait, then claims, speeds up and spins. It returns the
// wait for the next cycle, or false once ctx is done.
func (r *Runner) RunCycle(ctx context.Context, wait time.Duration) (time.Duration, bool) {
	r.update(func(st *model.WorkerState) {
		st.Phase = model.PhaseScheduled
		st.NextClaimAtMs = r.now().Add(wait).UnixMilli()
	})
	r.log.Info("等待下次领取", map[string]any{"wait": wait.Round(time.Second).String()})
	if !r.sleep(ctx, wait) {
		return 0, false
	}

	r.setPhase(model.PhaseClaiming)
	r.Claim(ctx)

	r.setPhase(model.PhaseSpeedingUp)
	next, ok := r.Speedup(ctx)
	if !ok {
		next = r.policy.SpeedupFallback()
	}
	if ctx.Err() != nil {
		return 0, false
	}

	r.setPhase(model.PhaseLotterySpinning)
	r.SpinLottery(ctx)
	if ctx.Err() != nil {
		return 0, false
	}

	r.update(func(st *model.WorkerState) { st.Cycles++ })
	return next, true
}

// record keeps an action outcome in the history store. Failures to record are
// not the cycle's problem.
func (r *Runner) record(ctx context.Context, action string, err error) {
	if r.recorder == nil {
		return
	}
	rec := model.ActionRecord{
		RunID:   r.runID,
		Account: r.session.Account,
		Action:  action,
		OK:      err == nil,
		Code:    provider.RejectCode(err),
		At:      r.now(),
	}
	if err != nil {
		rec.Message = err.Error()
		r.update(func(st *model.WorkerState) { st.LastError = action + ": " + err.Error() })
	}
	if rerr := r.recorder.RecordAction(context.WithoutCancel(ctx), rec); rerr != nil {
		r.log.Debug("记录动作失败", map[string]any{"action": action, "error": rerr.Error()})
	}
}

func (r *Runner) jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	span := int((max - min) / time.Millisecond)
	return min + time.Duration(r.intn(span+1))*time.Millisecond
}

func sleepFor(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
