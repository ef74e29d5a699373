package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"banana_bot/internal/config"
	"banana_bot/internal/model"
	"banana_bot/internal/provider"
)

// fakeProvider records every call as "name" or "name:arg" and answers from
// per-account scripts.
type fakeProvider struct {
	mu    sync.Mutex
	calls []string

	profiles      map[string][]model.Profile
	profileErr    map[string]error
	clickErrs     []error
	quests        model.QuestList
	questsErr     error
	achieveErr    map[int64]error
	lotteryStatus []bool
	statusErr     error
	prizes        []model.LotteryPrize
	speedup       model.SpeedupInfo
	speedupErr    error
	loginResult   provider.LoginResult
	loginErr      error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		profiles:   make(map[string][]model.Profile),
		profileErr: make(map[string]error),
		achieveErr: make(map[int64]error),
	}
}

func (f *fakeProvider) call(name string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(args) > 0 {
		name = fmt.Sprintf("%s:%v", name, args[0])
	}
	f.calls = append(f.calls, name)
}

func (f *fakeProvider) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Login(_ context.Context, tgInfo, inviteCode string) (provider.LoginResult, error) {
	f.call("login", tgInfo)
	return f.loginResult, f.loginErr
}

func (f *fakeProvider) GetProfile(_ context.Context, s model.Session) (model.Profile, error) {
	f.call("get_profile", s.Account)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.profileErr[s.Account]; err != nil {
		return model.Profile{}, err
	}
	list := f.profiles[s.Account]
	if len(list) == 0 {
		return model.Profile{}, nil
	}
	p := list[0]
	if len(list) > 1 {
		f.profiles[s.Account] = list[1:]
	}
	return p, nil
}

func (f *fakeProvider) Click(_ context.Context, _ model.Session, count int) error {
	f.call("click", count)
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.clickErrs) == 0 {
		return nil
	}
	err := f.clickErrs[0]
	f.clickErrs = f.clickErrs[1:]
	return err
}

func (f *fakeProvider) ClaimDaily(context.Context, model.Session) error {
	f.call("claim_daily")
	return nil
}

func (f *fakeProvider) ListQuests(context.Context, model.Session) (model.QuestList, error) {
	f.call("list_quests")
	return f.quests, f.questsErr
}

func (f *fakeProvider) AchieveQuest(_ context.Context, _ model.Session, id int64) error {
	f.call("achieve", id)
	return f.achieveErr[id]
}

func (f *fakeProvider) ClaimQuest(_ context.Context, _ model.Session, id int64) error {
	f.call("claim_quest", id)
	return nil
}

func (f *fakeProvider) DoLottery(context.Context, model.Session) (model.LotteryPrize, error) {
	f.call("do_lottery")
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prizes) == 0 {
		return model.LotteryPrize{}, &provider.APIError{Op: "do_lottery", Code: 1}
	}
	p := f.prizes[0]
	f.prizes = f.prizes[1:]
	return p, nil
}

func (f *fakeProvider) Share(_ context.Context, _ model.Session, id int64) error {
	f.call("share", id)
	return nil
}

func (f *fakeProvider) ClaimAdsIncome(_ context.Context, _ model.Session, kind model.AdsIncomeType) (model.AdsIncome, error) {
	f.call("ads", int(kind))
	return model.AdsIncome{Income: 1}, nil
}

func (f *fakeProvider) Speedup(context.Context, model.Session) (model.SpeedupInfo, error) {
	f.call("speedup")
	return f.speedup, f.speedupErr
}

func (f *fakeProvider) QuestLotteryStatus(context.Context, model.Session) (bool, error) {
	f.call("quest_lottery_status")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return false, f.statusErr
	}
	if len(f.lotteryStatus) == 0 {
		return false, nil
	}
	v := f.lotteryStatus[0]
	f.lotteryStatus = f.lotteryStatus[1:]
	return v, nil
}

func (f *fakeProvider) ClaimQuestLottery(context.Context, model.Session) error {
	f.call("claim_quest_lottery")
	return nil
}

// sleepRecorder never blocks; it returns false once ctx is done.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) bool {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err() == nil
}

type memRecorder struct {
	mu      sync.Mutex
	actions []model.ActionRecord
	prizes  []model.PrizeRecord
}

func (m *memRecorder) RecordAction(_ context.Context, rec model.ActionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, rec)
	return nil
}

func (m *memRecorder) RecordPrize(_ context.Context, rec model.PrizeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prizes = append(m.prizes, rec)
	return nil
}

type saverFunc func(model.Accounts) error

func (f saverFunc) Save(a model.Accounts) error { return f(a) }

var errNetwork = &provider.TransportError{Op: "test", Err: errors.New("connection reset")}

var fixedNow = time.UnixMilli(1_700_000_000_000)

func testPolicy() config.PolicyConfig {
	cfg := config.Default()
	return cfg.Policy
}

func newTestScheduler(p provider.Provider, sl *sleepRecorder, rec Recorder) *Scheduler {
	return New(Options{
		Provider: p,
		Recorder: rec,
		Policy:   testPolicy(),
		Sleep:    sl.Sleep,
		Intn:     func(n int) int { return 0 },
		Now:      func() time.Time { return fixedNow },
	})
}

func newTestRunner(p provider.Provider, sl *sleepRecorder) *Runner {
	return newTestScheduler(p, sl, nil).newRunner(model.Session{Account: "alice", AccessToken: "a", CookieToken: "c"})
}
