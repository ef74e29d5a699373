package engine

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"banana_bot/internal/config"
	"banana_bot/internal/logbus"
	"banana_bot/internal/login"
	"banana_bot/internal/model"
	"banana_bot/internal/notify"
	"banana_bot/internal/provider"
)

// Recorder keeps run history. *sqlite.Store implements it.
type Recorder interface {
	RecordAction(ctx context.Context, rec model.ActionRecord) error
	RecordPrize(ctx context.Context, rec model.PrizeRecord) error
}

// CredentialSaver persists the whole account table. *credstore.Store implements it.
type CredentialSaver interface {
	Save(accounts model.Accounts) error
}

type Options struct {
	Provider    provider.Provider
	Credentials CredentialSaver
	Recorder    Recorder
	Notifier    notify.Notifier
	Bus         *logbus.Bus
	Limits      config.LimitsConfig
	Policy      config.PolicyConfig

	// Test seams. Nil means real time and math/rand.
	Sleep func(ctx context.Context, d time.Duration) bool
	Intn  func(n int) int
	Now   func() time.Time
}

// Handle observes one background account loop.
type Handle struct {
	Account string
	done    chan struct{}
	err     error
}

func (h *Handle) Done() <-chan struct{} { return h.done }

// Err is valid once Done is closed.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

type Scheduler struct {
	provider provider.Provider
	creds    CredentialSaver
	recorder Recorder
	notifier notify.Notifier
	bus      *logbus.Bus
	policy   config.PolicyConfig

	sleep func(ctx context.Context, d time.Duration) bool
	intn  func(n int) int
	now   func() time.Time

	runID string

	mu     sync.Mutex
	states map[string]*model.WorkerState
	wg     sync.WaitGroup
}

func New(opts Options) *Scheduler {
	s := &Scheduler{
		provider: &limitedProvider{next: opts.Provider, limiter: newLimiter(opts.Limits)},
		creds:    opts.Credentials,
		recorder: opts.Recorder,
		notifier: opts.Notifier,
		bus:      opts.Bus,
		policy:   opts.Policy,
		sleep:    opts.Sleep,
		intn:     opts.Intn,
		now:      opts.Now,
		runID:    uuid.NewString(),
		states:   make(map[string]*model.WorkerState),
	}
	if s.sleep == nil {
		s.sleep = sleepFor
	}
	if s.intn == nil {
		s.intn = rand.Intn
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Scheduler) RunID() string { return s.runID }

// Start sets up every account in name order: login when the session is
// incomplete, persist the table, bootstrap, then launch the loop in the
// background. A failing account is logged and skipped. accounts is updated in
// place with fresh sessions.
func (s *Scheduler) Start(ctx context.Context, accounts model.Accounts) []*Handle {
	names := make([]string, 0, len(accounts))
	for name := range accounts {
		names = append(names, name)
	}
	sort.Strings(names)

	if s.bus != nil {
		s.bus.Log("info", "引擎已启动", map[string]any{
			"provider": s.provider.Name(),
			"accounts": len(names),
			"runId":    s.runID,
		})
	}

	var handles []*Handle
	for i, name := range names {
		if ctx.Err() != nil {
			break
		}
		if i > 0 && !s.sleep(ctx, s.policy.Stagger()) {
			break
		}
		if h := s.startAccount(ctx, accounts, name); h != nil {
			handles = append(handles, h)
		}
	}
	return handles
}

func (s *Scheduler) startAccount(ctx context.Context, accounts model.Accounts, name string) *Handle {
	log := s.bus.Account(name)
	s.setState(name, func(st *model.WorkerState) { st.Phase = model.PhaseBootstrapping })

	cfg := accounts[name]
	if !cfg.SessionReady() {
		if !cfg.CanLogin() {
			s.fail(name, errors.Join(login.ErrLoginFailed, errors.New("no session and no link")))
			log.Warn("跳过账号：缺少登录信息", nil)
			return nil
		}
		res, err := login.Login(ctx, s.provider, cfg.Link, cfg.InviteCode)
		if err != nil {
			s.fail(name, err)
			log.Error("登录失败", err, nil)
			return nil
		}
		cfg.AccessToken = res.AccessToken
		cfg.CookieToken = res.CookieToken
		accounts[name] = cfg
		if s.creds != nil {
			if err := s.creds.Save(accounts); err != nil {
				s.fail(name, err)
				log.Error("保存账号配置失败", err, nil)
				return nil
			}
		}
		log.Info("登录成功", nil)
	}

	r := s.newRunner(model.NewSession(name, cfg))
	profile, err := r.Bootstrap(ctx)
	if err != nil {
		s.fail(name, err)
		if errors.Is(err, ErrBootstrap) {
			log.Error("初始化失败，账号不进入循环", err, nil)
		}
		return nil
	}

	h := &Handle{Account: name, done: make(chan struct{})}
	first := ClaimDelay(profile.Lottery, s.now(), s.policy.ClaimPad())
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(h.done)
		h.err = r.Loop(ctx, first)
		s.setState(name, func(st *model.WorkerState) { st.Phase = model.PhaseStopped })
		log.Info("账号循环已停止", nil)
	}()
	return h
}

func (s *Scheduler) newRunner(sess model.Session) *Runner {
	name := sess.Account
	return &Runner{
		session:  sess,
		provider: s.provider,
		log:      s.bus.Account(name),
		recorder: s.recorder,
		notifier: s.notifier,
		policy:   s.policy,
		runID:    s.runID,
		sleep:    s.sleep,
		intn:     s.intn,
		now:      s.now,
		report: func(fn func(*model.WorkerState)) {
			s.setState(name, fn)
		},
	}
}

// Wait blocks until every started loop has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) State() model.EngineState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := model.EngineState{RunID: s.runID, Workers: make([]model.WorkerState, 0, len(s.states))}
	for _, st := range s.states {
		out.Workers = append(out.Workers, *st)
	}
	sort.Slice(out.Workers, func(i, j int) bool { return out.Workers[i].Account < out.Workers[j].Account })
	return out
}

func (s *Scheduler) fail(name string, err error) {
	s.setState(name, func(st *model.WorkerState) {
		st.Phase = model.PhaseFailed
		st.LastError = err.Error()
	})
}

func (s *Scheduler) setState(name string, fn func(*model.WorkerState)) {
	s.mu.Lock()
	st := s.states[name]
	if st == nil {
		st = &model.WorkerState{Account: name}
		s.states[name] = st
	}
	fn(st)
	st.UpdatedAtMs = s.now().UnixMilli()
	snapshot := *st
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish("worker_state", snapshot)
	}
}
