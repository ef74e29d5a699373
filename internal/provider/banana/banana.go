package banana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"banana_bot/internal/config"
	"banana_bot/internal/logbus"
	"banana_bot/internal/model"
	"banana_bot/internal/provider"
	"banana_bot/internal/utils"
)

const (
	pathLogin             = "/login"
	pathUserInfo          = "/get_user_info"
	pathClick             = "/do_click"
	pathClaimLottery      = "/claim_lottery"
	pathQuestList         = "/get_quest_list"
	pathAchieveQuest      = "/achieve_quest"
	pathClaimQuest        = "/claim_quest"
	pathDoLottery         = "/do_lottery"
	pathShare             = "/do_share"
	pathClaimAdsIncome    = "/claim_ads_income"
	pathSpeedup           = "/do_speedup"
	pathClaimQuestLottery = "/claim_quest_lottery"

	claimLotteryTypeDaily = 1
)

type BananaProvider struct {
	cfg    config.ProviderConfig
	bus    *logbus.Bus
	client *resty.Client
	now    func() time.Time
}

func New(cfg config.ProviderConfig, bus *logbus.Bus) *BananaProvider {
	p := &BananaProvider{
		cfg: cfg,
		bus: bus,
		now: time.Now,
	}
	p.client = p.newClient()
	return p
}

func (p *BananaProvider) Name() string { return "banana" }

type apiEnvelope[T any] struct {
	Code    int    `json:"code"`
	Msg     string `json:"msg,omitempty"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

func (e apiEnvelope[T]) message() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Message
}

type loginReq struct {
	TgInfo     string `json:"tgInfo"`
	InviteCode string `json:"InviteCode"`
}

type loginResp struct {
	Token string `json:"token"`
}

type clickReq struct {
	ClickCount int `json:"clickCount"`
}

type claimLotteryReq struct {
	ClaimLotteryType int `json:"claimLotteryType"`
}

type questReq struct {
	QuestID int64 `json:"quest_id"`
}

type shareReq struct {
	BananaID int64 `json:"banana_id"`
}

type adsIncomeReq struct {
	Type model.AdsIncomeType `json:"type"`
}

type emptyReq struct{}

func (p *BananaProvider) Login(ctx context.Context, tgInfo, inviteCode string) (provider.LoginResult, error) {
	req := p.client.R().
		SetContext(ctx).
		SetBody(loginReq{TgInfo: tgInfo, InviteCode: inviteCode})

	resp, data, err := send[loginResp](req, "login", http.MethodPost, pathLogin)
	if err != nil {
		return provider.LoginResult{}, err
	}
	cookie, ok := model.FindSetCookie(model.SetCookieValues(resp.Header()), model.SessionCookieName)
	if !ok {
		return provider.LoginResult{}, errors.New("login: session cookie missing")
	}
	token := strings.TrimSpace(data.Token)
	if token == "" {
		return provider.LoginResult{}, errors.New("login: token missing")
	}
	return provider.LoginResult{AccessToken: token, CookieToken: cookie}, nil
}

func (p *BananaProvider) GetProfile(ctx context.Context, s model.Session) (model.Profile, error) {
	_, out, err := send[model.Profile](p.request(ctx, s), "get_user_info", http.MethodGet, pathUserInfo)
	return out, err
}

func (p *BananaProvider) Click(ctx context.Context, s model.Session, count int) error {
	_, _, err := send[json.RawMessage](p.request(ctx, s).SetBody(clickReq{ClickCount: count}), "do_click", http.MethodPost, pathClick)
	return err
}

func (p *BananaProvider) ClaimDaily(ctx context.Context, s model.Session) error {
	req := p.request(ctx, s).SetBody(claimLotteryReq{ClaimLotteryType: claimLotteryTypeDaily})
	_, _, err := send[json.RawMessage](req, "claim_lottery", http.MethodPost, pathClaimLottery)
	return err
}

func (p *BananaProvider) ListQuests(ctx context.Context, s model.Session) (model.QuestList, error) {
	_, out, err := send[model.QuestList](p.request(ctx, s), "get_quest_list", http.MethodGet, pathQuestList)
	return out, err
}

func (p *BananaProvider) AchieveQuest(ctx context.Context, s model.Session, questID int64) error {
	_, _, err := send[json.RawMessage](p.request(ctx, s).SetBody(questReq{QuestID: questID}), "achieve_quest", http.MethodPost, pathAchieveQuest)
	return err
}

func (p *BananaProvider) ClaimQuest(ctx context.Context, s model.Session, questID int64) error {
	_, _, err := send[json.RawMessage](p.request(ctx, s).SetBody(questReq{QuestID: questID}), "claim_quest", http.MethodPost, pathClaimQuest)
	return err
}

func (p *BananaProvider) DoLottery(ctx context.Context, s model.Session) (model.LotteryPrize, error) {
	_, out, err := send[model.LotteryPrize](p.request(ctx, s).SetBody(emptyReq{}), "do_lottery", http.MethodPost, pathDoLottery)
	return out, err
}

func (p *BananaProvider) Share(ctx context.Context, s model.Session, bananaID int64) error {
	_, _, err := send[json.RawMessage](p.request(ctx, s).SetBody(shareReq{BananaID: bananaID}), "do_share", http.MethodPost, pathShare)
	return err
}

func (p *BananaProvider) ClaimAdsIncome(ctx context.Context, s model.Session, kind model.AdsIncomeType) (model.AdsIncome, error) {
	op := fmt.Sprintf("claim_ads_income_%d", kind)
	_, out, err := send[model.AdsIncome](p.request(ctx, s).SetBody(adsIncomeReq{Type: kind}), op, http.MethodPost, pathClaimAdsIncome)
	return out, err
}

func (p *BananaProvider) Speedup(ctx context.Context, s model.Session) (model.SpeedupInfo, error) {
	_, out, err := send[model.SpeedupInfo](p.request(ctx, s).SetBody(emptyReq{}), "do_speedup", http.MethodPost, pathSpeedup)
	return out, err
}

// QuestLotteryStatus reads the is_claimed flag of the quest list, which the
// service uses to signal a pending quest-lottery claim.
func (p *BananaProvider) QuestLotteryStatus(ctx context.Context, s model.Session) (bool, error) {
	_, out, err := send[model.QuestList](p.request(ctx, s), "quest_lottery_status", http.MethodGet, pathQuestList)
	if err != nil {
		return false, err
	}
	return out.IsClaimed, nil
}

func (p *BananaProvider) ClaimQuestLottery(ctx context.Context, s model.Session) error {
	_, _, err := send[json.RawMessage](p.request(ctx, s).SetBody(emptyReq{}), "claim_quest_lottery", http.MethodPost, pathClaimQuestLottery)
	return err
}

func (p *BananaProvider) request(ctx context.Context, s model.Session) *resty.Request {
	req := p.client.R().SetContext(ctx)
	if s.AccessToken != "" {
		req.SetHeader("Authorization", "Bearer "+s.AccessToken)
	}
	if s.CookieToken != "" {
		req.SetHeader("Cookie", s.CookieToken)
	}
	return req
}

// send executes req and splits the outcome into payload / *APIError / *TransportError.
func send[T any](req *resty.Request, op, method, path string) (*resty.Response, T, error) {
	var zero T
	resp, err := req.Execute(method, path)
	if err != nil {
		return resp, zero, &provider.TransportError{Op: op, Err: err}
	}
	if !resp.IsSuccess() {
		return resp, zero, &provider.TransportError{
			Op:     op,
			Status: resp.StatusCode(),
			Err:    fmt.Errorf("unexpected status %s", strings.TrimSpace(resp.Status())),
		}
	}

	var env apiEnvelope[json.RawMessage]
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return resp, zero, &provider.TransportError{Op: op, Status: resp.StatusCode(), Err: fmt.Errorf("malformed payload: %w", err)}
	}
	if env.Code != 0 {
		return resp, zero, &provider.APIError{Op: op, Code: env.Code, Message: env.message()}
	}

	var out T
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return resp, out, nil
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return resp, zero, &provider.TransportError{Op: op, Status: resp.StatusCode(), Err: fmt.Errorf("malformed data: %w", err)}
	}
	return resp, out, nil
}

func (p *BananaProvider) newClient() *resty.Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(p.cfg.BaseURL, "/")).
		SetTimeout(p.cfg.Timeout()).
		SetRetryCount(p.cfg.Retry.Count).
		SetRetryWaitTime(p.cfg.Retry.Wait()).
		SetRetryMaxWaitTime(p.cfg.Retry.MaxWait()).
		AddRetryCondition(retryIdempotent)

	// 会话 Cookie 只来自 Session，不能让共享 client 的 cookie jar 在账号之间串号
	client.SetCookieJar(nil)

	if p.cfg.Proxy != "" {
		client.SetProxy(p.cfg.Proxy)
	}

	client.SetHeaders(utils.BrowserHeaders())
	client.SetHeader("User-Agent", utils.NormalizeMobileUserAgent(p.cfg.UserAgent))

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		token, err := utils.EncryptRequestTime(p.now())
		if err != nil {
			return err
		}
		req.SetHeader("request-time", token)
		if p.bus != nil {
			p.bus.Log("debug", "http request", map[string]any{
				"method": req.Method,
				"url":    req.URL,
			})
		}
		return nil
	})

	return client
}

// retryIdempotent retries GETs only. A re-sent POST could spend a spin or a
// claim twice, so those are left to the caller.
func retryIdempotent(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return true
	}
	return r.StatusCode() >= 500
}
