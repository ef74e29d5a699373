// Command mock serves a local stand-in for the game API so the bot can be run
// end to end with provider.baseURL pointed at it.
package main

import (
	crand "crypto/rand"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"
)

type user struct {
	clicks        int
	maxClicks     int
	countdownAt   int64
	spins         int
	questLottery  int
	achieved      map[int64]bool
	claimedQuests map[int64]bool
}

type state struct {
	mu    sync.Mutex
	users map[string]*user
	// countdown length in minutes
	interval int
}

func (s *state) get(r *http.Request) (*user, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[token]
	if u == nil {
		u = &user{
			maxClicks:     50 + rand.Intn(50),
			countdownAt:   time.Now().UnixMilli(),
			spins:         2,
			questLottery:  1,
			achieved:      make(map[int64]bool),
			claimedQuests: make(map[int64]bool),
		}
		s.users[token] = u
	}
	return u, true
}

func (s *state) lottery(u *user) map[string]any {
	end := u.countdownAt + int64(s.interval)*60_000
	return map[string]any{
		"countdown_end":             time.Now().UnixMilli() >= end,
		"countdown_interval":        s.interval,
		"last_countdown_start_time": u.countdownAt,
		"remain_lottery_count":      u.spins,
	}
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	interval := flag.Int("interval", 2, "countdown interval in minutes")
	flag.Parse()

	st := &state{users: make(map[string]*user), interval: *interval}

	mux := http.NewServeMux()
	mux.HandleFunc("/banana/health", func(w http.ResponseWriter, _ *http.Request) {
		ok(w, map[string]any{"ok": true})
	})

	mux.HandleFunc("/banana/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var body struct {
			TgInfo string `json:"tgInfo"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.TgInfo == "" {
			reject(w, 400, "tgInfo is required")
			return
		}
		token := "mock_" + randString(16)
		// net/http refuses ':' in cookie names, so write it raw.
		w.Header().Add("Set-Cookie", "banana-game:user:token="+randString(24)+"; Path=/; HttpOnly")
		ok(w, map[string]any{"token": token})
	})

	authed := func(path string, fn func(w http.ResponseWriter, r *http.Request, u *user)) {
		mux.HandleFunc("/banana"+path, func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Cookie"), "banana-game:user:token=") {
				reject(w, 401, "missing session cookie")
				return
			}
			u, found := st.get(r)
			if !found {
				reject(w, 401, "unauthorized")
				return
			}
			st.mu.Lock()
			defer st.mu.Unlock()
			fn(w, r, u)
		})
	}

	authed("/get_user_info", func(w http.ResponseWriter, _ *http.Request, u *user) {
		ok(w, map[string]any{
			"username":          "mock_user",
			"max_click_count":   u.maxClicks,
			"today_click_count": u.clicks,
			"lottery_info":      st.lottery(u),
		})
	})

	authed("/do_click", func(w http.ResponseWriter, r *http.Request, u *user) {
		var body struct {
			ClickCount int `json:"clickCount"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.ClickCount <= 0 || u.clicks+body.ClickCount > u.maxClicks {
			reject(w, 1, "invalid click count")
			return
		}
		// occasional rejection to exercise the retry path
		if rand.Intn(10) == 0 {
			reject(w, 429, "too fast")
			return
		}
		u.clicks += body.ClickCount
		ok(w, map[string]any{"peel": u.clicks})
	})

	authed("/claim_lottery", func(w http.ResponseWriter, _ *http.Request, u *user) {
		if time.Now().UnixMilli() < u.countdownAt+int64(st.interval)*60_000 {
			reject(w, 1, "countdown not finished")
			return
		}
		u.countdownAt = time.Now().UnixMilli()
		u.spins++
		ok(w, map[string]any{})
	})

	authed("/get_quest_list", func(w http.ResponseWriter, _ *http.Request, u *user) {
		quests := []map[string]any{}
		for i, typ := range []string{"visit_page", "follow_on_twitter", "input_code", "telegram_join_group"} {
			id := int64(i + 1)
			quests = append(quests, map[string]any{
				"quest_id":    id,
				"quest_name":  "mock " + typ,
				"quest_type":  typ,
				"is_achieved": u.achieved[id],
				"is_claimed":  u.claimedQuests[id],
			})
		}
		ok(w, map[string]any{"quest_list": quests, "is_claimed": u.questLottery > 0})
	})

	authed("/achieve_quest", func(w http.ResponseWriter, r *http.Request, u *user) {
		id := questID(r)
		u.achieved[id] = true
		ok(w, map[string]any{})
	})

	authed("/claim_quest", func(w http.ResponseWriter, r *http.Request, u *user) {
		id := questID(r)
		if !u.achieved[id] {
			reject(w, 1, "quest not achieved")
			return
		}
		u.claimedQuests[id] = true
		ok(w, map[string]any{})
	})

	authed("/claim_quest_lottery", func(w http.ResponseWriter, _ *http.Request, u *user) {
		if u.questLottery <= 0 {
			reject(w, 1, "nothing to claim")
			return
		}
		u.questLottery--
		u.spins++
		ok(w, map[string]any{})
	})

	authed("/do_lottery", func(w http.ResponseWriter, _ *http.Request, u *user) {
		if u.spins <= 0 {
			reject(w, 1, "no lottery count")
			return
		}
		u.spins--
		rarity := []string{"Common", "Rare", "Epic", "Legendary"}[rand.Intn(4)]
		ok(w, map[string]any{
			"banana_id": rand.Int63n(900) + 100,
			"name":      "Mock " + rarity + " Banana",
			"ripeness":  rarity,
		})
	})

	authed("/do_share", func(w http.ResponseWriter, _ *http.Request, _ *user) {
		ok(w, map[string]any{})
	})

	authed("/claim_ads_income", func(w http.ResponseWriter, _ *http.Request, _ *user) {
		ok(w, map[string]any{"income": rand.Intn(100)})
	})

	authed("/do_speedup", func(w http.ResponseWriter, _ *http.Request, u *user) {
		if rand.Intn(2) == 0 {
			reject(w, 1, "no speedup available")
			return
		}
		u.countdownAt -= 60_000
		ok(w, map[string]any{"lottery_info": st.lottery(u)})
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("mock listening on %s", *addr)
	log.Fatal(srv.ListenAndServe())
}

func questID(r *http.Request) int64 {
	var body struct {
		QuestID int64 `json:"quest_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	return body.QuestID
}

func ok(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"code": 0, "msg": "Success", "data": data})
}

func reject(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": msg, "data": nil})
}

func randString(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	if n <= 0 {
		return ""
	}
	raw := make([]byte, n)
	_, _ = crand.Read(raw)
	out := make([]byte, n)
	for i := range out {
		out[i] = letters[int(raw[i])%len(letters)]
	}
	return string(out)
}
