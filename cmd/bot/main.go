package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"banana_bot/internal/config"
	"banana_bot/internal/credstore"
	"banana_bot/internal/engine"
	"banana_bot/internal/httpapi"
	"banana_bot/internal/logbus"
	"banana_bot/internal/notify"
	"banana_bot/internal/provider/banana"
	"banana_bot/internal/store/sqlite"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(config.SettingsPath())
	if err != nil {
		log.Printf("load settings: %v", err)
		return 1
	}

	bus := logbus.New(500, logbus.NewConsoleLogger(cfg.Log.Level))
	defer bus.Close()

	creds := credstore.Open(credstore.DefaultFileName)
	accounts, err := creds.Load()
	if err != nil {
		bus.Log("error", "账号配置读取失败", map[string]any{"path": creds.Path(), "error": err.Error()})
		return 1
	}
	bus.Log("info", "账号配置已读取", map[string]any{"path": creds.Path(), "accounts": len(accounts)})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Policy.MaxRun())
	defer cancel()

	opts := engine.Options{
		Provider:    banana.New(cfg.Provider, bus),
		Credentials: creds,
		Bus:         bus,
		Limits:      cfg.Limits,
		Policy:      cfg.Policy,
	}

	var history *sqlite.Store
	if cfg.Storage.SQLitePath != "" {
		history, err = sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			bus.Log("error", "打开数据库失败", map[string]any{"path": cfg.Storage.SQLitePath, "error": err.Error()})
			return 1
		}
		defer history.Close()
		opts.Recorder = history
	}

	var mailer *notify.EmailNotifier
	if cfg.Notify.Email.Enabled {
		mailer = notify.NewEmailNotifier(cfg.Notify.Email, bus)
		opts.Notifier = mailer
	}

	sched := engine.New(opts)

	var server *http.Server
	if cfg.Server.Addr != "" {
		apiOpts := httpapi.Options{Cfg: cfg.Server, Bus: bus, Engine: sched}
		if history != nil {
			apiOpts.History = history
		}
		server = &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           httpapi.New(apiOpts).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				bus.Log("error", "监控服务异常", map[string]any{"error": err.Error()})
			}
		}()
		bus.Log("info", "监控服务已启动", map[string]any{"addr": cfg.Server.Addr})
	}

	handles := sched.Start(ctx, accounts)
	if len(handles) == 0 && ctx.Err() == nil {
		bus.Log("error", "没有账号进入循环", nil)
	} else {
		bus.Log("info", "账号循环已全部启动", map[string]any{"workers": len(handles)})
		<-ctx.Done()
		bus.Log("info", "准备退出", map[string]any{"reason": context.Cause(ctx).Error()})
		sched.Wait()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if server != nil {
		_ = server.Shutdown(shutdownCtx)
	}
	if mailer != nil {
		_ = mailer.Close(shutdownCtx)
	}
	bus.Log("info", "已退出", nil)

	if len(handles) == 0 {
		return 1
	}
	return 0
}
