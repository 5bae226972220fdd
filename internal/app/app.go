package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Evgen-rus/Vibe-check-telegram-bot/internal/assistant"
	"github.com/Evgen-rus/Vibe-check-telegram-bot/internal/config"
	"github.com/Evgen-rus/Vibe-check-telegram-bot/internal/llm"
	"github.com/Evgen-rus/Vibe-check-telegram-bot/internal/scheduler"
	"github.com/Evgen-rus/Vibe-check-telegram-bot/internal/store"
	"github.com/Evgen-rus/Vibe-check-telegram-bot/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	loc     *time.Location
	httpSrv *http.Server
	repo    store.Repo
	router  *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	loc, err := time.LoadLocation(cfg.DefaultTZ)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.DefaultTZ, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, loc: loc, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting vibe-checker bot",
		zap.String("tz", a.cfg.DefaultTZ),
		zap.String("http", a.cfg.HTTPAddr),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath, a.loc)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready", zap.String("path", a.cfg.DBPath))

	ai := llm.New(a.cfg.OpenAIAPIKey, a.cfg.OpenAIModel, a.cfg.TranscriptionModel, a.log)
	asst := assistant.New(repo, ai, a.log, a.loc, a.cfg.HistoryLimit, a.cfg.EnableDialogLog)
	a.router = telegram.NewRouter(a.bot, a.log, repo, asst, ai, a.loc)

	sched := scheduler.New(repo, a.log, a.router, a.loc,
		time.Duration(a.cfg.PollIntervalSec)*time.Second)
	go sched.Run(ctx)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			if a.repo != nil {
				_ = a.repo.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
