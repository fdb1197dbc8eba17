package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"coinsentry/internal/model"
	"coinsentry/internal/notifier"
	"coinsentry/internal/recorder"
	"coinsentry/internal/trader"
)

// Scheduler drives the trading tick on a fixed cadence. Ticks never
// overlap: if a tick's external calls are still in flight when the
// next fires, the new tick is skipped.
type Scheduler struct {
	Cron     *cron.Cron
	Trader   *trader.Trader
	Notifier *notifier.TelegramNotifier
	Recorder recorder.Recorder
	Ctx      context.Context

	log     *zap.SugaredLogger
	running atomic.Bool
}

// NewScheduler creates a Scheduler.
func NewScheduler(ctx context.Context, t *trader.Trader, tn *notifier.TelegramNotifier, rec recorder.Recorder, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Trader:   t,
		Notifier: tn,
		Recorder: rec,
		Ctx:      ctx,
		log:      log,
	}
}

// Register adds the tick task under the given cron spec
// (e.g. "0 */5 * * * *" for every five minutes).
func (s *Scheduler) Register(tickCron string) error {
	if _, err := s.Cron.AddFunc(tickCron, s.tick); err != nil {
		return fmt.Errorf("register tick task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Infow("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	s.log.Infow("scheduler stopped")
}

// RunNow executes a tick immediately (manual trigger / run-on-start).
func (s *Scheduler) RunNow() {
	s.tick()
}

func (s *Scheduler) tick() {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warnw("previous tick still running, skipping this tick")
		return
	}
	defer s.running.Store(false)

	if s.Ctx.Err() != nil {
		return
	}

	s.log.Infow("tick started", "markets", s.Trader.Markets())
	outcomes := s.Trader.RunTick(s.Ctx)

	for _, o := range outcomes {
		if err := s.Recorder.RecordTick(o); err != nil {
			s.log.Errorw("record tick outcome", "market", o.Market, "err", err)
		}
		if !o.Executed() {
			continue
		}
		if err := s.Recorder.RecordTrade(tradeRecord(o)); err != nil {
			s.log.Errorw("record trade", "market", o.Market, "err", err)
		}
		s.trySend(notifier.FormatTrade(o))
	}

	if msg := notifier.FormatTickErrors(outcomes); msg != "" {
		s.trySend(msg)
	}
	s.log.Infow("tick finished", "outcomes", len(outcomes))
}

func tradeRecord(o *model.TickOutcome) *recorder.Trade {
	t := &recorder.Trade{
		Market:    o.Market,
		Side:      string(o.Action),
		Price:     o.Price,
		Reason:    o.Reason,
		OrderUUID: o.OrderUUID,
	}
	if o.Action == model.ActionSell {
		t.Profit = o.Profit
	}
	return t
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/status", "status":
		return notifier.FormatPositions(s.Trader.Positions())
	case "/tick", "tick":
		go s.RunNow()
		return "tick triggered"
	default:
		return "commands:\n• /status — open positions\n• /tick — run a tick now"
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Errorw("send notification", "err", err)
	}
}
