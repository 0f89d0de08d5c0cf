package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shelfmark/catalogue/internal/auth/store"
)

// DefaultReaperInterval is how often expired secrets are swept.
const DefaultReaperInterval = time.Minute

// ReaperService periodically removes expired verification tokens, the
// pending accounts they belonged to, and expired OTPs.
type ReaperService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// ReapReport summarises a single sweep.
type ReapReport struct {
	AccountsRemoved           int
	VerificationTokensRemoved int
	OTPTokensRemoved          int
	Failures                  int
}

// NewReaperService creates a reaper. A non-positive interval falls back to
// DefaultReaperInterval and a nil clock to time.Now.
func NewReaperService(store store.Store, logger *slog.Logger, interval time.Duration, now func() time.Time) *ReaperService {
	if interval <= 0 {
		interval = DefaultReaperInterval
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ReaperService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		Now:      now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background sweep. It runs once immediately and then on
// every tick until Stop is called.
func (s *ReaperService) Start() {
	go s.run()
	s.Logger.Info("reaper started", "interval", s.Interval)
}

// Stop halts the sweep and blocks until an in-flight run has finished.
func (s *ReaperService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("reaper stopped")
}

func (s *ReaperService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce performs one sweep. Individual failures are logged and counted;
// they never abort the rest of the sweep.
func (s *ReaperService) RunOnce(ctx context.Context) ReapReport {
	var report ReapReport
	now := s.Now()

	// ListExpired matches expires_at <= now, the same boundary Expired uses
	// on the request path.
	tokens, err := s.Store.VerificationTokens().ListExpired(ctx, now)
	if err != nil {
		s.Logger.Error("failed to list expired verification tokens", "error", err)
		report.Failures++
	}
	for _, t := range tokens {
		removed, err := s.Store.Accounts().DeletePending(ctx, t.AccountID)
		if err != nil {
			s.Logger.Error("failed to delete pending account", "account_id", t.AccountID, "error", err)
			report.Failures++
			continue
		}
		if removed {
			report.AccountsRemoved++
		}

		if err := s.Store.VerificationTokens().Delete(ctx, t.ID); err != nil {
			s.Logger.Error("failed to delete verification token", "token_id", t.ID, "error", err)
			report.Failures++
			continue
		}
		report.VerificationTokensRemoved++
	}

	otps, err := s.Store.OTPTokens().ListExpired(ctx, now)
	if err != nil {
		s.Logger.Error("failed to list expired otps", "error", err)
		report.Failures++
	}
	for _, o := range otps {
		if err := s.Store.OTPTokens().Delete(ctx, o.ID); err != nil {
			s.Logger.Error("failed to delete otp", "otp_id", o.ID, "error", err)
			report.Failures++
			continue
		}
		report.OTPTokensRemoved++
	}

	s.Logger.Info("reaper sweep completed",
		"accounts_removed", report.AccountsRemoved,
		"verification_tokens_removed", report.VerificationTokensRemoved,
		"otp_tokens_removed", report.OTPTokensRemoved,
		"failures", report.Failures,
	)
	return report
}
