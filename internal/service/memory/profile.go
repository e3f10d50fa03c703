package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sandevgo/ragmemory/internal/core"
	"github.com/sandevgo/ragmemory/internal/metrics"
	"github.com/sandevgo/ragmemory/pkg/keylock"
	"github.com/sandevgo/ragmemory/pkg/log"
	"github.com/sandevgo/ragmemory/pkg/srv"
)

const profileHeader = "# User Profile"

type Submitter interface {
	Submit(name string, task srv.Task) bool
}

// ProfileManager owns the per-user profile document. Updates go through the
// model: an extraction call for the delta, then a merge call when a profile
// already exists.
type ProfileManager struct {
	repo  core.MemoryRepository
	llm   core.ChatModel
	locks *keylock.Locker
	pool  Submitter
}

func NewProfileManager(repo core.MemoryRepository, llm core.ChatModel, locks *keylock.Locker, pool Submitter) *ProfileManager {
	return &ProfileManager{repo: repo, llm: llm, locks: locks, pool: pool}
}

func profileKey(userID string) string { return "profile:" + userID }

// updateKey serializes whole extract-merge-write cycles, so the profile lock
// is only held for the actual read or write.
func updateKey(userID string) string { return "profile-update:" + userID }

func (p *ProfileManager) ReadProfile(ctx context.Context, userID string) (string, error) {
	unlock := p.locks.Lock(profileKey(userID))
	defer unlock()

	content, err := p.repo.ReadProfile(ctx, userID)
	if err != nil {
		return "", wrapProfile(err)
	}
	return content, nil
}

func (p *ProfileManager) WriteProfile(ctx context.Context, userID, content string) error {
	unlock := p.locks.Lock(profileKey(userID))
	defer unlock()

	if err := p.repo.WriteProfile(ctx, userID, content); err != nil {
		return wrapProfile(err)
	}
	return nil
}

// ExtractAndUpdateProfile schedules UpdateProfile on the worker pool and
// returns whether it was accepted. Failures are only logged.
func (p *ProfileManager) ExtractAndUpdateProfile(ctx context.Context, userID, conversation string) bool {
	logger := log.FromCtx(ctx).With().Str("user_id", userID).Logger()

	accepted := p.pool.Submit("profile:"+userID, func(taskCtx context.Context) error {
		return p.UpdateProfile(logger.WithContext(taskCtx), userID, conversation)
	})
	if !accepted {
		logger.Warn().Msg("profile update dropped, worker queue is full")
	}
	return accepted
}

// UpdateProfile runs one extraction cycle. A blank answer or the no-news
// sentinel leaves the profile untouched.
func (p *ProfileManager) UpdateProfile(ctx context.Context, userID, conversation string) error {
	if strings.TrimSpace(conversation) == "" {
		metrics.ProfileUpdates.WithLabelValues(metrics.ResultSkipped).Inc()
		return nil
	}
	logger := log.FromCtx(ctx)

	unlock := p.locks.Lock(updateKey(userID))
	defer unlock()

	existing, err := p.ReadProfile(ctx, userID)
	if err != nil {
		metrics.ProfileUpdates.WithLabelValues(metrics.ResultError).Inc()
		return err
	}

	delta, err := p.llm.Complete(ctx, extractionPrompt(existing, conversation))
	if err != nil {
		metrics.ProfileUpdates.WithLabelValues(metrics.ResultError).Inc()
		return fmt.Errorf("extract profile: %w", err)
	}
	delta = strings.TrimSpace(delta)
	if delta == "" || strings.Contains(delta, NoNewInfo) {
		logger.Debug().Msg("no new user information")
		metrics.ProfileUpdates.WithLabelValues(metrics.ResultSkipped).Inc()
		return nil
	}

	updated := profileHeader + "\n\n" + delta
	if strings.TrimSpace(existing) != "" {
		merged, err := p.llm.Complete(ctx, mergePrompt(existing, delta))
		if err != nil {
			metrics.ProfileUpdates.WithLabelValues(metrics.ResultError).Inc()
			return fmt.Errorf("merge profile: %w", err)
		}
		merged = strings.TrimSpace(merged)
		if merged == "" {
			logger.Warn().Msg("model returned an empty merged profile, keeping the old one")
			metrics.ProfileUpdates.WithLabelValues(metrics.ResultSkipped).Inc()
			return nil
		}
		updated = merged
	}

	if err := p.WriteProfile(ctx, userID, updated); err != nil {
		metrics.ProfileUpdates.WithLabelValues(metrics.ResultError).Inc()
		return err
	}

	metrics.ProfileUpdates.WithLabelValues(metrics.ResultOK).Inc()
	logger.Info().Int("bytes", len(updated)).Msg("profile updated")
	return nil
}

func wrapProfile(err error) error {
	if errors.Is(err, core.ErrProfile) || errors.Is(err, core.ErrInvalidRequest) {
		return err
	}
	return fmt.Errorf("%w: %v", core.ErrProfile, err)
}
