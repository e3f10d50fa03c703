package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sandevgo/ragmemory/internal/core"
	"github.com/sandevgo/ragmemory/pkg/conv"
	"github.com/sandevgo/ragmemory/pkg/log"
	"github.com/sandevgo/ragmemory/pkg/srv"
)

const (
	maxUserIDLen = 128
	maxQueryLen  = 4096
)

type Retriever interface {
	Retrieve(ctx context.Context, userID, query string) []core.RetrievedChunk
	Store(ctx context.Context, userID string, texts []string, ts time.Time) int
}

type History interface {
	Update(ctx context.Context, userID string, texts []string) error
	Snapshot(ctx context.Context, userID string) (core.HistorySnapshot, error)
}

type Profiles interface {
	ReadProfile(ctx context.Context, userID string) (string, error)
	ExtractAndUpdateProfile(ctx context.Context, userID, conversation string) bool
}

type Pinger interface {
	Ping(ctx context.Context) bool
}

type Submitter interface {
	Submit(name string, task srv.Task) bool
}

// Engine is the request boundary shared by the HTTP and MCP transports.
type Engine struct {
	retriever Retriever
	history   History
	profiles  Profiles
	store     Pinger
	convlog   core.ConversationLogger
	pool      Submitter
	now       func() time.Time
}

func NewEngine(
	retriever Retriever,
	history History,
	profiles Profiles,
	store Pinger,
	convlog core.ConversationLogger,
	pool Submitter,
) *Engine {
	return &Engine{
		retriever: retriever,
		history:   history,
		profiles:  profiles,
		store:     store,
		convlog:   convlog,
		pool:      pool,
		now:       time.Now,
	}
}

func (e *Engine) Query(ctx context.Context, req QueryRequest) (QueryResponse, error) {
	start := time.Now()
	if err := validateUserID(req.UserID); err != nil {
		return QueryResponse{}, err
	}
	if n := utf8.RuneCountInString(req.Query); n == 0 || n > maxQueryLen {
		return QueryResponse{}, core.NewInvalidRequest(fmt.Sprintf("query must be 1-%d characters", maxQueryLen))
	}

	logger := log.FromCtx(ctx).With().Str("user_id", req.UserID).Logger()
	ctx = logger.WithContext(ctx)

	chunks := e.retriever.Retrieve(ctx, req.UserID, req.Query)

	profile, err := e.profiles.ReadProfile(ctx, req.UserID)
	if err != nil {
		logger.Warn().Err(err).Msg("profile read failed, answering without it")
		profile = ""
	}

	e.logConversation(ctx, req.UserID, core.RoleUser, req.Query, e.now())

	elapsed := msSince(start)
	logger.Info().Int("chunks", len(chunks)).Float64("ms", elapsed).Msg("memory query done")

	return QueryResponse{
		Success:          true,
		Message:          "ok",
		UserID:           req.UserID,
		UserProfile:      profile,
		RetrievedChunks:  chunks,
		AugmentedContext: BuildAugmentedContext(profile, chunks),
		QueryTimeMs:      elapsed,
	}, nil
}

func (e *Engine) Upload(ctx context.Context, req UploadRequest) (UploadResponse, error) {
	start := time.Now()
	if err := validateUserID(req.UserID); err != nil {
		return UploadResponse{}, err
	}

	logger := log.FromCtx(ctx).With().Str("user_id", req.UserID).Logger()
	ctx = logger.WithContext(ctx)
	logger.Info().
		Int("messages", len(req.Messages)).
		Int("files", len(req.Multifiles)).
		Msg("memory upload received")

	now := e.now()
	texts := make([]string, 0, len(req.Messages)+len(req.Multifiles))
	for _, msg := range req.Messages {
		role := msg.Role
		if role == "" {
			role = core.RoleUnknown
		}
		texts = append(texts, fmt.Sprintf("[%s]: %s", role, msg.Content))
		e.logConversation(ctx, req.UserID, role, msg.Content, now)
	}
	texts = append(texts, decodeFiles(ctx, req.Multifiles)...)

	if len(texts) == 0 {
		return UploadResponse{
			Success: false,
			Message: "request contains no messages or files",
			UserID:  req.UserID,
		}, nil
	}

	ts := req.Time.Time
	if ts.IsZero() {
		ts = now
	}
	stored := e.retriever.Store(ctx, req.UserID, texts, ts)

	if err := e.history.Update(ctx, req.UserID, texts); err != nil {
		logger.Error().Err(err).Msg("history update failed")
	}

	e.profiles.ExtractAndUpdateProfile(ctx, req.UserID, strings.Join(texts, "\n"))

	elapsed := msSince(start)
	logger.Info().Int("chunks_stored", stored).Float64("ms", elapsed).Msg("memory upload done")

	return UploadResponse{
		Success:        true,
		Message:        "uploaded, profile update runs in the background",
		UserID:         req.UserID,
		ChunksStored:   stored,
		ProfileUpdated: false,
		ProcessTimeMs:  elapsed,
	}, nil
}

func (e *Engine) Ping(ctx context.Context) HealthResponse {
	connected := e.store.Ping(ctx)
	return HealthResponse{
		Status:               "ok",
		Version:              core.AppVersion,
		VectorStoreConnected: connected,
		MilvusConnected:      connected,
	}
}

func (e *Engine) Profile(ctx context.Context, userID string) (ProfileResponse, error) {
	if err := validateUserID(userID); err != nil {
		return ProfileResponse{}, err
	}
	profile, err := e.profiles.ReadProfile(ctx, userID)
	if err != nil {
		return ProfileResponse{}, err
	}
	return ProfileResponse{UserID: userID, Profile: profile}, nil
}

// RenderProfileHTML returns the profile as sanitized HTML, empty when the
// user has no profile yet.
func (e *Engine) RenderProfileHTML(ctx context.Context, userID string) (string, error) {
	resp, err := e.Profile(ctx, userID)
	if err != nil {
		return "", err
	}
	return conv.MarkdownToSafeHTML([]byte(resp.Profile)), nil
}

func (e *Engine) RecentHistory(ctx context.Context, userID string) (HistoryResponse, error) {
	if err := validateUserID(userID); err != nil {
		return HistoryResponse{}, err
	}
	snap, err := e.history.Snapshot(ctx, userID)
	if err != nil {
		return HistoryResponse{}, err
	}
	return HistoryResponse{UserID: userID, Recent: snap.Recent, Summary: snap.Summary}, nil
}

func (e *Engine) logConversation(ctx context.Context, userID, role, content string, at time.Time) {
	if e.convlog == nil {
		return
	}
	ok := e.pool.Submit("convlog:"+userID, func(taskCtx context.Context) error {
		return e.convlog.Append(taskCtx, userID, role, content, at)
	})
	if !ok {
		log.FromCtx(ctx).Warn().Str("role", role).Msg("conversation log entry dropped")
	}
}

func validateUserID(userID string) error {
	if n := utf8.RuneCountInString(userID); n == 0 || n > maxUserIDLen {
		return core.NewInvalidRequest(fmt.Sprintf("user_id must be 1-%d characters", maxUserIDLen))
	}
	return nil
}

func msSince(start time.Time) float64 {
	ms := float64(time.Since(start)) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}
