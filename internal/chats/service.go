package chats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-studio/internal/llm"
	"resume-studio/internal/resume"
	"resume-studio/internal/shared/metrics"
	"resume-studio/internal/shared/telemetry"
	"resume-studio/internal/shared/worker"
)

// FallbackReply is stored when the model returns nothing.
const FallbackReply = "I’m sorry, I wasn’t able to generate a response. Please try again."

// Options used for every assistant reply.
var replyOptions = llm.ChatOptions{Temperature: 0.4, TopP: 0.9, MaxTokens: 500}

// ResumeReader loads a resume on behalf of its owner.
type ResumeReader interface {
	Get(ctx context.Context, ownerID, id string) (resume.Document, error)
}

// TaskRunner accepts background work. *worker.Pool satisfies it.
type TaskRunner interface {
	Submit(name string, task worker.Task) bool
}

// Service contains business logic for resume chats.
type Service struct {
	Repo    Repo
	Resumes ResumeReader
	LLM     llm.ChatClient
	Locker  Locker
	Tasks   TaskRunner
	Now     func() time.Time
}

// NewService constructs a Service. A nil locker falls back to a process-local
// one; with nil tasks pruning runs inline.
func NewService(repo Repo, resumes ResumeReader, client llm.ChatClient, locker Locker, tasks TaskRunner) *Service {
	if client == nil {
		client = llm.PlaceholderClient{}
	}
	if locker == nil {
		locker = NewMemoryLocker()
	}
	return &Service{Repo: repo, Resumes: resumes, LLM: client, Locker: locker, Tasks: tasks}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// History returns the most recent turns of a resume in ascending order.
// limit defaults to and is capped at MaxHistory.
func (s *Service) History(ctx context.Context, ownerID, resumeID string, limit int) ([]Turn, error) {
	if _, err := s.Resumes.Get(ctx, ownerID, resumeID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > MaxHistory {
		limit = MaxHistory
	}
	return s.Repo.ListLatest(ctx, resumeID, limit)
}

// Send stores the user's message, asks the model for a reply and stores it.
// Only one send per resume runs at a time.
func (s *Service) Send(ctx context.Context, ownerID, resumeID, message string) (Exchange, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Exchange{}, ErrInvalidInput
	}
	doc, err := s.Resumes.Get(ctx, ownerID, resumeID)
	if err != nil {
		return Exchange{}, err
	}

	release, ok, err := s.Locker.Acquire(ctx, resumeID)
	if err != nil {
		return Exchange{}, fmt.Errorf("acquire chat lock: %w", err)
	}
	if !ok {
		return Exchange{}, ErrSendInProgress
	}
	defer release()

	metrics.IncChatSendStarted()
	userTurn := Turn{
		ID:        uuid.NewString(),
		ResumeID:  resumeID,
		Role:      RoleUser,
		Content:   message,
		CreatedAt: s.now(),
	}
	if err := s.Repo.Append(ctx, userTurn); err != nil {
		metrics.IncChatSendFailed()
		return Exchange{}, fmt.Errorf("store user turn: %w", err)
	}

	history, err := s.Repo.ListLatest(ctx, resumeID, PromptHistory)
	if err != nil {
		s.rollback(ctx, userTurn)
		metrics.IncChatSendFailed()
		return Exchange{}, fmt.Errorf("load chat history: %w", err)
	}

	started := time.Now()
	reply, err := s.LLM.Chat(ctx, BuildMessages(doc, history), replyOptions)
	metrics.ObserveLLMLatency(time.Since(started))
	if err != nil {
		telemetry.Error("chat.llm.failed", map[string]any{
			"resume_id": resumeID,
			"user_id":   ownerID,
			"err":       err,
		})
		s.rollback(ctx, userTurn)
		metrics.IncChatSendFailed()
		return Exchange{}, fmt.Errorf("%w: %v", ErrAssistantUnavailable, err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = FallbackReply
	}

	assistantTurn := Turn{
		ID:        uuid.NewString(),
		ResumeID:  resumeID,
		Role:      RoleAssistant,
		Content:   reply,
		CreatedAt: s.now(),
	}
	if assistantTurn.CreatedAt.Before(userTurn.CreatedAt) {
		assistantTurn.CreatedAt = userTurn.CreatedAt
	}
	if err := s.Repo.Append(ctx, assistantTurn); err != nil {
		s.rollback(ctx, userTurn)
		metrics.IncChatSendFailed()
		return Exchange{}, fmt.Errorf("store assistant turn: %w", err)
	}

	s.schedulePrune(resumeID)
	metrics.IncChatSendCompleted()
	return Exchange{User: userTurn, Assistant: assistantTurn}, nil
}

// rollback removes a user turn that never got a reply. Failures are logged.
func (s *Service) rollback(ctx context.Context, turn Turn) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Repo.Delete(ctx, turn.ResumeID, turn.ID); err != nil {
		telemetry.Warn("chat.rollback.failed", map[string]any{
			"resume_id": turn.ResumeID,
			"turn_id":   turn.ID,
			"err":       err,
		})
	}
}

// schedulePrune trims the transcript to MaxHistory in the background. It is
// best-effort: failures and dropped tasks are only logged.
func (s *Service) schedulePrune(resumeID string) {
	task := func(ctx context.Context) error {
		removed, err := s.Repo.PruneKeepLatest(ctx, resumeID, MaxHistory)
		if err != nil {
			metrics.IncChatPruneFailed()
			return fmt.Errorf("prune chat history for %s: %w", resumeID, err)
		}
		if removed > 0 {
			telemetry.Debug("chat.pruned", map[string]any{"resume_id": resumeID, "removed": removed})
		}
		return nil
	}
	if s.Tasks == nil {
		if err := task(context.Background()); err != nil {
			telemetry.Warn("chat.prune.failed", map[string]any{"resume_id": resumeID, "err": err})
		}
		return
	}
	s.Tasks.Submit("chat.prune", task)
}
