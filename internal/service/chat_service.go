package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/config"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/service/integration"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/validation"
)

const (
	msgSessionNotFound = "chat session not found"

	defaultSessionTTL  = 2 * time.Hour
	defaultMaxSessions = 10
	sweepInterval      = time.Minute
)

// ChatService keeps one conversation history per session id. Sessions live
// in process memory and never share state with each other. Idle sessions
// expire after the configured TTL, and each user holds at most MaxSessions;
// starting one more evicts that user's least recently used session.
type ChatService interface {
	StartSession(ctx context.Context, caller *models.User) (*models.ChatSession, error)
	Send(ctx context.Context, caller *models.User, sessionID string, req *models.ChatMessageRequest) (*models.ChatReply, error)
	History(ctx context.Context, caller *models.User, sessionID string) (*models.ChatSession, error)
	EndSession(ctx context.Context, caller *models.User, sessionID string) error
}

type chatSession struct {
	mu      sync.Mutex
	session models.ChatSession

	// unix nanos of the last access; read by the sweeper without mu
	lastUsed atomic.Int64
}

func (cs *chatSession) touch(now time.Time) {
	cs.lastUsed.Store(now.UnixNano())
}

func (cs *chatSession) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, cs.lastUsed.Load()))
}

type chatService struct {
	assistant   integration.Assistant
	maxHistory  int
	ttl         time.Duration
	maxSessions int
	now         func() time.Time
	logger      zerolog.Logger

	mu        sync.RWMutex
	sessions  map[string]*chatSession
	owners    map[string][]string
	lastSweep time.Time
}

func NewChatService(assistant integration.Assistant, cfg config.AssistantConfig, logger zerolog.Logger) ChatService {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	maxSessions := cfg.MaxSessions
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	return &chatService{
		assistant:   assistant,
		maxHistory:  cfg.MaxHistory,
		ttl:         ttl,
		maxSessions: maxSessions,
		now:         time.Now,
		logger:      logger,
		sessions:    make(map[string]*chatSession),
		owners:      make(map[string][]string),
	}
}

func (s *chatService) StartSession(_ context.Context, caller *models.User) (*models.ChatSession, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	cs := &chatSession{session: models.ChatSession{
		ID:        uuid.New().String(),
		OwnerID:   caller.ID,
		History:   []models.ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}}
	cs.touch(now)

	s.mu.Lock()
	s.sweepLocked(now)
	if owned := s.owners[caller.ID]; len(owned) >= s.maxSessions {
		s.removeLocked(s.leastRecentlyUsedLocked(owned))
	}
	s.sessions[cs.session.ID] = cs
	s.owners[caller.ID] = append(s.owners[caller.ID], cs.session.ID)
	s.mu.Unlock()

	s.logger.Debug().
		Str("session_id", cs.session.ID).
		Str("user_id", caller.ID).
		Msg("Chat session started")

	snapshot := cs.session
	return &snapshot, nil
}

// sweepLocked drops idle sessions, at most once per sweepInterval.
func (s *chatService) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now

	expired := 0
	for id, cs := range s.sessions {
		if cs.idleSince(now) > s.ttl {
			s.removeLocked(id)
			expired++
		}
	}
	if expired > 0 {
		s.logger.Debug().Int("expired", expired).Msg("Idle chat sessions removed")
	}
}

func (s *chatService) leastRecentlyUsedLocked(ids []string) string {
	oldest := ids[0]
	for _, id := range ids[1:] {
		if s.sessions[id].lastUsed.Load() < s.sessions[oldest].lastUsed.Load() {
			oldest = id
		}
	}
	return oldest
}

func (s *chatService) removeLocked(sessionID string) {
	cs, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	delete(s.sessions, sessionID)

	owner := cs.session.OwnerID
	ids := s.owners[owner]
	for i, id := range ids {
		if id == sessionID {
			ids = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(s.owners, owner)
		return
	}
	s.owners[owner] = ids
}

// lookup returns the session if caller owns it. An idle session counts as
// gone even before the sweeper removes it.
func (s *chatService) lookup(caller *models.User, sessionID string) (*chatSession, error) {
	s.mu.RLock()
	cs, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	now := s.now()
	if !ok || cs.idleSince(now) > s.ttl {
		return nil, apperrors.NotFound(msgSessionNotFound)
	}
	if cs.session.OwnerID != caller.ID {
		return nil, apperrors.Forbidden("this chat session belongs to another user")
	}
	cs.touch(now)
	return cs, nil
}

func (s *chatService) Send(ctx context.Context, caller *models.User, sessionID string, req *models.ChatMessageRequest) (*models.ChatReply, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	cs, err := s.lookup(caller, sessionID)
	if err != nil {
		return nil, err
	}

	// one exchange at a time per session; other sessions are not blocked
	cs.mu.Lock()
	defer cs.mu.Unlock()

	prev := cs.session.History
	history := append(append([]models.ChatMessage(nil), prev...), models.ChatMessage{
		Role:      models.ChatRoleUser,
		Content:   req.Message,
		CreatedAt: s.now().UTC(),
	})

	text, err := s.assistant.Reply(ctx, s.trim(history))
	if err != nil {
		if errors.Is(err, integration.ErrAssistantDisabled) {
			return nil, apperrors.Validation("the assistant is not enabled")
		}
		s.logger.Error().Err(err).
			Str("session_id", sessionID).
			Msg("Assistant reply failed")
		return nil, apperrors.Unexpectedf(err, "failed to get assistant reply")
	}

	reply := models.ChatMessage{
		Role:      models.ChatRoleAssistant,
		Content:   text,
		CreatedAt: s.now().UTC(),
	}
	cs.session.History = s.trim(append(history, reply))
	cs.session.UpdatedAt = reply.CreatedAt

	return &models.ChatReply{SessionID: sessionID, Reply: reply}, nil
}

// trim keeps the newest maxHistory messages.
func (s *chatService) trim(history []models.ChatMessage) []models.ChatMessage {
	if s.maxHistory <= 0 || len(history) <= s.maxHistory {
		return history
	}
	return append([]models.ChatMessage(nil), history[len(history)-s.maxHistory:]...)
}

func (s *chatService) History(_ context.Context, caller *models.User, sessionID string) (*models.ChatSession, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	cs, err := s.lookup(caller, sessionID)
	if err != nil {
		return nil, err
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	snapshot := cs.session
	snapshot.History = append([]models.ChatMessage{}, cs.session.History...)
	return &snapshot, nil
}

func (s *chatService) EndSession(_ context.Context, caller *models.User, sessionID string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if _, err := s.lookup(caller, sessionID); err != nil {
		return err
	}

	s.mu.Lock()
	s.removeLocked(sessionID)
	s.mu.Unlock()

	s.logger.Debug().
		Str("session_id", sessionID).
		Msg("Chat session ended")
	return nil
}
