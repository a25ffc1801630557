package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/shinyyama/marketplace-backend/internal/reqctx"
	"github.com/shinyyama/marketplace-backend/internal/repository"
	"go.uber.org/zap"
)

// LedgerService is the append-only message history of conversations plus
// the read markers used for unread accounting.
type LedgerService interface {
	// Append stores content from senderID. Blank content is dropped:
	// appended is false and no error is returned.
	Append(ctx context.Context, convID, senderID uint64, content string) (msg *model.Message, appended bool, err error)
	List(ctx context.Context, convID uint64) ([]model.Message, error)
	// ListAfter returns the messages strictly after afterID. ErrNotFound when
	// afterID is not a message of convID.
	ListAfter(ctx context.Context, convID, afterID uint64) ([]model.Message, error)
	Poll(ctx context.Context, p *Participant, afterID uint64) (*PollResult, error)
	MarkRead(ctx context.Context, userID, convID uint64) error
	UnreadCount(ctx context.Context, userID uint64) (int64, error)
}

type PollResult struct {
	Messages   []model.Message `json:"messages"`
	NextCursor uint64          `json:"nextCursor"`
}

type ledgerService struct {
	msgs  repository.MessageRepository
	log   *zap.Logger
	clock Clock
}

func NewLedgerService(msgs repository.MessageRepository, log *zap.Logger, clock Clock) LedgerService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ledgerService{msgs: msgs, log: log, clock: clock}
}

func (s *ledgerService) Append(ctx context.Context, convID, senderID uint64, content string) (*model.Message, bool, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, false, nil
	}
	msg := &model.Message{
		ConversationID: convID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      s.clock.now(),
	}
	if err := s.msgs.Create(ctx, msg); err != nil {
		return nil, false, err
	}
	return msg, true, nil
}

func (s *ledgerService) List(ctx context.Context, convID uint64) ([]model.Message, error) {
	return s.msgs.List(ctx, convID)
}

func (s *ledgerService) ListAfter(ctx context.Context, convID, afterID uint64) ([]model.Message, error) {
	ref, err := s.msgs.FindByID(ctx, afterID)
	if err != nil {
		return nil, notFound(err)
	}
	if ref.ConversationID != convID {
		return nil, ErrNotFound
	}
	return s.msgs.ListAfter(ctx, convID, ref)
}

// Poll returns what arrived after afterID and, when something did, moves the
// reader's marker so the inbox badge stays in step with what was shown.
func (s *ledgerService) Poll(ctx context.Context, p *Participant, afterID uint64) (*PollResult, error) {
	res := &PollResult{Messages: []model.Message{}, NextCursor: afterID}
	if afterID == 0 {
		return res, nil
	}
	msgs, err := s.ListAfter(ctx, p.Conversation.ID, afterID)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return res, nil
	}
	if err := s.MarkRead(ctx, p.UserID, p.Conversation.ID); err != nil {
		return nil, err
	}
	res.Messages = msgs
	res.NextCursor = msgs[len(msgs)-1].ID
	return res, nil
}

func (s *ledgerService) MarkRead(ctx context.Context, userID, convID uint64) error {
	return s.msgs.UpsertRead(ctx, userID, convID, s.clock.now())
}

func (s *ledgerService) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	n, err := s.msgs.CountUnread(ctx, userID)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("count unread failed", append(reqctx.Fields(ctx), zap.Error(err))...)
	}
	return n, err
}
