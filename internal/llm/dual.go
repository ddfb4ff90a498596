package llm

import (
	"context"
	"errors"
	"log"

	"github.com/averyhart/qa-advisor/internal/chat"
)

// DualSender tries a primary completer and fails over to a secondary when the
// primary errors. Each provider is tried at most once per call; there is no
// retry of the same provider.
type DualSender struct {
	primary   chat.Completer
	secondary chat.Completer

	// secondaryModel, when non-empty, replaces the model identifier for
	// failover calls. The two providers rarely share model names.
	secondaryModel string
}

func NewDualSender(primary, secondary chat.Completer, secondaryModel string) *DualSender {
	return &DualSender{primary: primary, secondary: secondary, secondaryModel: secondaryModel}
}

func (s *DualSender) Complete(
	ctx context.Context,
	system string,
	messages []chat.Message,
	settings chat.ModelSettings,
) (chat.Reply, error) {
	reply, primaryErr := s.primary.Complete(ctx, system, messages, settings)
	if primaryErr == nil {
		return reply, nil
	}
	if ctx.Err() != nil {
		return chat.Reply{}, primaryErr
	}

	log.Printf("Primary provider failed, falling back to secondary: %v", primaryErr)

	if s.secondaryModel != "" {
		settings.Model = s.secondaryModel
	}
	reply, secondaryErr := s.secondary.Complete(ctx, system, messages, settings)
	if secondaryErr != nil {
		return chat.Reply{}, errors.Join(primaryErr, secondaryErr)
	}
	return reply, nil
}
