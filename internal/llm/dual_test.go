package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averyhart/qa-advisor/internal/chat"
)

type stubCompleter struct {
	reply chat.Reply
	err   error

	calls    int
	gotModel string
}

func (s *stubCompleter) Complete(_ context.Context, _ string, _ []chat.Message, settings chat.ModelSettings) (chat.Reply, error) {
	s.calls++
	s.gotModel = settings.Model
	return s.reply, s.err
}

func TestDualSender_PrimarySucceeds(t *testing.T) {
	primary := &stubCompleter{reply: chat.Reply{Content: "from primary"}}
	secondary := &stubCompleter{reply: chat.Reply{Content: "from secondary"}}
	sender := NewDualSender(primary, secondary, "gpt-4o")

	reply, err := sender.Complete(context.Background(), "system", nil, testSettings())

	require.NoError(t, err)
	assert.Equal(t, "from primary", reply.Content)
	assert.Equal(t, 0, secondary.calls)
}

func TestDualSender_FailsOverOnce(t *testing.T) {
	primary := &stubCompleter{err: errors.New("primary down")}
	secondary := &stubCompleter{reply: chat.Reply{Content: "from secondary"}}
	sender := NewDualSender(primary, secondary, "gpt-4o")

	settings := testSettings()
	settings.Model = "claude-sonnet-4-0"
	reply, err := sender.Complete(context.Background(), "system", nil, settings)

	require.NoError(t, err)
	assert.Equal(t, "from secondary", reply.Content)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
	// Failover swaps in the secondary's model identifier
	assert.Equal(t, "gpt-4o", secondary.gotModel)
}

func TestDualSender_BothFail(t *testing.T) {
	primaryErr := errors.New("primary down")
	secondaryErr := errors.New("secondary down")
	sender := NewDualSender(&stubCompleter{err: primaryErr}, &stubCompleter{err: secondaryErr}, "")

	_, err := sender.Complete(context.Background(), "system", nil, testSettings())

	require.Error(t, err)
	assert.ErrorIs(t, err, primaryErr)
	assert.ErrorIs(t, err, secondaryErr)
}

func TestDualSender_NoFailoverAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := &stubCompleter{err: context.Canceled}
	secondary := &stubCompleter{reply: chat.Reply{Content: "from secondary"}}
	sender := NewDualSender(primary, secondary, "")

	_, err := sender.Complete(ctx, "system", nil, testSettings())

	require.Error(t, err)
	assert.Equal(t, 0, secondary.calls)
}
