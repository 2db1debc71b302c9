package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/order-desk-assistant/agent/contract"
	nodex "github.com/tanpawarit/order-desk-assistant/agent/nodes"
	statex "github.com/tanpawarit/order-desk-assistant/agent/state"
	logx "github.com/tanpawarit/order-desk-assistant/pkg/logger"
)

// ApologyReply is what Run returns whenever a message cannot be answered.
const ApologyReply = "❌ Sorry, I encountered an error. Please try rephrasing your question."

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

type Config struct {
	MaxTurns int
}

// Assistant is built once at startup and shared by every front end.
type Assistant struct {
	store      statex.Store
	dispatcher contractx.Dispatcher

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	maxTurns int
	logger   zerolog.Logger
	now      func() time.Time
}

func New(store statex.Store, dispatcher contractx.Dispatcher, cfg Config) (*Assistant, error) {
	if store == nil {
		return nil, errors.New("history store is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}

	a := &Assistant{
		store:      store,
		dispatcher: dispatcher,
		maxTurns:   cfg.MaxTurns,
		logger:     logx.Component("assistant"),
		now:        time.Now,
	}

	graphRunner, err := a.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	a.graphRunner = graphRunner

	return a, nil
}

func (a *Assistant) HandleMessage(ctx context.Context, sessionID string, text string) (string, error) {
	out, err := a.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}

// Run answers one message and never fails: errors and panics are logged and
// replaced by ApologyReply.
func (a *Assistant) Run(ctx context.Context, sessionID string, text string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error().
				Str("session_id", sessionID).
				Str("panic", fmt.Sprint(r)).
				Msg("assistant panicked")
			reply = ApologyReply
		}
	}()

	reply, err := a.HandleMessage(ctx, sessionID, text)
	if err != nil {
		a.logger.Error().
			Err(err).
			Str("session_id", sessionID).
			Msg("handle message failed")
		return ApologyReply
	}
	return reply
}

func (a *Assistant) Reset(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrInvalidSession
	}
	return a.store.Delete(ctx, sessionID)
}
