// Package chat runs a single chat turn: it builds the system prompt, calls
// the completion gateway under the caller's deadline and turns the outcome
// into something displayable.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"techhourse/internal/catalog"
	"techhourse/internal/gateway"
	"techhourse/internal/logging"
	"techhourse/internal/prompt"
)

// DefaultDeadline bounds a turn end to end.
const DefaultDeadline = 20 * time.Second

// ErrNothingToCompare is returned by Compare when no phones are selected.
var ErrNothingToCompare = errors.New("no phones selected for comparison")

const emptyMessageText = "请输入消息内容"

// Completer is the completion call a turn is made of.
type Completer interface {
	Complete(ctx context.Context, message, systemPrompt string) gateway.Result
}

// Service runs chat turns.
type Service struct {
	builder  *prompt.Builder
	gateway  Completer
	source   prompt.Source
	deadline time.Duration
	logger   *logging.Logger
	now      func() time.Time
	newID    func() string
}

// NewService creates a chat service. A deadline of zero or less selects
// DefaultDeadline.
func NewService(builder *prompt.Builder, gw Completer, src prompt.Source, deadline time.Duration, logger *logging.Logger) *Service {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	return &Service{
		builder:  builder,
		gateway:  gw,
		source:   src,
		deadline: deadline,
		logger:   logging.OrDiscard(logger),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Deadline returns the per-turn deadline.
func (s *Service) Deadline() time.Duration { return s.deadline }

// SystemPrompt returns the prompt the next turn would be sent with.
func (s *Service) SystemPrompt(ctx context.Context) string {
	return s.builder.Generate(ctx, s.source)
}

// Send runs one turn for message. It always returns a Turn; failures are
// reported through its Status and Text.
func (s *Service) Send(ctx context.Context, message string) Turn {
	message = strings.TrimSpace(message)
	if message == "" {
		return Turn{
			ID:      s.newID(),
			Status:  StatusFailed,
			Text:    emptyMessageText,
			Kind:    gateway.KindFailure,
			Started: s.now(),
			Err:     errors.New("empty message"),
		}
	}
	return s.run(ctx, message, s.SystemPrompt(ctx))
}

// Compare asks for purchase advice on phones, using their side-by-side
// summary as the system prompt.
func (s *Service) Compare(ctx context.Context, phones []catalog.Phone) (Turn, error) {
	if len(phones) == 0 {
		return Turn{}, ErrNothingToCompare
	}
	return s.run(ctx, compareRequest(phones), prompt.Comparison(phones)), nil
}

func compareRequest(phones []catalog.Phone) string {
	models := make([]string, len(phones))
	for i, p := range phones {
		models[i] = p.Model
	}
	var names string
	switch len(models) {
	case 1:
		return fmt.Sprintf("请分析%s这款手机的优缺点并给出购买建议。", models[0])
	case 2:
		names = models[0] + "和" + models[1]
	default:
		names = strings.Join(models[:len(models)-1], "、") + "和" + models[len(models)-1]
	}
	return fmt.Sprintf("请对比%s这%d款手机，分析它们的优缺点并给出购买建议。", names, len(models))
}

// run calls the gateway under the turn deadline. The call runs in its own
// goroutine so the turn ends at the deadline even if the gateway does not
// honor ctx.
func (s *Service) run(ctx context.Context, message, systemPrompt string) Turn {
	turn := Turn{ID: s.newID(), Message: message, Prompt: systemPrompt, Started: s.now()}
	logger := s.logger.WithContext("turn_id", turn.ID)

	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	done := make(chan gateway.Result, 1)
	go func() {
		done <- s.gateway.Complete(ctx, message, systemPrompt)
	}()

	var res gateway.Result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = gateway.Result{Kind: gateway.KindTimedOut, Err: ctx.Err()}
		if errors.Is(ctx.Err(), context.Canceled) {
			res.Kind = gateway.KindCanceled
		}
	}

	turn.Kind = res.Kind
	turn.Status = statusFor(res.Kind)
	turn.Text = res.Message()
	turn.Err = res.Err
	turn.ElapsedMS = s.now().Sub(turn.Started).Milliseconds()

	logger.WithFields(map[string]interface{}{
		"status": string(turn.Status),
		"kind":   res.Kind.String(),
	}).Info("chat turn finished")
	return turn
}
