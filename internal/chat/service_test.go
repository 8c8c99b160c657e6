package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techhourse/internal/behavior"
	"techhourse/internal/catalog"
	"techhourse/internal/gateway"
	"techhourse/internal/prompt"
)

type fakeSource struct {
	snap   *behavior.Snapshot
	phones []catalog.Phone
	err    error
}

func (f *fakeSource) LatestBehavior(ctx context.Context) (*behavior.Snapshot, error) {
	return f.snap, f.err
}

func (f *fakeSource) ListPhones(ctx context.Context) ([]catalog.Phone, error) {
	return f.phones, f.err
}

type fakeCompleter struct {
	mu      sync.Mutex
	calls   int
	message string
	system  string
	respond func(ctx context.Context) gateway.Result
}

func (f *fakeCompleter) Complete(ctx context.Context, message, systemPrompt string) gateway.Result {
	f.mu.Lock()
	f.calls++
	f.message, f.system = message, systemPrompt
	f.mu.Unlock()
	return f.respond(ctx)
}

func reply(text string) func(context.Context) gateway.Result {
	return func(context.Context) gateway.Result {
		return gateway.Result{Kind: gateway.KindOK, Reply: text, StatusCode: 200}
	}
}

var testPhones = []catalog.Phone{
	{ID: 1, Model: "Mate 60 Pro", Brand: "华为", Price: "6999"},
	{ID: 2, Model: "Xiaomi 14", Brand: "小米", Price: "3999"},
}

func newService(gw Completer, src prompt.Source, deadline time.Duration) *Service {
	return NewService(prompt.New(nil), gw, src, deadline, nil)
}

func TestSendReplied(t *testing.T) {
	gw := &fakeCompleter{respond: reply("推荐小米14")}
	svc := newService(gw, &fakeSource{phones: testPhones}, time.Second)

	turn := svc.Send(context.Background(), "  推荐一款手机  ")

	assert.Equal(t, StatusReplied, turn.Status)
	assert.True(t, turn.Replied())
	assert.Equal(t, "推荐小米14", turn.Text)
	assert.Equal(t, gateway.KindOK, turn.Kind)
	assert.NotEmpty(t, turn.ID)
	assert.Equal(t, "推荐一款手机", gw.message)
	assert.Equal(t, prompt.Default(testPhones), gw.system)
	assert.Equal(t, gw.system, turn.Prompt)
}

func TestSendUsesPersonalizedPromptWhenBehaviorExists(t *testing.T) {
	snap := &behavior.Snapshot{Battery: "25%", ScreenUsage: "5小时"}
	gw := &fakeCompleter{respond: reply("ok")}
	svc := newService(gw, &fakeSource{snap: snap, phones: testPhones}, time.Second)

	svc.Send(context.Background(), "hi")
	assert.Equal(t, prompt.Personalized(*snap, testPhones), gw.system)
}

func TestSendDegradesOnReadFailure(t *testing.T) {
	gw := &fakeCompleter{respond: reply("ok")}
	svc := newService(gw, &fakeSource{err: errors.New("disk gone")}, time.Second)

	turn := svc.Send(context.Background(), "hi")
	assert.Equal(t, StatusReplied, turn.Status)
	assert.Equal(t, prompt.Default(nil), gw.system)
}

func TestSendEmptyMessage(t *testing.T) {
	gw := &fakeCompleter{respond: reply("never")}
	svc := newService(gw, &fakeSource{}, time.Second)

	turn := svc.Send(context.Background(), "   ")
	assert.Equal(t, StatusFailed, turn.Status)
	assert.Equal(t, emptyMessageText, turn.Text)
	assert.Error(t, turn.Err)
	assert.Zero(t, gw.calls, "empty messages never reach the gateway")
}

func TestSendFailureKinds(t *testing.T) {
	tests := []struct {
		name string
		res  gateway.Result
		want string
	}{
		{"unauthorized", gateway.Result{Kind: gateway.KindUnauthorized, StatusCode: 401}, "API密钥无效，请检查配置"},
		{"rate limited", gateway.Result{Kind: gateway.KindRateLimited, StatusCode: 429}, "请求过于频繁，请稍后再试"},
		{"empty", gateway.Result{Kind: gateway.KindEmpty, StatusCode: 200}, "抱歉，AI暂时无法回复。"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.res
			gw := &fakeCompleter{respond: func(context.Context) gateway.Result { return res }}
			turn := newService(gw, &fakeSource{}, time.Second).Send(context.Background(), "hi")
			assert.Equal(t, StatusFailed, turn.Status)
			assert.Equal(t, tt.want, turn.Text)
			assert.Equal(t, tt.res.Kind, turn.Kind)
		})
	}
}

// A gateway that ignores ctx must not hold the turn past its deadline.
func TestSendDeadlineWithUnresponsiveGateway(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	gw := &fakeCompleter{respond: func(context.Context) gateway.Result {
		<-release
		return gateway.Result{Kind: gateway.KindFailure, Err: errors.New("late")}
	}}
	svc := newService(gw, &fakeSource{}, 50*time.Millisecond)

	start := time.Now()
	turn := svc.Send(context.Background(), "hi")

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, StatusTimedOut, turn.Status)
	assert.Equal(t, gateway.KindTimedOut, turn.Kind)
	assert.Equal(t, "响应超时", turn.Text)
}

// End to end against a slow server: the real client sees the turn deadline
// and reports a timeout rather than a generic error.
func TestSendDeadlineWithRealClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := gateway.NewClient(gateway.Options{BaseURL: srv.URL, APIKey: "k", Model: "m", Timeout: 5 * time.Second}, nil)
	svc := newService(client, &fakeSource{phones: testPhones}, 100*time.Millisecond)

	turn := svc.Send(context.Background(), "hi")
	require.Equal(t, StatusTimedOut, turn.Status)
	assert.Equal(t, "响应超时", turn.Text)
	assert.NotContains(t, turn.Text, "发生错误")
}

func TestSendCanceledByCaller(t *testing.T) {
	gw := &fakeCompleter{respond: func(ctx context.Context) gateway.Result {
		<-ctx.Done()
		return gateway.Result{Kind: gateway.KindCanceled, Err: ctx.Err()}
	}}
	svc := newService(gw, &fakeSource{}, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	turn := svc.Send(ctx, "hi")
	assert.Equal(t, StatusFailed, turn.Status)
	assert.Equal(t, gateway.KindCanceled, turn.Kind)
}

func TestCompare(t *testing.T) {
	gw := &fakeCompleter{respond: reply("买小米")}
	svc := newService(gw, &fakeSource{}, time.Second)

	turn, err := svc.Compare(context.Background(), testPhones)
	require.NoError(t, err)
	assert.Equal(t, StatusReplied, turn.Status)
	assert.Equal(t, prompt.Comparison(testPhones), gw.system)
	assert.Equal(t, "请对比Mate 60 Pro和Xiaomi 14这2款手机，分析它们的优缺点并给出购买建议。", gw.message)

	_, err = svc.Compare(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNothingToCompare)
	assert.Equal(t, 1, gw.calls)
}

func TestCompareRequest(t *testing.T) {
	three := append(append([]catalog.Phone{}, testPhones...), catalog.Phone{Model: "Pixel 9"})
	assert.Equal(t, "请对比Mate 60 Pro、Xiaomi 14和Pixel 9这3款手机，分析它们的优缺点并给出购买建议。", compareRequest(three))
	assert.True(t, strings.HasPrefix(compareRequest(testPhones[:1]), "请分析Mate 60 Pro"))
}

func TestNewServiceDefaultDeadline(t *testing.T) {
	svc := newService(&fakeCompleter{respond: reply("x")}, &fakeSource{}, 0)
	assert.Equal(t, DefaultDeadline, svc.Deadline())
}
