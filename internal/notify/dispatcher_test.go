package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EntryBot/internal/models"
	"EntryBot/internal/telegram_api"
	"EntryBot/internal/testutil"
)

type staticRecipients struct {
	list []models.Subscriber
	err  error
}

func (s staticRecipients) ListRecipients(ctx context.Context) ([]models.Subscriber, error) {
	return s.list, s.err
}

type recordingSender struct {
	mu     sync.Mutex
	sent   map[int64][]string
	failOn map[int64]bool
	block  map[int64]bool
}

func (s *recordingSender) SendText(ctx context.Context, chatID int64, text string) error {
	if s.block[chatID] {
		<-ctx.Done()
		return ctx.Err()
	}
	if s.failOn[chatID] {
		return errors.New("Forbidden: bot was blocked by the user")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sent == nil {
		s.sent = map[int64][]string{}
	}
	s.sent[chatID] = append(s.sent[chatID], text)
	return nil
}

func (s *recordingSender) chats() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []int64
	for id := range s.sent {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var sample = models.Entry{ID: 7, Name: "Ann", Email: "ann@example.com", Phone: "+380500000001", ServiceType: "yoga"}

func subs(ids ...int64) []models.Subscriber {
	out := make([]models.Subscriber, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Subscriber{ChatID: id, Authorized: true, NotifyEnabled: true})
	}
	return out
}

func TestDispatch_OneMessagePerRecipient(t *testing.T) {
	sender := &recordingSender{}
	d, err := NewDispatcher(staticRecipients{list: subs(1, 2, 3)}, sender, "")
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(context.Background(), sample))

	assert.Equal(t, []int64{1, 2, 3}, sender.chats())
	for _, msgs := range sender.sent {
		require.Len(t, msgs, 1)
		for _, want := range []string{"7", "Ann", "ann@example.com", "+380500000001", "yoga"} {
			assert.Contains(t, msgs[0], want)
		}
	}
}

func TestDispatch_FailingRecipientDoesNotBlockOthers(t *testing.T) {
	sender := &recordingSender{failOn: map[int64]bool{2: true}}
	d, err := NewDispatcher(staticRecipients{list: subs(1, 2, 3)}, sender, "")
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(context.Background(), sample))
	assert.Equal(t, []int64{1, 3}, sender.chats())
}

func TestDispatch_HangingRecipientIsBoundedByContext(t *testing.T) {
	sender := &recordingSender{block: map[int64]bool{1: true}}
	d, err := NewDispatcher(staticRecipients{list: subs(1, 2)}, sender, "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, d.Dispatch(ctx, sample))
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []int64{2}, sender.chats())
}

// stuckSender не смотрит на ctx и висит до закрытия release.
type stuckSender struct {
	release chan struct{}
}

func (s stuckSender) SendText(ctx context.Context, chatID int64, text string) error {
	<-s.release
	return nil
}

func TestDispatch_ReturnsAtDeadlineEvenIfSenderIgnoresContext(t *testing.T) {
	sender := stuckSender{release: make(chan struct{})}
	t.Cleanup(func() { close(sender.release) })
	d, err := NewDispatcher(staticRecipients{list: subs(1, 2, 3, 4, 5, 6)}, sender, "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, d.Dispatch(ctx, sample))
	assert.Less(t, time.Since(start), time.Second)
}

type slowSender struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	sent     atomic.Int32
}

func (s *slowSender) SendText(ctx context.Context, chatID int64, text string) error {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	s.sent.Add(1)
	return nil
}

func TestDispatch_LimitsParallelSends(t *testing.T) {
	ids := make([]int64, 0, 20)
	for i := int64(1); i <= 20; i++ {
		ids = append(ids, i)
	}
	sender := &slowSender{}
	d, err := NewDispatcher(staticRecipients{list: subs(ids...)}, sender, "")
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(context.Background(), sample))
	assert.Equal(t, int32(20), sender.sent.Load())
	assert.LessOrEqual(t, sender.peak.Load(), int32(maxParallelSends))
	assert.Positive(t, sender.peak.Load())
}

func TestDispatch_HungBotAPIDoesNotWedgeDispatch(t *testing.T) {
	release := make(chan struct{})
	var unexpected atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Entry","username":"entry_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/deleteWebhook"):
			fmt.Fprint(w, `{"ok":true,"result":true}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			select {
			case <-r.Context().Done():
			case <-release:
			}
		default:
			unexpected.Add(1)
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	bot, err := telegram_api.InitBot("123:abc", srv.URL+"/bot%s/%s", false)
	require.NoError(t, err)
	d, err := NewDispatcher(staticRecipients{list: subs(1, 2)}, bot, "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, d.Dispatch(ctx, sample))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Zero(t, unexpected.Load())
}

func TestDispatch_RecipientLookupFailureIsReturned(t *testing.T) {
	sender := &recordingSender{}
	d, err := NewDispatcher(staticRecipients{err: errors.New("db down")}, sender, "")
	require.NoError(t, err)

	err = d.Dispatch(context.Background(), sample)
	require.Error(t, err)
	assert.Empty(t, sender.chats())
}

func TestDispatch_NoRecipients(t *testing.T) {
	sender := &recordingSender{}
	d, err := NewDispatcher(staticRecipients{}, sender, "")
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(context.Background(), sample))
	assert.Empty(t, sender.chats())
}

func TestNewDispatcher_CustomAndBrokenTemplates(t *testing.T) {
	d, err := NewDispatcher(staticRecipients{}, &recordingSender{}, "#{{.ID}} {{.Name}} / {{.ServiceType}}")
	require.NoError(t, err)
	text, err := d.Format(sample)
	require.NoError(t, err)
	assert.Equal(t, "#7 Ann / yoga", text)

	_, err = NewDispatcher(staticRecipients{}, &recordingSender{}, "{{.Name")
	assert.Error(t, err)

	_, err = NewDispatcher(staticRecipients{}, &recordingSender{}, "{{.Address}}")
	assert.Error(t, err, "unknown fields fail at startup")
}

func TestDispatch_UsesOnlyAuthorizedSubscribers(t *testing.T) {
	_, repo := testutil.NewStore(t)
	ctx := context.Background()

	for _, chatID := range []int64{1, 2, 3} {
		_, _, err := repo.CreateSubscriber(ctx, chatID, "op")
		require.NoError(t, err)
	}
	require.NoError(t, repo.SetAuthorized(ctx, 1, true))
	_, err := repo.ToggleNotify(ctx, 1)
	require.NoError(t, err)
	_, err = repo.ToggleNotify(ctx, 2)
	require.NoError(t, err)
	require.NoError(t, repo.SetAuthorized(ctx, 3, true))

	sender := &recordingSender{}
	d, err := NewDispatcher(repo, sender, "")
	require.NoError(t, err)

	require.NoError(t, d.Dispatch(ctx, sample))
	assert.Equal(t, []int64{1}, sender.chats())
}
