package alert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mikey/catalog-auditor/internal/core"
	"github.com/mikey/catalog-auditor/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryStore struct {
	state map[string]time.Time
	saves int
}

func (m *memoryStore) Load(ctx context.Context) (map[string]time.Time, error) {
	out := make(map[string]time.Time, len(m.state))
	for k, v := range m.state {
		out[k] = v
	}
	return out, nil
}

func (m *memoryStore) Save(ctx context.Context, state map[string]time.Time) error {
	m.saves++
	m.state = make(map[string]time.Time, len(state))
	for k, v := range state {
		m.state[k] = v
	}
	return nil
}

type sentMail struct {
	subject string
	body    string
}

type recordingNotifier struct {
	sent        []sentMail
	failOn      string
	undelivered bool
}

func (r *recordingNotifier) Notify(ctx context.Context, subject, body string) error {
	if r.failOn != "" && strings.Contains(subject, r.failOn) {
		return errors.New("smtp unavailable")
	}
	r.sent = append(r.sent, sentMail{subject: subject, body: body})
	if r.undelivered {
		return core.ErrNotDelivered
	}
	return nil
}

var today = time.Date(2024, 6, 10, 14, 0, 0, 0, time.Local)

func newTestAggregator(t *testing.T, store *memoryStore, notifier *recordingNotifier) *Aggregator {
	t.Helper()
	throttle, err := NewThrottle(context.Background(), store, DefaultCooldownDays, zap.NewNop())
	require.NoError(t, err)
	a := NewAggregator(notifier, throttle, utils.NewTextProcessor(zap.NewNop()),
		Options{SubjectPrefix: "[audit] "}, zap.NewNop())
	a.now = func() time.Time { return today }
	return a
}

func TestThrottleCooldown(t *testing.T) {
	throttle, err := NewThrottle(context.Background(), &memoryStore{}, 9, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, throttle.ShouldSend("missing_image", today))
	throttle.MarkSent("missing_image", today)
	assert.False(t, throttle.ShouldSend("missing_image", today))
	assert.False(t, throttle.ShouldSend("missing_image", today.AddDate(0, 0, 8)))
	assert.True(t, throttle.ShouldSend("missing_image", today.AddDate(0, 0, 9)))
	assert.True(t, throttle.ShouldSend("missing_image", today.AddDate(0, 1, 0)))
}

func TestThrottleUsesCalendarDays(t *testing.T) {
	throttle, err := NewThrottle(context.Background(), &memoryStore{}, 9, zap.NewNop())
	require.NoError(t, err)

	throttle.MarkSent("c", time.Date(2024, 6, 1, 23, 30, 0, 0, time.Local))
	assert.True(t, throttle.ShouldSend("c", time.Date(2024, 6, 10, 0, 15, 0, 0, time.Local)))
}

func TestFlushCapsDigestAndKeepsOrder(t *testing.T) {
	store := &memoryStore{}
	notifier := &recordingNotifier{}
	a := newTestAggregator(t, store, notifier)

	for i := 1; i <= 45; i++ {
		a.LogViolation("missing_image", fmt.Sprintf("product %d has no image", i), true)
	}
	require.NoError(t, a.Flush(context.Background()))

	require.Len(t, notifier.sent, 1)
	parts := strings.Split(notifier.sent[0].body, "\n\n")
	require.Len(t, parts, 40)
	assert.Equal(t, "product 1 has no image", parts[0])
	assert.Equal(t, "product 40 has no image", parts[39])
	assert.Equal(t, "[audit] Missing Image (45)", notifier.sent[0].subject)

	assert.Equal(t, 45, a.Counts()["missing_image"])
	assert.Contains(t, store.state, "missing_image")
}

func TestFlushRespectsThrottleAndPersistsRegardless(t *testing.T) {
	store := &memoryStore{state: map[string]time.Time{"bad_pennies": today.AddDate(0, 0, -3)}}
	notifier := &recordingNotifier{}
	a := newTestAggregator(t, store, notifier)

	a.LogViolation("bad_pennies", "variation 7 priced 19.30", true)
	require.NoError(t, a.Flush(context.Background()))

	assert.Empty(t, notifier.sent)
	assert.Equal(t, 1, store.saves)
	assert.True(t, store.state["bad_pennies"].Equal(today.AddDate(0, 0, -3)))
}

func TestFlushSkipsCountOnlyCategories(t *testing.T) {
	store := &memoryStore{}
	notifier := &recordingNotifier{}
	a := newTestAggregator(t, store, notifier)

	a.LogViolation("unused_tag", "tag clearance has no products", false)
	require.NoError(t, a.Flush(context.Background()))

	assert.Empty(t, notifier.sent)
	assert.NotContains(t, store.state, "unused_tag")
	assert.Equal(t, map[string]int{"unused_tag": 1}, a.Counts())
}

func TestFlushContinuesAfterSendFailure(t *testing.T) {
	store := &memoryStore{}
	notifier := &recordingNotifier{failOn: "Alpha"}
	a := newTestAggregator(t, store, notifier)

	a.LogViolation("alpha", "first", true)
	a.LogViolation("beta", "second", true)
	require.NoError(t, a.Flush(context.Background()))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "second", notifier.sent[0].body)
	assert.NotContains(t, store.state, "alpha")
	assert.Contains(t, store.state, "beta")
}

func TestFlushWithoutDeliveryLeavesThrottleUnchanged(t *testing.T) {
	store := &memoryStore{}
	notifier := &recordingNotifier{undelivered: true}
	a := newTestAggregator(t, store, notifier)

	a.LogViolation("bad_pennies", "variation 7 priced 19.30", true)
	require.NoError(t, a.Flush(context.Background()))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, 1, store.saves)
	assert.NotContains(t, store.state, "bad_pennies")
	assert.True(t, a.throttle.ShouldSend("bad_pennies", today))
}

func TestWriteSummary(t *testing.T) {
	a := newTestAggregator(t, &memoryStore{}, &recordingNotifier{})
	a.LogViolation("size_guide", "x", false)
	a.LogViolation("bad_pennies", "y", true)
	a.LogViolation("bad_pennies", "z", true)

	var buf bytes.Buffer
	require.NoError(t, a.WriteSummary(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"CATEGORY", "COUNT"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"bad_pennies", "2"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"size_guide", "1"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"total", "3"}, strings.Fields(lines[3]))
}
