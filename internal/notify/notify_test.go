package notify

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/layoutswap/internal/commit"
	"git.home.luguber.info/inful/layoutswap/internal/pipeline"
)

type message struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	msgs []message
	err  error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, message{subject: subject, data: data})
	return nil
}

func TestNotifier_Emit(t *testing.T) {
	pub := &fakePublisher{}
	n := New(pub, "layoutswap.records")
	n.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	require.NoError(t, n.Emit(t.Context(), pipeline.Record{
		RunID: "r1",
		Kind:  pipeline.KindMatch,
		URL:   "https://s/_pages/a",
	}))
	require.NoError(t, n.Emit(t.Context(), pipeline.Record{
		RunID:     "r1",
		Kind:      pipeline.KindCommit,
		URL:       "https://s/_pages/b",
		Layout:    "s/_components/a",
		NewLayout: "s/_components/b",
		Result:    &commit.Result{URL: "https://s/_pages/b", Status: commit.StatusError, Error: "500: boom"},
	}))

	require.Len(t, pub.msgs, 2)
	assert.Equal(t, "layoutswap.records.match", pub.msgs[0].subject)
	assert.Equal(t, "layoutswap.records.commit", pub.msgs[1].subject)

	var event Event
	require.NoError(t, json.Unmarshal(pub.msgs[1].data, &event))
	assert.Equal(t, "r1", event.RunID)
	assert.Equal(t, "error", event.Status)
	assert.Equal(t, "500: boom", event.Error)
	assert.Equal(t, "s/_components/b", event.NewLayout)
	assert.Equal(t, 2026, event.Timestamp.Year())

	assert.NotContains(t, string(pub.msgs[0].data), "status")
}

func TestNotifier_PublishError(t *testing.T) {
	n := New(&fakePublisher{err: errors.New("nats: connection closed")}, "x")
	err := n.Emit(t.Context(), pipeline.Record{Kind: pipeline.KindMatch, URL: "u"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection closed")
}

func TestNotifier_CloseWithoutConnection(t *testing.T) {
	require.NoError(t, New(&fakePublisher{}, "x").Close())
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", "x")
	require.Error(t, err)
}
