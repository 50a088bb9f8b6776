package bridge

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/discordbridge/internal/domain"
	"github.com/soyeahso/discordbridge/internal/logging"
	"github.com/soyeahso/discordbridge/internal/metrics"
)

func TestForwarder_NotRunningIsNoop(t *testing.T) {
	mt := metrics.New()
	m := NewManager((&fakeDialer{}).Dial, logging.New(nil, "silent"), mt)
	f := NewForwarder(m)

	assert.NotPanics(t, func() {
		f.SendMessage("1", "hi")
		f.SendEmbed("1", domain.Embed{Title: "t"})
		f.AddReaction("1", "2", "👍")
		f.Reply("1", "2", "re")
		f.SetPresence(domain.DefaultPresence())
	})

	var dmErr error
	called := false
	f.SendDirectMessage("3", "psst", func(err error) { called, dmErr = true, err })
	assert.True(t, called)
	assert.ErrorIs(t, dmErr, domain.ErrNotConnected)

	f.SendDirectMessage("3", "psst", nil)

	n, err := testutil.GatherAndCount(mt.Registry(), "discordbridge_actions_total")
	require.NoError(t, err)
	assert.Equal(t, 6, n, "one skipped series per action")
}

func TestForwarder_PassesThrough(t *testing.T) {
	m, d := newTestManager(t)
	c := start(t, m, d)
	f := NewForwarder(m)

	f.SendMessage("10", "hello")
	f.SendEmbed("10", domain.Embed{Title: "News"})
	f.AddReaction("10", "20", "🔥")
	f.Reply("10", "20", "agreed")
	f.SetPresence(domain.Presence{Status: domain.StatusIdle, Activity: "afk"})

	var dmErr error
	f.SendDirectMessage("30", "psst", func(err error) { dmErr = err })
	require.NoError(t, dmErr)

	assert.Equal(t, []string{
		"send:10:hello",
		"embed:10:News",
		"react:10:20:🔥",
		"reply:10:20:agreed",
		"presence:idle",
		"dm:30:psst",
	}, c.Calls())
}

func TestForwarder_DirectMessageFailureReported(t *testing.T) {
	m, d := newTestManager(t)
	c := start(t, m, d)
	f := NewForwarder(m)

	tests := []struct {
		name         string
		err          error
		unauthorized bool
	}{
		{"unauthorized", &domain.RemoteError{Op: "dm", Status: 401, Err: errors.New("401: Unauthorized")}, true},
		{"forbidden", &domain.RemoteError{Op: "dm", Status: 403, Err: errors.New("403: Forbidden")}, true},
		{"transient", errors.New("dial tcp: i/o timeout"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.sendErr = tt.err
			var got error
			f.SendDirectMessage("30", "psst", func(err error) { got = err })
			require.Error(t, got)
			assert.Equal(t, tt.unauthorized, domain.IsUnauthorized(got))
		})
	}
}

func TestForwarder_LogsUnauthorizedHint(t *testing.T) {
	var buf safeBuffer
	d := &fakeDialer{}
	m := NewManager(d.Dial, logging.New(&buf, "debug"), nil)
	defer m.Shutdown()
	c := start(t, m, d)
	c.sendErr = &domain.RemoteError{Op: "dm", Status: 401, Err: errors.New("nope")}

	NewForwarder(m).SendDirectMessage("30", "psst", nil)
	assert.Contains(t, buf.String(), "direct message rejected")
	assert.Contains(t, buf.String(), "Bot ' prefix")
}
