package events_test

import (
	"testing"

	"pingpong/internal/services/events"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		ev     events.Event
		want   string
	}{
		{
			name:   "with prefix",
			prefix: "pong",
			ev:     events.Event{Type: events.TypeMatchCreated, MatchID: "6f1c"},
			want:   "pong.match.6f1c.created",
		},
		{
			name: "without prefix",
			ev:   events.Event{Type: events.TypePointScored, MatchID: "abc"},
			want: "match.abc.point_scored",
		},
		{
			name:   "wildcards and dots in id are escaped",
			prefix: "pong",
			ev:     events.Event{Type: events.TypeMatchClosed, MatchID: "a.b*c>"},
			want:   "pong.match.a_b_c_.closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, events.Subject(tt.prefix, tt.ev))
		})
	}
}

func TestNopPublisher(t *testing.T) {
	var p events.Publisher = events.NopPublisher{}
	assert.NoError(t, p.Publish(events.Event{Type: events.TypeMatchCreated}))
	p.Close()
}
