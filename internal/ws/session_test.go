package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteEventSetsWriteDeadline(t *testing.T) {
	sess, conn := newTestSession(1)

	before := time.Now()
	require.NoError(t, sess.WriteEvent("ping"))

	deadline := conn.lastDeadline()
	assert.False(t, deadline.IsZero())
	assert.True(t, deadline.After(before))
	assert.True(t, deadline.Before(before.Add(writeWait+time.Second)))
}

func TestWriteEventClosesOnWriteFailure(t *testing.T) {
	conn := &fakeConn{writeErr: assert.AnError}
	sess := NewSession(1, conn)

	err := sess.WriteEvent("ping")
	assert.ErrorIs(t, err, assert.AnError)
	assert.True(t, conn.isClosed())
}
