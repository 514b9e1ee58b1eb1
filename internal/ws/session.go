package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// writeWait bounds how long one write may block on a slow consumer. A
// receiver that cannot drain within this window is treated as dead.
const writeWait = 10 * time.Second

// Conn is the transport surface a session needs. *websocket.Conn satisfies
// it; tests substitute an in-memory implementation.
type Conn interface {
	WriteJSON(v any) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Session is the in-memory state of one authenticated connection. It never
// outlives the underlying transport connection.
type Session struct {
	ID     string
	UserID int64

	mu   sync.Mutex
	conn Conn
}

func NewSession(userID int64, conn Conn) *Session {
	return &Session{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   conn,
	}
}

// WriteEvent serializes one event to the connection. Writes are mutex-guarded
// because room broadcasts and acks come from different goroutines. Each write
// carries a deadline; a failed write closes the connection, which makes the
// gateway's read loop exit and run its cleanup.
func (s *Session) WriteEvent(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(v); err != nil {
		_ = s.conn.Close()
		return err
	}
	return nil
}

func (s *Session) Close() error {
	return s.conn.Close()
}
