package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"server_go/internal/domain"
	"server_go/internal/security"
	"server_go/internal/service"
)

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

// MakeHandler returns the HTTP handler for the /ws endpoint.
//
// The handshake carries `token` and `userId` query parameters. Both are
// required; the token is verified against the claimed user and the user must
// resolve to an internal record before the upgrade happens (fail-closed).
// After that the handler dispatches inbound events:
//   - join-room -> move the connection into the conversation's room
//   - message   -> ingest pipeline: persist, update summary, fan out
func MakeHandler(
	registry *Registry,
	rooms *Rooms,
	tokens *security.TokenService,
	identity *service.IdentityService,
	msgSvc *service.MessageService,
	allowedOrigins []string,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin: checkOrigin,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		externalID := r.URL.Query().Get("userId")
		if token == "" || externalID == "" {
			http.Error(w, "authentication error: token or userId missing", http.StatusUnauthorized)
			return
		}

		if err := tokens.VerifyForUser(token, externalID); err != nil {
			http.Error(w, "authentication error: invalid credentials", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		user, err := identity.ResolveExternal(ctx, externalID)
		if err != nil {
			http.Error(w, "authentication error: unknown user", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// The request context expires with the router's request timeout, but
		// the connection outlives the handshake. Dispatch work keeps the
		// request's values without inheriting its deadline.
		ctx = context.WithoutCancel(ctx)

		sess := NewSession(user.ID, conn)
		registry.Add(sess)
		defer func() {
			rooms.Leave(sess)
			registry.Remove(sess)
			log.Printf("ws: user %d disconnected (session %s)", user.ID, sess.ID)
		}()
		log.Printf("ws: user %d connected (session %s, %d online)", user.ID, sess.ID, registry.Count())

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			dispatch(ctx, sess, rooms, msgSvc, data)
		}
	}
}

func dispatch(ctx context.Context, sess *Session, rooms *Rooms, msgSvc *service.MessageService, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		_ = sess.WriteEvent(newErrorEvent("malformed event"))
		return
	}

	switch env.Event {

	case "join-room":
		var ev joinRoomEvent
		if err := decodeStrict(data, &ev); err != nil {
			// A join without a conversation id mutates nothing.
			log.Printf("ws: invalid join-room from user %d: %v", sess.UserID, err)
			return
		}
		rooms.Join(sess, ev.ConversationID)
		log.Printf("ws: user %d joined room %d", sess.UserID, ev.ConversationID)
		_ = sess.WriteEvent(roomJoinedEvent{
			Event:          "room-joined",
			ConversationID: ev.ConversationID,
			Message:        "Successfully joined conversation room",
		})

	case "message":
		var ev messageEvent
		if err := decodeStrict(data, &ev); err != nil {
			_ = sess.WriteEvent(newErrorEvent("message requires conversationId and non-empty content"))
			return
		}
		msg, err := msgSvc.Send(ctx, sess.UserID, service.SendInput{
			ConversationID: ev.ConversationID,
			Content:        ev.Content,
			MessageType:    ev.MessageType,
		})
		if err != nil {
			_ = sess.WriteEvent(newErrorEvent(errorMessageFor(err)))
			return
		}
		// The room broadcast is the sender's confirmation. A sender that has
		// not joined the room still gets an explicit ack with the durable ID.
		if current, ok := rooms.Current(sess); !ok || current != msg.ConversationID {
			_ = sess.WriteEvent(service.MessageEvent{
				Event:          "message",
				ID:             msg.ID,
				ConversationID: msg.ConversationID,
				SenderID:       msg.SenderID,
				Content:        msg.Content,
				MessageType:    msg.MessageType,
				Timestamp:      msg.CreatedAt,
			})
		}

	default:
		log.Printf("ws: unknown event type %q from user %d", env.Event, sess.UserID)
		_ = sess.WriteEvent(newErrorEvent("unknown event type"))
	}
}

// errorMessageFor keeps storage internals out of client-facing error events.
func errorMessageFor(err error) string {
	var invalid *domain.InvalidInputError
	switch {
	case errors.As(err, &invalid):
		return invalid.Reason
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid input"
	case errors.Is(err, domain.ErrNotFound):
		return "conversation not found"
	case errors.Is(err, domain.ErrForbidden):
		return "not allowed for this conversation"
	default:
		return "failed to send message"
	}
}
