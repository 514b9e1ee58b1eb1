package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"server_go/internal/domain"
	"server_go/internal/service"
)

type startConversationRequest struct {
	UserID      string `json:"userId"`
	OtherUserID string `json:"otherUserId"`
}

type getConversationsRequest struct {
	UserID string `json:"userId"`
}

func handleStartConversation(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startConversationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if req.UserID == "" || req.OtherUserID == "" {
			writeError(w, fmt.Errorf("%w: user ids are required", domain.ErrInvalidInput))
			return
		}

		conv, err := convSvc.Start(r.Context(), req.UserID, req.OtherUserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"conversationId": conv.ID})
	}
}

func handleGetConversations(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req getConversationsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		convs, err := convSvc.ListForUser(r.Context(), req.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		if convs == nil {
			convs = []*domain.Conversation{}
		}
		writeJSON(w, http.StatusOK, convs)
	}
}
