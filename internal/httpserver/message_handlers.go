package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"server_go/internal/domain"
	"server_go/internal/service"
)

func handleListMessages(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := chi.URLParam(r, "conversationID")
		convID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
			return
		}

		msgs, err := convSvc.ListMessages(r.Context(), convID)
		if err != nil {
			writeError(w, err)
			return
		}
		if msgs == nil {
			msgs = []*domain.Message{}
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}
