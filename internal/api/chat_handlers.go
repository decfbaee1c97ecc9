package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/insectlab/bugradar/internal/chat"
)

// ChatHandler forwards questions about the session log to the local model.
type ChatHandler struct {
	Service *chat.Service
	Timeout time.Duration
}

type ChatRequest struct {
	Question string `json:"question"`
}

type ChatResponse struct {
	Answer string `json:"answer"`
}

func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respondError(w, http.StatusBadRequest, "question is required")
		return
	}

	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	answer, err := h.Service.Ask(ctx, req.Question)
	if err != nil {
		if errors.Is(err, ctx.Err()) {
			respondError(w, http.StatusGatewayTimeout, "model did not answer in time")
			return
		}
		respondError(w, http.StatusBadGateway, "chat backend error: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, ChatResponse{Answer: answer})
}
