package chat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/insectlab/bugradar/internal/sessionlog"
)

// Service answers questions about the session log through the local model.
// Answers are cached per (log generation, question) so repeated questions
// do not re-run inference on a Raspberry Pi class host.
type Service struct {
	store  *sessionlog.Store
	client *OllamaClient
	cache  *lru.Cache[string, string]
}

func NewService(store *sessionlog.Store, client *OllamaClient, cacheSize int) (*Service, error) {
	if cacheSize <= 0 {
		cacheSize = 64
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("chat cache: %w", err)
	}
	return &Service{store: store, client: client, cache: cache}, nil
}

// Ask returns the model's answer for a question over the current log state.
func (s *Service) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("empty question")
	}
	if len(question) > 2000 {
		return "", fmt.Errorf("question too long")
	}

	entries := s.store.Sessions()
	key := cacheKey(entries, question)
	if answer, ok := s.cache.Get(key); ok {
		return answer, nil
	}

	messages, err := BuildMessages(entries, question)
	if err != nil {
		return "", err
	}

	start := time.Now()
	answer, err := s.client.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	log.Printf("[Chat] answered in %v (%d sessions in context)", time.Since(start).Round(time.Millisecond), len(entries))

	s.cache.Add(key, answer)
	return answer, nil
}

// cacheKey hashes the question together with the latest session ID and the
// session count, so the cache invalidates as soon as a new snapshot lands.
func cacheKey(entries []sessionlog.SessionEntry, question string) string {
	h := sha256.New()
	if len(entries) > 0 {
		fmt.Fprintf(h, "%s|%d|", entries[len(entries)-1].ID, len(entries))
	}
	h.Write([]byte(question))
	return hex.EncodeToString(h.Sum(nil))
}
