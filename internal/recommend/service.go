package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kalambet/synk/internal/metrics"
	"github.com/kalambet/synk/internal/storage"
)

// SlotStore persists the per-user result slot.
type SlotStore interface {
	SaveRecommendation(r storage.Recommendation) error
	GetRecommendation(userID string) (storage.Recommendation, error)
}

// Entry is the content of a user's result slot.
type Entry struct {
	Request   Request   `json:"request"`
	Result    Result    `json:"result"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service runs submissions and owns each user's result slot.
type Service struct {
	suggester Suggester
	store     SlotStore
	timeout   time.Duration
	now       func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService creates a Service. A zero timeout leaves the deadline to the
// caller's context.
func NewService(suggester Suggester, store SlotStore, timeout time.Duration) *Service {
	return &Service{
		suggester: suggester,
		store:     store,
		timeout:   timeout,
		now:       time.Now,
		inFlight:  make(map[string]struct{}),
	}
}

func (s *Service) acquire(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[userID]; busy {
		return false
	}
	s.inFlight[userID] = struct{}{}
	return true
}

func (s *Service) release(userID string) {
	s.mu.Lock()
	delete(s.inFlight, userID)
	s.mu.Unlock()
}

// Submit validates req, calls the suggester once and stores the parsed
// result in the user's slot. On any failure the slot keeps its previous
// content.
func (s *Service) Submit(ctx context.Context, userID string, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		metrics.RecordRecommendation("invalid", 0)
		return Result{}, err
	}
	if !s.acquire(userID) {
		metrics.RecordRecommendation("in_flight", 0)
		return Result{}, ErrInFlight
	}
	defer s.release(userID)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := s.suggester.Suggest(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordRecommendation("failed", elapsed)
		slog.Warn("recommendation request failed", "user", userID, "error", err)
		return Result{}, fmt.Errorf("%w: %w", ErrSuggestionFailed, err)
	}

	result := ParseOutput(out)
	if err := s.save(userID, req, result); err != nil {
		metrics.RecordRecommendation("failed", elapsed)
		return Result{}, fmt.Errorf("%w: saving result: %w", ErrSuggestionFailed, err)
	}

	metrics.RecordRecommendation("ok", elapsed)
	slog.Debug("recommendation stored", "user", userID,
		"communities", len(result.SuggestedCommunities), "events", len(result.SuggestedEvents))
	return result, nil
}

func (s *Service) save(userID string, req Request, result Result) error {
	communities, err := json.Marshal(result.SuggestedCommunities)
	if err != nil {
		return err
	}
	events, err := json.Marshal(result.SuggestedEvents)
	if err != nil {
		return err
	}
	return s.store.SaveRecommendation(storage.Recommendation{
		UserID:      userID,
		Interests:   req.Interests,
		Location:    req.Location,
		Communities: string(communities),
		Events:      string(events),
		CreatedAt:   s.now(),
	})
}

// Last returns the user's result slot. ok is false when nothing has been
// stored yet.
func (s *Service) Last(ctx context.Context, userID string) (entry Entry, ok bool, err error) {
	rec, err := s.store.GetRecommendation(userID)
	if errors.Is(err, storage.ErrNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("loading recommendation: %w", err)
	}

	entry = Entry{
		Request:   Request{Interests: rec.Interests, Location: rec.Location},
		CreatedAt: rec.CreatedAt,
	}
	if err := json.Unmarshal([]byte(rec.Communities), &entry.Result.SuggestedCommunities); err != nil {
		return Entry{}, false, fmt.Errorf("decoding stored communities: %w", err)
	}
	if err := json.Unmarshal([]byte(rec.Events), &entry.Result.SuggestedEvents); err != nil {
		return Entry{}, false, fmt.Errorf("decoding stored events: %w", err)
	}
	return entry, true, nil
}
