package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pinauth/pin-relay/internal/model"
)

// MemoryStore backs both repositories with process memory. It is used when
// no DATABASE_URL is configured and in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	pins     []model.Pin
	feedback []model.Feedback
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Pins() PinRepository {
	return &memoryPinRepo{store: s}
}

func (s *MemoryStore) Feedback() FeedbackRepository {
	return &memoryFeedbackRepo{store: s}
}

// InTx holds the write lock for the whole of fn and restores the previous
// contents when fn fails or panics.
func (s *MemoryStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pins, feedback := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.pins, s.feedback = pins, feedback
			panic(p)
		}
	}()

	if err := fn(memoryTx{store: s}); err != nil {
		s.pins, s.feedback = pins, feedback
		return err
	}
	return nil
}

func (s *MemoryStore) snapshot() ([]model.Pin, []model.Feedback) {
	pins := make([]model.Pin, len(s.pins))
	for i, p := range s.pins {
		pins[i] = *clonePin(p)
	}
	feedback := make([]model.Feedback, len(s.feedback))
	for i, fb := range s.feedback {
		fb.FeedbackComment = cloneString(fb.FeedbackComment)
		feedback[i] = fb
	}
	return pins, feedback
}

// lock and rlock are no-ops for repositories handed out inside InTx, which
// already holds the write lock.
func (s *MemoryStore) lock(held bool) func() {
	if held {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) rlock(held bool) func() {
	if held {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

type memoryTx struct {
	store *MemoryStore
}

func (t memoryTx) Pins() PinRepository {
	return &memoryPinRepo{store: t.store, held: true}
}

func (t memoryTx) Feedback() FeedbackRepository {
	return &memoryFeedbackRepo{store: t.store, held: true}
}

func (t memoryTx) InTx(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

type memoryPinRepo struct {
	store *MemoryStore
	held  bool
}

func (r *memoryPinRepo) Create(ctx context.Context, params model.CreatePinParams) (*model.Pin, error) {
	s := r.store
	defer s.lock(r.held)()

	pin := model.Pin{
		ID:                 int64(len(s.pins) + 1),
		PinID:              params.PinID,
		SessionID:          params.SessionID,
		Authentic:          params.Authentic,
		AuthenticityRating: params.AuthenticityRating,
		CreatedAt:          s.now(),
	}
	s.pins = append(s.pins, pin)
	return clonePin(pin), nil
}

func (r *memoryPinRepo) FindByID(ctx context.Context, id int64) (*model.Pin, error) {
	s := r.store
	defer s.rlock(r.held)()

	if id < 1 || id > int64(len(s.pins)) {
		return nil, nil
	}
	return clonePin(s.pins[id-1]), nil
}

func (r *memoryPinRepo) FindByPinID(ctx context.Context, pinID string) (*model.Pin, error) {
	s := r.store
	defer s.rlock(r.held)()

	if i := s.latestPinIndex(pinID); i >= 0 {
		return clonePin(s.pins[i]), nil
	}
	return nil, nil
}

func (r *memoryPinRepo) UpdateFeedback(ctx context.Context, params model.UpdatePinFeedbackParams) (*model.Pin, error) {
	s := r.store
	defer s.lock(r.held)()

	i := s.latestPinIndex(params.PinID)
	if i < 0 {
		return nil, nil
	}

	agreement := params.UserAgreement
	submittedAt := s.now()
	s.pins[i].UserAgreement = &agreement
	s.pins[i].FeedbackComment = cloneString(params.FeedbackComment)
	s.pins[i].FeedbackSubmittedAt = &submittedAt
	return clonePin(s.pins[i]), nil
}

func (r *memoryPinRepo) List(ctx context.Context, limit, offset int) ([]model.Pin, error) {
	s := r.store
	defer s.rlock(r.held)()

	pins := []model.Pin{}
	limit, offset, ok := normalizePage(limit, offset)
	if !ok {
		return pins, nil
	}
	for i := len(s.pins) - 1 - offset; i >= 0 && len(pins) < limit; i-- {
		pins = append(pins, *clonePin(s.pins[i]))
	}
	return pins, nil
}

func (r *memoryPinRepo) Count(ctx context.Context) (int, error) {
	defer r.store.rlock(r.held)()
	return len(r.store.pins), nil
}

func (s *MemoryStore) latestPinIndex(pinID string) int {
	for i := len(s.pins) - 1; i >= 0; i-- {
		if s.pins[i].PinID == pinID {
			return i
		}
	}
	return -1
}

type memoryFeedbackRepo struct {
	store *MemoryStore
	held  bool
}

func (r *memoryFeedbackRepo) Create(ctx context.Context, params model.CreateFeedbackParams) (*model.Feedback, error) {
	s := r.store
	defer s.lock(r.held)()

	fb := model.Feedback{
		ID:              int64(len(s.feedback) + 1),
		AnalysisID:      params.AnalysisID,
		PinID:           params.PinID,
		UserAgreement:   params.UserAgreement,
		FeedbackComment: cloneString(params.FeedbackComment),
		SubmittedAt:     s.now(),
	}
	s.feedback = append(s.feedback, fb)
	out := fb
	out.FeedbackComment = cloneString(fb.FeedbackComment)
	return &out, nil
}

func (r *memoryFeedbackRepo) FindByAnalysisID(ctx context.Context, analysisID int64) ([]model.Feedback, error) {
	s := r.store
	defer s.rlock(r.held)()

	out := []model.Feedback{}
	for _, fb := range s.feedback {
		if fb.AnalysisID == analysisID {
			out = append(out, fb)
		}
	}
	return out, nil
}

func (r *memoryFeedbackRepo) FindAll(ctx context.Context) ([]model.Feedback, error) {
	s := r.store
	defer s.rlock(r.held)()

	out := make([]model.Feedback, len(s.feedback))
	copy(out, s.feedback)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memoryFeedbackRepo) Count(ctx context.Context) (int, error) {
	defer r.store.rlock(r.held)()
	return len(r.store.feedback), nil
}

func clonePin(p model.Pin) *model.Pin {
	if p.UserAgreement != nil {
		a := *p.UserAgreement
		p.UserAgreement = &a
	}
	if p.FeedbackSubmittedAt != nil {
		t := *p.FeedbackSubmittedAt
		p.FeedbackSubmittedAt = &t
	}
	p.FeedbackComment = cloneString(p.FeedbackComment)
	return &p
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
