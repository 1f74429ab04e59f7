package memory

import (
	"context"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/xavierca1/sales-operator/internal/entity"
)

// LeadStore keeps leads in a map. Callers always get copies.
type LeadStore struct {
	mu     sync.RWMutex
	leads  map[int64]entity.Lead
	nextID int64
	now    func() time.Time
}

func NewLeadStore() *LeadStore {
	return &LeadStore{leads: make(map[int64]entity.Lead), now: time.Now}
}

func (s *LeadStore) Create(ctx context.Context, in entity.NewLeadInput) (int64, error) {
	lead, err := entity.NewLead(in, s.now())
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	lead.ID = s.nextID
	s.leads[lead.ID] = *lead
	return lead.ID, nil
}

func (s *LeadStore) Get(ctx context.Context, id int64) (*entity.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lead, ok := s.leads[id]
	if !ok {
		return nil, entity.NotFoundError{Entity: "lead", ID: id}
	}
	return &lead, nil
}

func (s *LeadStore) UpdateStatus(ctx context.Context, id int64, status string) error {
	status, err := entity.NormalizeLeadStatus(status)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lead, ok := s.leads[id]
	if !ok {
		return entity.NotFoundError{Entity: "lead", ID: id}
	}
	lead.Status = status
	s.leads[id] = lead
	return nil
}

// List snapshots the matching leads each time the sequence is ranged over.
func (s *LeadStore) List(ctx context.Context, filter entity.LeadFilter) iter.Seq2[*entity.Lead, error] {
	return func(yield func(*entity.Lead, error) bool) {
		if err := filter.Validate(); err != nil {
			yield(nil, err)
			return
		}

		s.mu.RLock()
		var out []*entity.Lead
		for _, lead := range s.leads {
			if filter.Matches(&lead) {
				l := lead
				out = append(out, &l)
			}
		}
		s.mu.RUnlock()

		slices.SortFunc(out, func(a, b *entity.Lead) int {
			return entity.CompareLeads(a, b, filter.Order(), filter.Ascending)
		})
		if filter.Limit > 0 && len(out) > filter.Limit {
			out = out[:filter.Limit]
		}

		for _, lead := range out {
			if err := ctx.Err(); err != nil {
				yield(nil, entity.NewStorageError("list leads", err))
				return
			}
			if !yield(lead, nil) {
				return
			}
		}
	}
}

func (s *LeadStore) FindByEmail(ctx context.Context, email string) ([]*entity.Lead, error) {
	email = entity.NormalizeEmail(email)
	if email == "" {
		return nil, entity.ValidationError{Field: "email", Message: "is required"}
	}

	s.mu.RLock()
	var out []*entity.Lead
	for _, lead := range s.leads {
		if lead.Email == email {
			l := lead
			out = append(out, &l)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *entity.Lead) int {
		return entity.CompareLeads(a, b, entity.LeadOrderCreatedAt, false)
	})
	return out, nil
}
