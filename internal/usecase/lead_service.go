package usecase

import (
	"context"
	"log"
	"time"

	"github.com/xavierca1/sales-operator/internal/entity"
	"github.com/xavierca1/sales-operator/internal/infra/queue"
)

type LeadService struct {
	Repo   entity.LeadRepository
	Events EventPublisher
	now    func() time.Time
}

func NewLeadService(repo entity.LeadRepository, events EventPublisher) *LeadService {
	if events == nil {
		events = queue.NoopPublisher{}
	}
	return &LeadService{Repo: repo, Events: events, now: time.Now}
}

// Create stores the lead and returns it as persisted.
func (s *LeadService) Create(ctx context.Context, in entity.NewLeadInput) (*entity.Lead, error) {
	id, err := s.Repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	lead, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ [LEADS] created lead %d (%s)", lead.ID, lead.Name)
	s.publish(ctx, EventLeadCreated, lead)
	return lead, nil
}

func (s *LeadService) Get(ctx context.Context, id int64) (*entity.Lead, error) {
	return s.Repo.Get(ctx, id)
}

func (s *LeadService) UpdateStatus(ctx context.Context, id int64, status string) (*entity.Lead, error) {
	if err := s.Repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	lead, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventLeadStatusChanged, lead)
	return lead, nil
}

func (s *LeadService) List(ctx context.Context, filter entity.LeadFilter) ([]*entity.Lead, error) {
	return entity.Collect(s.Repo.List(ctx, filter))
}

func (s *LeadService) FindByEmail(ctx context.Context, email string) ([]*entity.Lead, error) {
	return s.Repo.FindByEmail(ctx, email)
}

// publish never fails the caller: the write it reports is already stored.
func (s *LeadService) publish(ctx context.Context, eventType string, data any) {
	event := queue.Event{Type: eventType, OccurredAt: s.now().UTC(), Data: data}
	if err := s.Events.Publish(ctx, event); err != nil {
		log.Printf("⚠️ [LEADS] failed to publish %s: %v", eventType, err)
	}
}
