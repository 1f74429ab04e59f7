package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/sales-operator/internal/entity"
)

func TestLeadService_Create(t *testing.T) {
	ctx := context.Background()
	repo := new(mockLeadRepo)
	events := new(mockPublisher)
	svc := NewLeadService(repo, events)

	in := entity.NewLeadInput{Name: "Ana", Email: "ana@acme.com"}
	stored := &entity.Lead{ID: 3, Name: "Ana", Email: "ana@acme.com", Status: entity.LeadStatusNew}
	repo.On("Create", ctx, in).Return(int64(3), nil)
	repo.On("Get", ctx, int64(3)).Return(stored, nil)
	events.On("Publish", ctx, eventOfType(EventLeadCreated)).Return(nil)

	lead, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, stored, lead)
	repo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestLeadService_CreateValidationSkipsEvent(t *testing.T) {
	ctx := context.Background()
	repo := new(mockLeadRepo)
	events := new(mockPublisher)
	svc := NewLeadService(repo, events)

	repo.On("Create", ctx, mock.Anything).Return(int64(0), entity.ValidationError{Field: "name", Message: "is required"})

	_, err := svc.Create(ctx, entity.NewLeadInput{})
	assert.ErrorIs(t, err, entity.ErrValidation)
	events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestLeadService_PublishFailureIsNotReturned(t *testing.T) {
	ctx := context.Background()
	repo := new(mockLeadRepo)
	events := new(mockPublisher)
	svc := NewLeadService(repo, events)

	repo.On("UpdateStatus", ctx, int64(5), "qualified").Return(nil)
	repo.On("Get", ctx, int64(5)).Return(&entity.Lead{ID: 5, Status: "qualified"}, nil)
	events.On("Publish", ctx, eventOfType(EventLeadStatusChanged)).Return(errors.New("broker down"))

	lead, err := svc.UpdateStatus(ctx, 5, "qualified")
	require.NoError(t, err)
	assert.Equal(t, "qualified", lead.Status)
	events.AssertExpectations(t)
}

func TestLeadService_UpdateStatusNotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(mockLeadRepo)
	svc := NewLeadService(repo, nil)

	repo.On("UpdateStatus", ctx, int64(9), "lost").Return(entity.NotFoundError{Entity: "lead", ID: 9})

	_, err := svc.UpdateStatus(ctx, 9, "lost")
	assert.ErrorIs(t, err, entity.ErrNotFound)
	repo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestLeadService_ListAndFind(t *testing.T) {
	ctx := context.Background()
	repo := new(mockLeadRepo)
	svc := NewLeadService(repo, nil)

	leads := []*entity.Lead{{ID: 2}, {ID: 1}}
	repo.On("List", ctx, entity.LeadFilter{Limit: 2}).Return(leads)
	repo.On("FindByEmail", ctx, "a@b.c").Return(leads, nil)

	got, err := svc.List(ctx, entity.LeadFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, leads, got)

	found, err := svc.FindByEmail(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}
