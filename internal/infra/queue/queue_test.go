package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/sales-operator/internal/entity"
)

type fakeChannel struct {
	mu         sync.Mutex
	published  []amqp.Publishing
	keys       []string
	exchanges  map[string]string
	queues     map[string]amqp.Table
	bindings   []string
	err        error
	deliveries chan amqp.Delivery
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{exchanges: map[string]string{}, queues: map[string]amqp.Table{}}
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, exchange+"/"+key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	f.exchanges[name] = kind
	return f.err
}

func (f *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, args amqp.Table) (amqp.Queue, error) {
	f.queues[name] = args
	return amqp.Queue{Name: name}, f.err
}

func (f *fakeChannel) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	f.bindings = append(f.bindings, exchange+"/"+key+"->"+name)
	return f.err
}

func (f *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.deliveries, nil
}

// fakeAck records how a delivery was settled.
type fakeAck struct {
	mu      sync.Mutex
	acked   int
	nacked  int
	requeue bool
}

func (a *fakeAck) Ack(uint64, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked++
	return nil
}

func (a *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked++
	a.requeue = requeue
	return nil
}

func (a *fakeAck) Reject(_ uint64, requeue bool) error { return a.Nack(0, false, requeue) }

func (a *fakeAck) counts() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.acked, a.nacked
}

type fakeLeads struct {
	mu  sync.Mutex
	got []entity.NewLeadInput
	err error
}

func (f *fakeLeads) Create(_ context.Context, in entity.NewLeadInput) (*entity.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.got = append(f.got, in)
	return &entity.Lead{ID: int64(len(f.got)), Name: in.Name, Email: in.Email, Status: entity.LeadStatusNew}, nil
}

func TestSetupTopology(t *testing.T) {
	ch := newFakeChannel()
	require.NoError(t, setupTopology(ch))

	assert.Equal(t, "topic", ch.exchanges[ExchangeName])
	assert.Equal(t, "direct", ch.exchanges[DLXName])
	assert.Equal(t, DLXName, ch.queues[IntakeQueue]["x-dead-letter-exchange"])
	assert.Contains(t, ch.queues, IntakeDLQ)
	assert.Contains(t, ch.bindings, ExchangeName+"/"+IntakeRoutingKey+"->"+IntakeQueue)
	assert.Contains(t, ch.bindings, DLXName+"/"+IntakeRoutingKey+"->"+IntakeDLQ)
}

func TestSetupTopology_StopsOnError(t *testing.T) {
	ch := newFakeChannel()
	ch.err = errors.New("channel closed")
	assert.Error(t, setupTopology(ch))
	assert.Empty(t, ch.bindings)
}

func TestProducer_Publish(t *testing.T) {
	ch := newFakeChannel()
	p := &Producer{Ch: ch, Exchange: ExchangeName}
	at := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

	err := p.Publish(context.Background(), Event{Type: "task.completed", OccurredAt: at, Data: map[string]int{"id": 7}})
	require.NoError(t, err)

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, []string{ExchangeName + "/task.completed"}, ch.keys)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, at, msg.Timestamp)
	_, err = uuid.Parse(msg.MessageId)
	assert.NoError(t, err)

	var decoded struct {
		Type string         `json:"type"`
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "task.completed", decoded.Type)
	assert.Equal(t, 7, decoded.Data["id"])
}

func TestProducer_PublishError(t *testing.T) {
	ch := newFakeChannel()
	ch.err = amqp.ErrClosed
	p := &Producer{Ch: ch, Exchange: ExchangeName}

	err := p.Publish(context.Background(), Event{Type: "lead.created"})
	assert.ErrorIs(t, err, amqp.ErrClosed)
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.Publish(context.Background(), Event{Type: "lead.created"}))
}

func delivery(body string) (amqp.Delivery, *fakeAck) {
	ack := &fakeAck{}
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, MessageId: "m-1", Body: []byte(body)}, ack
}

func TestLeadIntakeWorker_Handle(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		createErr error
		wantAck   int
		wantNack  int
	}{
		{"valid lead", `{"name":"Ana","email":"ana@acme.com"}`, nil, 1, 0},
		{"malformed json", `{"name":`, nil, 0, 1},
		{"rejected by validation", `{"name":""}`, entity.ValidationError{Field: "name", Message: "is required"}, 0, 1},
		{"storage failure", `{"name":"Ana"}`, entity.NewStorageError("create lead", errors.New("down")), 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leads := &fakeLeads{err: tt.createErr}
			w := &LeadIntakeWorker{Leads: leads, Queue: IntakeQueue}

			d, ack := delivery(tt.body)
			w.handle(context.Background(), d)

			acked, nacked := ack.counts()
			assert.Equal(t, tt.wantAck, acked)
			assert.Equal(t, tt.wantNack, nacked)
			assert.False(t, ack.requeue)
		})
	}
}

func queueLeadsCreated(t *testing.T) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "leads_created_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "source" && label.GetValue() == "queue" {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestLeadIntakeWorker_CountsQueueLeads(t *testing.T) {
	w := &LeadIntakeWorker{Leads: &fakeLeads{}, Queue: IntakeQueue}
	before := queueLeadsCreated(t)

	d, _ := delivery(`{"name":"Ana"}`)
	w.handle(context.Background(), d)
	assert.Equal(t, before+1, queueLeadsCreated(t))

	bad, _ := delivery(`{"name":`)
	w.handle(context.Background(), bad)
	assert.Equal(t, before+1, queueLeadsCreated(t))
}

func TestLeadIntakeWorker_StartStopsOnCancel(t *testing.T) {
	ch := newFakeChannel()
	ch.deliveries = make(chan amqp.Delivery, 1)
	leads := &fakeLeads{}
	w := &LeadIntakeWorker{Channel: ch, Leads: leads, Queue: IntakeQueue}

	d, ack := delivery(`{"name":"Bruno","company":"Globex"}`)
	ch.deliveries <- d

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.Eventually(t, func() bool {
		acked, _ := ack.counts()
		return acked == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}

	leads.mu.Lock()
	defer leads.mu.Unlock()
	require.Len(t, leads.got, 1)
	assert.Equal(t, "Globex", leads.got[0].Company)
}

func TestLeadIntakeWorker_StartFailsWhenChannelCloses(t *testing.T) {
	ch := newFakeChannel()
	ch.deliveries = make(chan amqp.Delivery)
	close(ch.deliveries)
	w := &LeadIntakeWorker{Channel: ch, Leads: &fakeLeads{}, Queue: IntakeQueue}

	assert.Error(t, w.Start(context.Background()))
}

func TestLeadIntakeWorker_ConsumeError(t *testing.T) {
	ch := newFakeChannel()
	ch.err = errors.New("access refused")
	w := &LeadIntakeWorker{Channel: ch, Leads: &fakeLeads{}, Queue: IntakeQueue}

	assert.ErrorContains(t, w.Start(context.Background()), "access refused")
}
