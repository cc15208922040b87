package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinyhome/internal/domain/shared/events"
)

type sampleEvent struct {
	Ref string    `json:"ref"`
	At  time.Time `json:"at"`
}

func (e sampleEvent) EventName() string     { return "sample.happened" }
func (e sampleEvent) AggregateID() string   { return e.Ref }
func (e sampleEvent) OccurredAt() time.Time { return e.At }

type recordingOutbox struct {
	records []EventRecord
	addErr  error
}

func (o *recordingOutbox) Add(_ context.Context, rec EventRecord) error {
	if o.addErr != nil {
		return o.addErr
	}
	o.records = append(o.records, rec)
	return nil
}

func (o *recordingOutbox) Flush(context.Context) error { return nil }

func TestRecordDomainEvents(t *testing.T) {
	box := &recordingOutbox{}
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.FixedZone("CET", 3600))
	n := 0
	enc := JSONEventEncoder{
		IDGenerator: func() string { n++; return "id-" + string(rune('0'+n)) },
		Headers:     map[string]string{"source": "test"},
	}

	err := RecordDomainEvents(context.Background(), box, enc, []events.DomainEvent{
		sampleEvent{Ref: "A", At: at},
		sampleEvent{Ref: "B", At: at},
	})
	require.NoError(t, err)
	require.Len(t, box.records, 2)

	rec := box.records[0]
	assert.Equal(t, "id-1", rec.ID)
	assert.Equal(t, "sample.happened", rec.Name)
	assert.Equal(t, "A", rec.Aggregate)
	assert.Equal(t, time.UTC, rec.OccurredAt.Location())
	assert.Equal(t, "test", rec.Headers["source"])
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Payload, &payload))
	assert.Equal(t, "A", payload["ref"])
	assert.Equal(t, "B", box.records[1].Aggregate)
}

func TestRecordDomainEvents_PropagatesAddError(t *testing.T) {
	boom := errors.New("full")
	err := RecordDomainEvents(context.Background(), &recordingOutbox{addErr: boom}, nil, []events.DomainEvent{sampleEvent{Ref: "A"}})
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, RecordDomainEvents(context.Background(), nil, nil, []events.DomainEvent{sampleEvent{}}))
}

func TestJSONEventEncoder_DefaultsToUUID(t *testing.T) {
	rec, err := JSONEventEncoder{}.Encode(sampleEvent{Ref: "A"})
	require.NoError(t, err)
	assert.Len(t, rec.ID, 36)
}
