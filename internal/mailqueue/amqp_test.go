package mailqueue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-contacts-api/internal/logging"
)

type fakeAck struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (a *fakeAck) Ack(bool) error {
	a.acked = true
	return nil
}

func (a *fakeAck) Nack(_ bool, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func TestProcessMessage(t *testing.T) {
	valid, err := json.Marshal(job("a@example.com"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		body     []byte
		sendErr  error
		wantAck  bool
		wantNack bool
		requeue  bool
		outcome  string
	}{
		{name: "delivered", body: valid, wantAck: true, outcome: OutcomeSent},
		{name: "send failure is requeued", body: valid, sendErr: errors.New("smtp down"), wantNack: true, requeue: true, outcome: OutcomeFailed},
		{name: "malformed json is dropped", body: []byte("{not json"), wantNack: true, outcome: OutcomeDropped},
		{name: "incomplete job is dropped", body: []byte(`{"to":"a@example.com"}`), wantNack: true, outcome: OutcomeDropped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := newRecordingSender()
			sender.err = tt.sendErr
			rec := &countingRecorder{}
			ack := &fakeAck{}

			processMessage(context.Background(), logging.Discard(), sender, rec, tt.body, ack)

			assert.Equal(t, tt.wantAck, ack.acked)
			assert.Equal(t, tt.wantNack, ack.nacked)
			assert.Equal(t, tt.requeue, ack.requeued)
			assert.Equal(t, 1, rec.get(tt.outcome))
		})
	}
}
