package kafka

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"

	"pousada/internal/domain/reservation"
)

type recordingInvalidator struct {
	calls []string
}

func (r *recordingInvalidator) Invalidate(tenantID string, id reservation.ID) {
	r.calls = append(r.calls, tenantID+"/"+string(id))
}

func TestInvalidationHandler_Routes(t *testing.T) {
	cases := []struct {
		name string
		msg  *sarama.ConsumerMessage
		want string
	}{
		{
			name: "header and key",
			msg: &sarama.ConsumerMessage{
				Key:     []byte("42"),
				Headers: []*sarama.RecordHeader{{Key: []byte("tenant_id"), Value: []byte("p1")}},
			},
			want: "p1/42",
		},
		{
			name: "cloudevent body",
			msg:  &sarama.ConsumerMessage{Value: []byte(`{"subject":"43","tenantid":"p2","data":{}}`)},
			want: "p2/43",
		},
		{
			name: "pms feed body",
			msg:  &sarama.ConsumerMessage{Value: []byte(`{"pousadaId":"p3","reservaId":"44"}`)},
			want: "p3/44",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv := &recordingInvalidator{}
			h := InvalidationHandler{Cache: inv}
			assert.NoError(t, h.Handle(context.Background(), tc.msg))
			assert.Equal(t, []string{tc.want}, inv.calls)
		})
	}
}

func TestInvalidationHandler_Unroutable(t *testing.T) {
	inv := &recordingInvalidator{}
	h := InvalidationHandler{Cache: inv}
	err := h.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte(`not json`)})
	assert.ErrorIs(t, err, ErrUnroutableChange)
	assert.Empty(t, inv.calls)
}
