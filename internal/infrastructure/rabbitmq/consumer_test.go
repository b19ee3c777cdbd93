package rabbitmq

import (
	"context"
	"errors"
	"testing"

	"github.com/bike-resale-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(ctx context.Context, e domain.Email) error {
	return m.Called(ctx, e).Error(0)
}

func TestHandle_AcksOnDelivery(t *testing.T) {
	s := new(mockSender)
	want := domain.Email{To: "a@b.com", Subject: "OTP", Text: "123456"}
	s.On("Send", mock.Anything, want).Return(nil)

	out := Handle(context.Background(), []byte(`{"to":"a@b.com","subject":"OTP","text":"123456"}`), s)
	assert.Equal(t, Ack, out)
	s.AssertExpectations(t)
}

func TestHandle_DropsMalformedPayload(t *testing.T) {
	s := new(mockSender)
	assert.Equal(t, NackDrop, Handle(context.Background(), []byte(`not json`), s))
	assert.Equal(t, NackDrop, Handle(context.Background(), []byte(`{"subject":"x","text":"y"}`), s))
	assert.Equal(t, NackDrop, Handle(context.Background(), []byte(`{"to":"a@b.com"}`), s))
	s.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestHandle_RequeuesOnSendFailure(t *testing.T) {
	s := new(mockSender)
	s.On("Send", mock.Anything, mock.Anything).Return(errors.New("mailgun down"))
	out := Handle(context.Background(), []byte(`{"to":"a@b.com","html":"<p>x</p>"}`), s)
	assert.Equal(t, NackRequeue, out)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "ack", Ack.String())
	assert.Equal(t, "dropped", NackDrop.String())
	assert.Equal(t, "requeued", NackRequeue.String())
}
