package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	notifdomain "github.com/hoyacom/apiman/domain/notifications"
)

type stubHandler struct {
	wants    bool
	err      error
	received []notifdomain.NotificationDTO
}

func (s *stubHandler) Wants(notifdomain.NotificationDTO) bool { return s.wants }

func (s *stubHandler) Handle(ctx context.Context, n notifdomain.NotificationDTO) error {
	s.received = append(s.received, n)
	return s.err
}

func TestDispatchFiltersByWants(t *testing.T) {
	interested := &stubHandler{wants: true}
	uninterested := &stubHandler{wants: false}

	dispatcher := NewDispatcher(zap.NewNop())
	dispatcher.Register(interested, uninterested)

	dto := notifdomain.NotificationDTO{
		ID:     "n-1",
		Reason: notifdomain.ReasonAccountApprovalGranted,
	}
	dispatcher.Dispatch(context.Background(), dto)

	assert.Len(t, interested.received, 1)
	assert.Empty(t, uninterested.received)
}

func TestDispatchContinuesAfterHandlerError(t *testing.T) {
	failing := &stubHandler{wants: true, err: errors.New("smtp down")}
	healthy := &stubHandler{wants: true}

	dispatcher := NewDispatcher(zap.NewNop())
	dispatcher.Register(failing, healthy)

	dispatcher.Dispatch(context.Background(), notifdomain.NotificationDTO{ID: "n-1"})

	assert.Len(t, failing.received, 1)
	assert.Len(t, healthy.received, 1)
}

func TestDispatchWithoutHandlers(t *testing.T) {
	dispatcher := NewDispatcher(zap.NewNop())
	assert.NotPanics(t, func() {
		dispatcher.Dispatch(context.Background(), notifdomain.NotificationDTO{ID: "n-1"})
	})
}
