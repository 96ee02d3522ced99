package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"adcore/internal/core/domain"
	"adcore/internal/core/port"
)

// DeclineMethod is the payment method the sandbox always declines.
const DeclineMethod = "sandbox_decline"

var _ port.PaymentGateway = (*Sandbox)(nil)

// Sandbox is an in-process gateway for local runs. It approves every call
// except those paid with DeclineMethod, and answers replays of an
// idempotency key with the first reference.
type Sandbox struct {
	mu   sync.Mutex
	refs map[string]string
}

func NewSandbox() *Sandbox {
	return &Sandbox{refs: make(map[string]string)}
}

func (s *Sandbox) Charge(ctx context.Context, call port.PaymentCall) (port.PaymentReceipt, error) {
	return s.settle(ctx, "ch", call)
}

func (s *Sandbox) Refund(ctx context.Context, call port.PaymentCall) (port.PaymentReceipt, error) {
	return s.settle(ctx, "re", call)
}

func (s *Sandbox) settle(ctx context.Context, prefix string, call port.PaymentCall) (port.PaymentReceipt, error) {
	if err := ctx.Err(); err != nil {
		return port.PaymentReceipt{}, fmt.Errorf("%w: %v", domain.ErrGatewayFailure, err)
	}
	if call.Method == DeclineMethod {
		return port.PaymentReceipt{}, fmt.Errorf("%w: sandbox declined transaction %d", domain.ErrGatewayFailure, call.TransactionID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ref, ok := s.refs[call.IdempotencyKey]; ok {
		return port.PaymentReceipt{Reference: ref}, nil
	}
	ref := fmt.Sprintf("sbx_%s_%s", prefix, uuid.NewString())
	if call.IdempotencyKey != "" {
		s.refs[call.IdempotencyKey] = ref
	}
	return port.PaymentReceipt{Reference: ref}, nil
}
