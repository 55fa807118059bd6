package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bankledger/internal/infrastructure/clock"
	"github.com/iho/bankledger/internal/usecase"
)

type stubProcessor struct {
	passes       atomic.Int32
	transferRuns atomic.Int32
	processErr   error
}

func (s *stubProcessor) ProcessAll(ctx context.Context) (usecase.ProcessResult, error) {
	s.passes.Add(1)
	if s.processErr != nil {
		return usecase.ProcessResult{}, s.processErr
	}
	return usecase.ProcessResult{AccountsProcessed: 2, PaymentsExecuted: 3}, nil
}

func (s *stubProcessor) ProcessScheduledTransfers(ctx context.Context) (int, error) {
	s.transferRuns.Add(1)
	return 1, nil
}

func TestPaymentRunner_RunOnce(t *testing.T) {
	processor := &stubProcessor{}
	runner := NewPaymentRunner(PaymentRunnerConfig{Processor: processor, Clock: clock.NewFake(start), Logger: zerolog.Nop()})

	result, transfers := runner.RunOnce(context.Background())

	assert.Equal(t, 3, result.PaymentsExecuted)
	assert.Equal(t, 1, transfers)
}

func TestPaymentRunner_RunOnceContinuesAfterError(t *testing.T) {
	processor := &stubProcessor{processErr: errors.New("registry down")}
	runner := NewPaymentRunner(PaymentRunnerConfig{Processor: processor, Clock: clock.NewFake(start), Logger: zerolog.Nop()})

	_, transfers := runner.RunOnce(context.Background())

	assert.Equal(t, 1, transfers)
	assert.Equal(t, int32(1), processor.transferRuns.Load())
}

func TestPaymentRunner_Start(t *testing.T) {
	processor := &stubProcessor{}
	fake := clock.NewFake(start)
	runner := NewPaymentRunner(PaymentRunnerConfig{
		Processor: processor,
		Clock:     fake,
		Logger:    zerolog.Nop(),
		Interval:  time.Minute,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runner.Start(ctx)
	}()

	require.True(t, fake.BlockUntil(1, time.Second))
	assert.Equal(t, int32(1), processor.passes.Load())

	assert.ErrorIs(t, runner.Start(ctx), ErrJobRunning)

	fake.Advance(time.Minute)
	require.True(t, fake.BlockUntil(1, time.Second))
	assert.Equal(t, int32(2), processor.passes.Load())

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}
