package credits_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/jobapply/internal/common"
	"github.com/joseph-ayodele/jobapply/internal/credits"
	"github.com/joseph-ayodele/jobapply/internal/repository/repotest"
)

func newLedger(t *testing.T) (*credits.Ledger, *repotest.Env) {
	env := repotest.New(t)
	return credits.NewLedger(env.DB, env.Repos.Users, repotest.Logger()), env
}

func TestReserveExactBalance(t *testing.T) {
	ledger, env := newLedger(t)
	ctx := context.Background()
	u := env.User(t, 3, "")

	bal, err := ledger.Reserve(ctx, u.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, bal)

	_, err = ledger.Reserve(ctx, u.ID, 1)
	ie, ok := credits.IsInsufficient(err)
	require.True(t, ok)
	assert.Equal(t, 1, ie.Needed)
	assert.Equal(t, 0, ie.Have)
	assert.ErrorIs(t, err, common.ErrPaymentRequired)
}

func TestReserveRejectsNonPositive(t *testing.T) {
	ledger, env := newLedger(t)
	u := env.User(t, 3, "")
	for _, amount := range []int{0, -1} {
		_, err := ledger.Reserve(context.Background(), u.ID, amount)
		assert.ErrorIs(t, err, credits.ErrInvalidAmount)
	}
}

func TestReserveRollsBackWithinFailure(t *testing.T) {
	ledger, env := newLedger(t)
	ctx := context.Background()
	u := env.User(t, 5, "")
	boom := errors.New("task insert failed")

	_, err := ledger.Reserve(ctx, u.ID, 2, func(ctx context.Context) error { return boom })
	require.ErrorIs(t, err, boom)

	bal, err := ledger.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, bal)
}

func TestReserveConcurrentConservation(t *testing.T) {
	ledger, env := newLedger(t)
	ctx := context.Background()
	u := env.User(t, 5, "")

	var wg sync.WaitGroup
	var okCount, rejected atomic.Int32
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Reserve(ctx, u.ID, 1)
			switch {
			case err == nil:
				okCount.Add(1)
			case errors.Is(err, common.ErrPaymentRequired):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 5, okCount.Load())
	assert.EqualValues(t, 7, rejected.Load())
	bal, err := ledger.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, bal)
}

func TestAdjust(t *testing.T) {
	ledger, env := newLedger(t)
	ctx := context.Background()
	u := env.User(t, 2, "")

	bal, err := ledger.Adjust(ctx, u.ID, 10, "welcome bonus")
	require.NoError(t, err)
	assert.Equal(t, 12, bal)

	_, err = ledger.Adjust(ctx, u.ID, -20, "chargeback")
	assert.ErrorIs(t, err, credits.ErrNegativeBalance)

	bal, err = ledger.Adjust(ctx, u.ID, -12, "chargeback")
	require.NoError(t, err)
	assert.Equal(t, 0, bal)
}
