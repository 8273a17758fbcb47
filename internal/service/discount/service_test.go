package discount

import (
	"context"
	"testing"
	"time"

	"github.com/gatepass/gatepass/internal/domain"
	"github.com/gatepass/gatepass/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCode() *domain.DiscountCode {
	return &domain.DiscountCode{
		Code:      "SAVE10",
		Type:      domain.DiscountPercentage,
		Value:     10,
		ValidFrom: time.Now().Add(-time.Hour),
		ValidTill: time.Now().Add(time.Hour),
		Active:    true,
	}
}

func TestEvaluate_Percentage(t *testing.T) {
	cents, reason := Evaluate(validCode(), 1, 10000, time.Now())
	assert.Empty(t, reason)
	assert.Equal(t, int64(1000), cents)
}

func TestEvaluate_PercentageCappedAt100(t *testing.T) {
	dc := validCode()
	dc.Value = 150

	cents, reason := Evaluate(dc, 1, 10000, time.Now())
	assert.Empty(t, reason)
	assert.Equal(t, int64(10000), cents)
}

func TestEvaluate_FixedCappedAtAmount(t *testing.T) {
	dc := validCode()
	dc.Type = domain.DiscountFixed
	dc.Value = 5000

	cents, reason := Evaluate(dc, 1, 3000, time.Now())
	assert.Empty(t, reason)
	assert.Equal(t, int64(3000), cents)
}

func TestEvaluate_ChecksRunInOrder(t *testing.T) {
	now := time.Now()

	// a code failing several rules reports the first one
	dc := validCode()
	dc.Active = false
	dc.ValidTill = now.Add(-time.Minute)
	dc.MaxUses = 1
	dc.UsedCount = 1

	_, reason := Evaluate(dc, 1, 1000, now)
	assert.Equal(t, ReasonInactive, reason)

	dc.Active = true
	_, reason = Evaluate(dc, 1, 1000, now)
	assert.Equal(t, ReasonExpired, reason)

	dc.ValidTill = now.Add(time.Hour)
	_, reason = Evaluate(dc, 1, 1000, now)
	assert.Equal(t, ReasonExhausted, reason)
}

func TestEvaluate_NotYetValid(t *testing.T) {
	dc := validCode()
	dc.ValidFrom = time.Now().Add(time.Hour)
	dc.ValidTill = time.Now().Add(2 * time.Hour)

	_, reason := Evaluate(dc, 1, 1000, time.Now())
	assert.Equal(t, ReasonNotYetValid, reason)
}

func TestEvaluate_EventAllowList(t *testing.T) {
	dc := validCode()
	dc.EventIDs = []int64{7, 8}

	_, reason := Evaluate(dc, 1, 1000, time.Now())
	assert.Equal(t, ReasonNotApplicable, reason)

	cents, reason := Evaluate(dc, 8, 1000, time.Now())
	assert.Empty(t, reason)
	assert.Equal(t, int64(100), cents)
}

func TestEvaluate_EmptyAllowListAppliesEverywhere(t *testing.T) {
	_, reason := Evaluate(validCode(), 42, 1000, time.Now())
	assert.Empty(t, reason)
}

func TestEvaluate_UnlimitedUses(t *testing.T) {
	dc := validCode()
	dc.MaxUses = 0
	dc.UsedCount = 100000

	_, reason := Evaluate(dc, 1, 1000, time.Now())
	assert.Empty(t, reason)
}

type fakeStore struct {
	codes map[string]*domain.DiscountCode
}

func (s *fakeStore) GetByCode(_ context.Context, code string) (*domain.DiscountCode, error) {
	dc, ok := s.codes[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return dc, nil
}

func TestValidate(t *testing.T) {
	svc := New(&fakeStore{codes: map[string]*domain.DiscountCode{"SAVE10": validCode()}})

	res, err := svc.Validate(context.Background(), "SAVE10", 1, 10000)
	require.NoError(t, err)

	assert.True(t, res.Valid)
	assert.Equal(t, int64(1000), res.DiscountCents)
	assert.Empty(t, res.Reason)
}

func TestValidate_UnknownCodeIsNotAnError(t *testing.T) {
	svc := New(&fakeStore{codes: map[string]*domain.DiscountCode{}})

	res, err := svc.Validate(context.Background(), "NOPE", 1, 10000)
	require.NoError(t, err)

	assert.False(t, res.Valid)
	assert.Equal(t, ReasonNotFound, res.Reason)
}

func TestValidate_DoesNotConsumeUses(t *testing.T) {
	dc := validCode()
	dc.MaxUses = 1
	svc := New(&fakeStore{codes: map[string]*domain.DiscountCode{"SAVE10": dc}})

	for i := 0; i < 3; i++ {
		res, err := svc.Validate(context.Background(), "SAVE10", 1, 10000)
		require.NoError(t, err)
		assert.True(t, res.Valid)
	}
	assert.Equal(t, int32(0), dc.UsedCount)
}
