package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionForm_EmptyEmail(t *testing.T) {
	f := &SubscriptionForm{Name: "Sarah"}
	d := &stubDeliverer{}

	_, err := f.Submit(context.Background(), d)
	require.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Please fill in both your name and email address.", verr.Message)
	assert.Equal(t, []string{"email"}, verr.Missing)

	assert.Equal(t, "Sarah", f.Name)
	assert.Empty(t, f.Email)
	assert.Empty(t, d.subscriptions, "nothing may be emitted")
}

func TestSubscriptionForm_BothMissing(t *testing.T) {
	f := &SubscriptionForm{Name: " ", Email: ""}
	_, err := f.Submit(context.Background(), &stubDeliverer{})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"name", "email"}, verr.Missing)
}

func TestSubscriptionForm_Success(t *testing.T) {
	f := &SubscriptionForm{Name: "Sarah", Email: "s@x.com"}
	d := &stubDeliverer{}

	sub, err := f.Submit(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, Subscription{Name: "Sarah", Email: "s@x.com"}, *sub)
	assert.Equal(t, []Subscription{*sub}, d.subscriptions)
	assert.Equal(t, "Thank you Sarah! Your free eBook will be sent to s@x.com", sub.ThankYou())

	assert.Empty(t, f.Name)
	assert.Empty(t, f.Email)
}

func TestSubscriptionForm_DeliveryFailureKeepsFields(t *testing.T) {
	f := &SubscriptionForm{Name: "Sarah", Email: "s@x.com"}
	_, err := f.Submit(context.Background(), &stubDeliverer{err: errors.New("queue unavailable")})

	require.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Equal(t, "Sarah", f.Name)
	assert.Equal(t, "s@x.com", f.Email)
}
