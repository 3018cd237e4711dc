package booking

import (
	"context"
	"fmt"
	"strings"
)

const subscriptionIncompleteMessage = "Please fill in both your name and email address."

// Subscription is the payload for a free eBook request.
type Subscription struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ThankYou is the message shown after the request is accepted.
func (s Subscription) ThankYou() string {
	return fmt.Sprintf("Thank you %s! Your free eBook will be sent to %s", s.Name, s.Email)
}

// SubscriptionForm is the eBook sign-up form.
type SubscriptionForm struct {
	Name  string
	Email string
}

// Submit requires both fields, hands them to d and clears the form. Nothing
// is delivered and nothing is cleared when validation or delivery fails.
func (f *SubscriptionForm) Submit(ctx context.Context, d Deliverer) (*Subscription, error) {
	var missing []string
	if strings.TrimSpace(f.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(f.Email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Message: subscriptionIncompleteMessage, Missing: missing}
	}

	sub := Subscription{Name: f.Name, Email: f.Email}
	if err := d.DeliverSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	f.Name = ""
	f.Email = ""
	return &sub, nil
}
