package models

// EventKind is the classification the receiver assigns to a verified event.
type EventKind string

const (
	EventCheckoutCompleted   EventKind = "checkout-completed"
	EventSubscriptionCreated EventKind = "subscription-created"
	EventSubscriptionUpdated EventKind = "subscription-updated"
	EventSubscriptionDeleted EventKind = "subscription-deleted"
	EventIgnored             EventKind = "other-ignored"
)

// IsSubscriptionChange reports the three subscription lifecycle kinds.
func (k EventKind) IsSubscriptionChange() bool {
	switch k {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		return true
	}
	return false
}

// CheckoutSessionPayload is the data object of a checkout.session.completed event.
type CheckoutSessionPayload struct {
	ID              string `json:"id"`
	Mode            string `json:"mode"`
	Customer        string `json:"customer"`
	Subscription    string `json:"subscription"`
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

// SubscriptionPayload is the data object of a customer.subscription.* event.
type SubscriptionPayload struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Items    struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// InboundEvent is a verified, classified processor event.
type InboundEvent struct {
	ID           string
	Type         string
	Kind         EventKind
	Checkout     *CheckoutSessionPayload
	Subscription *SubscriptionPayload
}

// CustomerID returns the processor customer referenced by the event, if any.
func (e *InboundEvent) CustomerID() string {
	switch {
	case e.Checkout != nil:
		return e.Checkout.Customer
	case e.Subscription != nil:
		return e.Subscription.Customer
	}
	return ""
}
