package domain

// PaymentKind is the purchase option selected by the client.
type PaymentKind string

const (
	PaymentSubscription PaymentKind = "subscription"
	PaymentTokens       PaymentKind = "tokens"
)

// Plan is the server-side price and token grant for a PaymentKind.
type Plan struct {
	Kind        PaymentKind
	AmountCents int64
	Tokens      int64
	TxKind      TxKind
}

var plans = map[PaymentKind]Plan{
	PaymentSubscription: {Kind: PaymentSubscription, AmountCents: 2000, Tokens: 20000, TxKind: TxPurchaseSubscription},
	PaymentTokens:       {Kind: PaymentTokens, AmountCents: 1000, Tokens: 10000, TxKind: TxPurchaseTokens},
}

// PlanFor returns the plan for kind, or false when the kind is unknown.
func PlanFor(kind PaymentKind) (Plan, bool) {
	p, ok := plans[kind]
	return p, ok
}

// PaymentEvent is a verified notification from the payment processor.
type PaymentEvent struct {
	EventID  string
	Type     string
	IntentID string
	Metadata map[string]string
}

// EventPaymentSucceeded is the only event type that credits tokens.
const EventPaymentSucceeded = "payment_intent.succeeded"
