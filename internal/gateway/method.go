package gateway

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// PaymentMethod selects how the buyer completes payment.
type PaymentMethod string

const (
	MethodCard         PaymentMethod = "card"
	MethodVodafoneCash PaymentMethod = "vodafone_cash"
	MethodOrangeCash   PaymentMethod = "orange_cash"
	MethodEtisalatCash PaymentMethod = "etisalat_cash"
)

// ParsePaymentMethod maps a request selector onto a known method. An empty
// selector means hosted card checkout.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case "":
		return MethodCard, nil
	case MethodCard, MethodVodafoneCash, MethodOrangeCash, MethodEtisalatCash:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, s)
	}
}

// IsWallet reports whether m is a mobile wallet method.
func (m PaymentMethod) IsWallet() bool {
	switch m {
	case MethodVodafoneCash, MethodOrangeCash, MethodEtisalatCash:
		return true
	}
	return false
}

// Payable is what the buyer needs to complete payment.
type Payable struct {
	Method PaymentMethod `json:"method"`
	URL    string        `json:"url"`
	// Reference is generated locally for wallet payments, which get no
	// synchronous reference from the provider.
	Reference string `json:"reference,omitempty"`
}

// BuildPayable composes the redirect for paymentKey. It performs no I/O.
func (c *Client) BuildPayable(paymentKey string, method PaymentMethod) (Payable, error) {
	if paymentKey == "" {
		return Payable{}, newError(StepPayable, ErrKey, fmt.Errorf("empty payment key"))
	}

	q := url.Values{}
	q.Set("payment_token", paymentKey)

	switch {
	case method == MethodCard:
		return Payable{
			Method: method,
			URL:    fmt.Sprintf("%s/acceptance/iframes/%d?%s", c.cfg.BaseURL, c.cfg.IframeID, q.Encode()),
		}, nil
	case method.IsWallet():
		ref := newReference(c.now())
		q.Set("reference", ref)
		return Payable{
			Method:    method,
			URL:       fmt.Sprintf("%s/acceptance/wallets/%s?%s", c.cfg.BaseURL, method, q.Encode()),
			Reference: ref,
		}, nil
	default:
		return Payable{}, newError(StepPayable, ErrUnsupportedMethod, fmt.Errorf("method %q", method))
	}
}

// newReference returns "W<unix millis>-<6 random hex chars>".
func newReference(now time.Time) string {
	id := uuid.New()
	return "W" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + hex.EncodeToString(id[:3])
}
