package state

import (
	"strings"

	"github.com/hylla/famboard/internal/domain"
)

// SubscriptionState is the premium entitlement.
type SubscriptionState struct {
	Premium    bool   `json:"premium"`
	Checked    bool   `json:"checked"`
	Checking   bool   `json:"checking"`
	Purchasing string `json:"purchasing,omitempty"`
	Restoring  bool   `json:"restoring"`
	Error      string `json:"error,omitempty"`
}

// CheckEntitlement asks whether the user is premium.
type CheckEntitlement struct{}

// EntitlementChecked delivers the entitlement.
type EntitlementChecked struct {
	Premium bool `json:"premium"`
}

// EntitlementCheckFailed reports a failed check.
type EntitlementCheckFailed struct {
	Failure domain.Failure `json:"failure"`
}

// Purchase buys ProductID.
type Purchase struct {
	ProductID string `json:"product_id"`
}

// PurchaseCompleted reports a successful purchase.
type PurchaseCompleted struct {
	ProductID string `json:"product_id"`
}

// PurchaseFailed reports a failed purchase.
type PurchaseFailed struct {
	Failure domain.Failure `json:"failure"`
}

// RestorePurchases re-reads previous purchases.
type RestorePurchases struct{}

// PurchasesRestored delivers the restored entitlement.
type PurchasesRestored struct {
	Premium bool `json:"premium"`
}

// RestoreFailed reports a failed restore.
type RestoreFailed struct {
	Failure domain.Failure `json:"failure"`
}

func (CheckEntitlement) IntentName() string       { return "subscription.check" }
func (EntitlementChecked) IntentName() string     { return "subscription.checked" }
func (EntitlementCheckFailed) IntentName() string { return "subscription.check_failed" }
func (Purchase) IntentName() string               { return "subscription.purchase" }
func (PurchaseCompleted) IntentName() string      { return "subscription.purchase_completed" }
func (PurchaseFailed) IntentName() string         { return "subscription.purchase_failed" }
func (RestorePurchases) IntentName() string       { return "subscription.restore" }
func (PurchasesRestored) IntentName() string      { return "subscription.restored" }
func (RestoreFailed) IntentName() string          { return "subscription.restore_failed" }

func (CheckEntitlement) subscriptionIntent()       {}
func (EntitlementChecked) subscriptionIntent()     {}
func (EntitlementCheckFailed) subscriptionIntent() {}
func (Purchase) subscriptionIntent()               {}
func (PurchaseCompleted) subscriptionIntent()      {}
func (PurchaseFailed) subscriptionIntent()         {}
func (RestorePurchases) subscriptionIntent()       {}
func (PurchasesRestored) subscriptionIntent()      {}
func (RestoreFailed) subscriptionIntent()          {}

func (i EntitlementCheckFailed) failure() domain.Failure { return i.Failure }
func (i PurchaseFailed) failure() domain.Failure         { return i.Failure }
func (i RestoreFailed) failure() domain.Failure          { return i.Failure }

// ReduceSubscription applies a subscription intent.
func ReduceSubscription(s SubscriptionState, intent SubscriptionIntent) SubscriptionState {
	switch i := intent.(type) {
	case CheckEntitlement:
		s.Checking = true
		s.Error = ""
		return s
	case EntitlementChecked:
		s.Premium = i.Premium
		s.Checked = true
		s.Checking = false
		return s
	case EntitlementCheckFailed:
		s.Checking = false
		s.Error = i.Failure.Message
		return s
	case Purchase:
		product := strings.TrimSpace(i.ProductID)
		if product == "" || s.Purchasing != "" {
			return s
		}
		s.Purchasing = product
		s.Error = ""
		return s
	case PurchaseCompleted:
		if s.Purchasing == "" || s.Purchasing != strings.TrimSpace(i.ProductID) {
			return s
		}
		s.Purchasing = ""
		s.Premium = true
		s.Checked = true
		return s
	case PurchaseFailed:
		if s.Purchasing == "" {
			return s
		}
		s.Purchasing = ""
		s.Error = i.Failure.Message
		return s
	case RestorePurchases:
		if s.Restoring {
			return s
		}
		s.Restoring = true
		s.Error = ""
		return s
	case PurchasesRestored:
		if !s.Restoring {
			return s
		}
		s.Restoring = false
		s.Premium = i.Premium
		s.Checked = true
		return s
	case RestoreFailed:
		if !s.Restoring {
			return s
		}
		s.Restoring = false
		s.Error = i.Failure.Message
		return s
	}
	return s
}
