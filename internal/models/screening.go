package models

import "encoding/json"

// Screening statuses returned by FraudLabs Pro, also used as feedback actions.
const (
	StatusApprove         = "APPROVE"
	StatusReview          = "REVIEW"
	StatusReject          = "REJECT"
	StatusRejectBlacklist = "REJECT_BLACKLIST"
)

// Payment modes understood by the screening API.
const (
	PaymentModeCreditCard    = "CREDIT_CARD"
	PaymentGatewayCreditCard = "creditcard"
)

// ScreeningRequest carries everything sent to the screen-order endpoint.
// String fields are always populated, empty when the source data is absent.
type ScreeningRequest struct {
	// Customer information
	IPAddress    string
	FirstName    string
	LastName     string
	UserPhone    string
	EmailAddress string
	FLPCheckSum  string

	// Billing information
	BillAddress string
	BillCity    string
	BillState   string
	BillCountry string
	BillZIPCode string

	// Shipping information
	ShippingAddress string
	ShippingCity    string
	ShippingState   string
	ShippingCountry string
	ShippingZIPCode string

	// Payment information
	BinNo          string
	CardNumber     string
	PaymentMode    string
	PaymentGateway string

	// Order information
	Department    string
	UserOrderID   string
	UserOrderMemo string
	Amount        float64
	Currency      string
	Quantity      int
	Items         string
}

// FeedbackRequest updates the status of a previously screened transaction.
type FeedbackRequest struct {
	TransactionID string
	Action        string
	Note          string
}

// ServiceError is a business error reported by the screening provider inside
// an otherwise well-formed response.
type ServiceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IPGeolocation holds the IP intelligence block of a screening response.
type IPGeolocation struct {
	IP          string   `json:"ip"`
	NetSpeed    string   `json:"netspeed"`
	Domain      string   `json:"domain"`
	TimeZone    string   `json:"timezone"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Continent   string   `json:"continent"`
	CountryCode string   `json:"country_code"`
	CountryName string   `json:"country_name"`
	Region      string   `json:"region"`
	City        string   `json:"city"`
	ISPName     string   `json:"isp_name"`
	UsageType   []string `json:"usage_type"`
	IsProxy     *bool    `json:"is_proxy"`
}

// BillingSignals holds the billing-address distance signals.
type BillingSignals struct {
	IPDistanceInKM   float64 `json:"ip_distance_in_km"`
	IPDistanceInMile float64 `json:"ip_distance_in_mile"`
}

// ShippingSignals holds the shipping-address signals.
type ShippingSignals struct {
	IsAddressShipForward *bool `json:"is_address_ship_forward"`
}

// CreditCardSignals holds the card BIN/blacklist signals.
type CreditCardSignals struct {
	IsBinExist    *bool `json:"is_bin_exist"`
	IsInBlacklist *bool `json:"is_in_blacklist"`
}

// EmailSignals holds the email reputation signals.
type EmailSignals struct {
	IsFree        *bool `json:"is_free"`
	IsInBlacklist *bool `json:"is_in_blacklist"`
}

// ScreeningResponse is the decoded response of both the screen-order and
// feedback-order endpoints. It is decoded exactly once, at the client
// boundary; downstream code never re-parses the raw payload.
type ScreeningResponse struct {
	ID               string      `json:"fraudlabspro_id"`
	Score            int         `json:"fraudlabspro_score"`
	Status           string      `json:"fraudlabspro_status"`
	RemainingCredits json.Number `json:"remaining_credits"`

	IPGeolocation   IPGeolocation     `json:"ip_geolocation"`
	BillingAddress  BillingSignals    `json:"billing_address"`
	ShippingAddress ShippingSignals   `json:"shipping_address"`
	CreditCard      CreditCardSignals `json:"credit_card"`
	EmailAddress    EmailSignals      `json:"email_address"`

	Err *ServiceError `json:"error"`

	// Raw is the verbatim provider payload, kept for persistence.
	Raw json.RawMessage `json:"-"`
}

// UsageType returns the first reported usage type, if any.
func (r *ScreeningResponse) UsageType() string {
	if len(r.IPGeolocation.UsageType) == 0 {
		return ""
	}
	return r.IPGeolocation.UsageType[0]
}

// YesNo renders an optional boolean signal the way the admin panel expects:
// "Yes", "No", or "N/A" when the provider omitted the field.
func YesNo(v *bool) string {
	switch {
	case v == nil:
		return "N/A"
	case *v:
		return "Yes"
	default:
		return "No"
	}
}
