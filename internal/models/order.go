package models

import "time"

// Order is the host platform's order record. This service reads it and
// mutates only the status field; order lifecycle stays with the host.
type Order struct {
	ID                      int64
	GUID                    string
	CustomerID              int64
	BillingAddressID        int64
	ShippingAddressID       *int64
	OrderStatusID           int
	OrderTotal              float64
	CustomerCurrencyCode    string
	CardNumber              string // encrypted by the host platform
	PaymentMethodSystemName string
	CreatedAt               time.Time
}

// Customer is the subset of the host customer record the screening needs.
type Customer struct {
	ID            int64
	Email         string
	LastIPAddress string
}

// Address is a host billing or shipping address, with state and country
// already resolved to their display name / ISO code.
type Address struct {
	ID            int64
	FirstName     string
	LastName      string
	Email         string
	PhoneNumber   string
	Address1      string
	Address2      string
	City          string
	StateProvince string
	CountryCode   string // ISO 3166-1 alpha-2
	ZipPostalCode string
}

// OrderItem is a purchased line, with the product SKU and id needed for the
// screening items encoding.
type OrderItem struct {
	ProductID int64
	Sku       string
	Quantity  int
}

// Settings is the plugin configuration: the screening API key, the order
// status ids applied per decision, and the last balance reported by the
// provider. Read on every call, written via the settings endpoints and
// after every successful screening.
type Settings struct {
	APIKey          string `json:"api_key"`
	ApproveStatusID int    `json:"approve_status_id"`
	ReviewStatusID  int    `json:"review_status_id"`
	RejectStatusID  int    `json:"reject_status_id"`
	Balance         string `json:"balance"`
}

// Configured reports whether screening calls can be made at all.
func (s *Settings) Configured() bool {
	return s.APIKey != ""
}

// OrderFraudModel is the display model for the admin order page fraud panel.
// It is populated from the individually stored attributes, never by
// re-parsing the raw provider payload.
type OrderFraudModel struct {
	OrderID     int64  `json:"order_id"`
	UserOrderID string `json:"user_order_id"`
	HideBlock   bool   `json:"hide_block"`

	FraudLabsProID             string `json:"fraudlabspro_id"`
	FraudLabsProScore          string `json:"fraudlabspro_score"`
	FraudLabsProStatus         string `json:"fraudlabspro_status"`
	FraudLabsProOriginalStatus string `json:"fraudlabspro_original_status"`
	FraudLabsProCredit         string `json:"fraudlabspro_credit"`

	IPAddress   string `json:"ip_address"`
	IPNetSpeed  string `json:"ip_net_speed"`
	IPDomain    string `json:"ip_domain"`
	IPTimeZone  string `json:"ip_time_zone"`
	IPLatitude  string `json:"ip_latitude"`
	IPLongitude string `json:"ip_longitude"`
	IPContinent string `json:"ip_continent"`
	IPCountry   string `json:"ip_country"`
	IPRegion    string `json:"ip_region"`
	IPCity      string `json:"ip_city"`
	IPISPName   string `json:"ip_isp_name"`
	IPUsageType string `json:"ip_usage_type"`

	IsProxyIPAddress      string `json:"is_proxy_ip_address"`
	IsAddressShipForward  string `json:"is_address_ship_forward"`
	IsBinFound            string `json:"is_bin_found"`
	IsCreditCardBlacklist string `json:"is_credit_card_blacklist"`
	IsFreeEmail           string `json:"is_free_email"`
	IsEmailBlacklist      string `json:"is_email_blacklist"`
	IsHighRiskCountry     string `json:"is_high_risk_country"`

	DistanceInKM   string `json:"distance_in_km"`
	DistanceInMile string `json:"distance_in_mile"`

	ScoreImageURL   string `json:"score_image_url"`
	MerchantAreaURL string `json:"merchant_area_url"`
}
