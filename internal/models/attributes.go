package models

// Attribute key groups, matching the host platform's generic attribute table.
const (
	KeyGroupOrder    = "Order"
	KeyGroupCustomer = "Customer"
)

// Order attribute keys. These are stable storage keys: the raw provider
// payload is kept verbatim under AttrOrderResult, and the fields the admin
// panel reads are stored individually for field-level access.
const (
	AttrOrderResult = "FraudLabsProOrderResult"
	AttrOrderStatus = "FraudLabsProOrderStatus"

	AttrID     = "FraudLabsProID"
	AttrScore  = "FraudLabsProScore"
	AttrStatus = "FraudLabsProStatus"
	AttrCredit = "FraudLabsProCredit"

	AttrIPAddress   = "IPAddress"
	AttrIPNetSpeed  = "IPNetSpeed"
	AttrIPDomain    = "IPDomain"
	AttrIPTimeZone  = "IPTimeZone"
	AttrIPLatitude  = "IPLatitude"
	AttrIPLongitude = "IPLongtitude"
	AttrIPContinent = "IPContinent"
	AttrIPCountry   = "IPCountry"
	AttrIPRegion    = "IPRegion"
	AttrIPCity      = "IPCity"
	AttrIPISPName   = "IPISPName"
	AttrIPUsageType = "IPUsageType"

	AttrIsProxyIPAddress     = "IsProxyIPAddress"
	AttrIsAddressShipForward = "IsAddressShipForward"
	AttrIsBinFound           = "IsBinFound"
	AttrIsCreditCardBlacklist = "IsCreditCardBlacklist"
	AttrDistanceInKM         = "DistanceInKM"
	AttrDistanceInMile       = "DistanceInMile"
	AttrIsFreeEmail          = "IsFreeEmail"
	AttrIsEmailBlacklist     = "IsEmailBlacklist"
)

// AttrHideBlock is a per-customer preference that hides the fraud panel on
// the admin order page.
const AttrHideBlock = "OrderPage.HideFraudLabsProBlock"

// External provider links rendered by the admin panel.
const (
	ScoreImageURL   = "https://www.fraudlabspro.com/images/fraudscore/fraudlabsproscore_a"
	MerchantAreaURL = "https://www.fraudlabspro.com/merchant/"
)
