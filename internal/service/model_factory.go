package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"fraud-screening/internal/models"
)

// OrderModelFactory builds the admin order page fraud panel model from the
// individually stored attributes. The raw provider blob is never re-parsed
// here.
type OrderModelFactory struct {
	attributes AttributeStore
	customers  CustomerStore
	logger     *zap.Logger
}

func NewOrderModelFactory(attributes AttributeStore, customers CustomerStore, logger *zap.Logger) *OrderModelFactory {
	return &OrderModelFactory{
		attributes: attributes,
		customers:  customers,
		logger:     logger,
	}
}

// PrepareOrderModel returns the display model for one order. Without a
// stored screening result the model carries only identity fields and the
// viewer's hide-panel preference. viewerID is the admin customer viewing the
// panel; the preference is stored against them.
func (f *OrderModelFactory) PrepareOrderModel(ctx context.Context, order *models.Order, viewerID int64) (*models.OrderFraudModel, error) {
	model := &models.OrderFraudModel{
		OrderID:     order.ID,
		UserOrderID: strconv.FormatInt(order.ID, 10),
	}

	hide, err := f.attributes.Get(ctx, models.KeyGroupCustomer, viewerID, models.AttrHideBlock)
	if err != nil {
		return nil, err
	}
	model.HideBlock = hide == "true"

	raw, err := f.attributes.Get(ctx, models.KeyGroupOrder, order.ID, models.AttrOrderResult)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return model, nil
	}

	attrs, err := f.attributes.GetAll(ctx, models.KeyGroupOrder, order.ID)
	if err != nil {
		return nil, err
	}

	model.FraudLabsProID = attrs[models.AttrID]
	model.FraudLabsProScore = attrs[models.AttrScore]
	model.FraudLabsProStatus = attrs[models.AttrStatus]
	model.FraudLabsProOriginalStatus = attrs[models.AttrOrderStatus]
	model.FraudLabsProCredit = attrs[models.AttrCredit]

	model.IPAddress = attrs[models.AttrIPAddress]
	model.IPNetSpeed = attrs[models.AttrIPNetSpeed]
	model.IPDomain = attrs[models.AttrIPDomain]
	model.IPTimeZone = attrs[models.AttrIPTimeZone]
	model.IPLatitude = attrs[models.AttrIPLatitude]
	model.IPLongitude = attrs[models.AttrIPLongitude]
	model.IPContinent = attrs[models.AttrIPContinent]
	model.IPCountry = CountryName(attrs[models.AttrIPCountry])
	model.IPRegion = attrs[models.AttrIPRegion]
	model.IPCity = attrs[models.AttrIPCity]
	model.IPISPName = attrs[models.AttrIPISPName]
	model.IPUsageType = attrs[models.AttrIPUsageType]

	model.IsProxyIPAddress = attrs[models.AttrIsProxyIPAddress]
	model.IsAddressShipForward = attrs[models.AttrIsAddressShipForward]
	model.IsBinFound = attrs[models.AttrIsBinFound]
	model.IsCreditCardBlacklist = attrs[models.AttrIsCreditCardBlacklist]
	model.IsFreeEmail = attrs[models.AttrIsFreeEmail]
	model.IsEmailBlacklist = attrs[models.AttrIsEmailBlacklist]

	// The provider never returns this signal.
	model.IsHighRiskCountry = "N/A"

	model.DistanceInKM = attrs[models.AttrDistanceInKM]
	model.DistanceInMile = attrs[models.AttrDistanceInMile]

	// The live IP beats the one captured at screening time.
	if customer, err := f.customers.GetByID(ctx, order.CustomerID); err == nil && customer.LastIPAddress != "" {
		model.IPAddress = customer.LastIPAddress
	}

	model.ScoreImageURL = models.ScoreImageURL
	model.MerchantAreaURL = models.MerchantAreaURL
	return model, nil
}

// SetHideBlock stores the per-customer hide-panel preference.
func (f *OrderModelFactory) SetHideBlock(ctx context.Context, customerID int64, hide bool) error {
	return f.attributes.Save(ctx, models.KeyGroupCustomer, customerID, models.AttrHideBlock, strconv.FormatBool(hide))
}
