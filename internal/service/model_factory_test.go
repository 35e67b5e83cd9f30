package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fraud-screening/internal/models"
)

func TestPrepareOrderModelWithoutResult(t *testing.T) {
	f := newFixture(t)
	factory := NewOrderModelFactory(f.attributes, f.customers, zap.NewNop())

	require.NoError(t, factory.SetHideBlock(context.Background(), 7, true))

	model, err := factory.PrepareOrderModel(context.Background(), f.orders.orders[1], 7)
	require.NoError(t, err)

	assert.Equal(t, int64(1), model.OrderID)
	assert.Equal(t, "1", model.UserOrderID)
	assert.True(t, model.HideBlock)
	assert.Empty(t, model.FraudLabsProID)
	assert.Empty(t, model.FraudLabsProStatus)
}

// A result persisted by a screening must be fully recoverable by the display
// model without re-parsing the raw blob.
func TestPrepareOrderModelRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.api.screenResp = screeningResponse(t, rejectResponseJSON)

	order := f.orders.orders[1]
	_, err := f.svc.ScreenOrder(context.Background(), order, "")
	require.NoError(t, err)

	factory := NewOrderModelFactory(f.attributes, f.customers, zap.NewNop())
	model, err := factory.PrepareOrderModel(context.Background(), order, 7)
	require.NoError(t, err)

	assert.Equal(t, "20190312-ABCDEF", model.FraudLabsProID)
	assert.Equal(t, "81", model.FraudLabsProScore)
	assert.Equal(t, "REJECT", model.FraudLabsProStatus)
	assert.Equal(t, "REJECT", model.FraudLabsProOriginalStatus)
	assert.Equal(t, "494", model.FraudLabsProCredit)

	// Stored as the ISO code, expanded for display.
	assert.Equal(t, "United States", model.IPCountry)

	assert.Equal(t, "203.0.113.9", model.IPAddress)
	assert.Equal(t, "COMP", model.IPNetSpeed)
	assert.Equal(t, "example.net", model.IPDomain)
	assert.Equal(t, "-06:00", model.IPTimeZone)
	assert.Equal(t, "39.78", model.IPLatitude)
	assert.Equal(t, "-89.65", model.IPLongitude)
	assert.Equal(t, "North America", model.IPContinent)
	assert.Equal(t, "Illinois", model.IPRegion)
	assert.Equal(t, "Springfield", model.IPCity)
	assert.Equal(t, "Example ISP", model.IPISPName)
	assert.Equal(t, "ISP", model.IPUsageType)

	assert.Equal(t, "Yes", model.IsProxyIPAddress)
	assert.Equal(t, "No", model.IsAddressShipForward)
	assert.Equal(t, "Yes", model.IsBinFound)
	assert.Equal(t, "No", model.IsCreditCardBlacklist)
	assert.Equal(t, "Yes", model.IsFreeEmail)
	assert.Equal(t, "No", model.IsEmailBlacklist)
	assert.Equal(t, "N/A", model.IsHighRiskCountry)

	assert.Equal(t, "12.5", model.DistanceInKM)
	assert.Equal(t, "7.8", model.DistanceInMile)

	assert.Equal(t, models.ScoreImageURL, model.ScoreImageURL)
	assert.Equal(t, models.MerchantAreaURL, model.MerchantAreaURL)
}

func TestPrepareOrderModelCountryFallback(t *testing.T) {
	f := newFixture(t)
	f.api.screenResp = screeningResponse(t, `{
		"fraudlabspro_id": "X-3",
		"fraudlabspro_status": "REVIEW",
		"remaining_credits": 5,
		"ip_geolocation": {"ip": "203.0.113.9", "country_code": "XZ"}
	}`)

	order := f.orders.orders[1]
	_, err := f.svc.ScreenOrder(context.Background(), order, "")
	require.NoError(t, err)

	factory := NewOrderModelFactory(f.attributes, f.customers, zap.NewNop())
	model, err := factory.PrepareOrderModel(context.Background(), order, 7)
	require.NoError(t, err)

	// Unmapped codes fall back to the raw code.
	assert.Equal(t, "XZ", model.IPCountry)
}
