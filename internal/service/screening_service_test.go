package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fraud-screening/internal/client"
	"fraud-screening/internal/models"
	"fraud-screening/internal/repository"
)

// --- fakes ---

type fakeAPI struct {
	apiKey       string
	screenReq    *models.ScreeningRequest
	screenResp   *models.ScreeningResponse
	screenErr    error
	feedbackReq  *models.FeedbackRequest
	feedbackResp *models.ScreeningResponse
	feedbackErr  error
}

func (f *fakeAPI) ScreenOrder(_ context.Context, apiKey string, req *models.ScreeningRequest) (*models.ScreeningResponse, error) {
	f.apiKey = apiKey
	f.screenReq = req
	return f.screenResp, f.screenErr
}

func (f *fakeAPI) FeedbackOrder(_ context.Context, apiKey string, req *models.FeedbackRequest) (*models.ScreeningResponse, error) {
	f.apiKey = apiKey
	f.feedbackReq = req
	return f.feedbackResp, f.feedbackErr
}

type fakeOrderStore struct {
	orders        map[int64]*models.Order
	items         map[int64][]models.OrderItem
	statusUpdates []int
}

func (f *fakeOrderStore) GetByID(_ context.Context, orderID int64) (*models.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return order, nil
}

func (f *fakeOrderStore) UpdateStatus(_ context.Context, order *models.Order) error {
	f.statusUpdates = append(f.statusUpdates, order.OrderStatusID)
	return nil
}

func (f *fakeOrderStore) GetItems(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	return f.items[orderID], nil
}

type fakeCustomerStore struct {
	customers map[int64]*models.Customer
}

func (f *fakeCustomerStore) GetByID(_ context.Context, customerID int64) (*models.Customer, error) {
	customer, ok := f.customers[customerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return customer, nil
}

type fakeAddressStore struct {
	addresses map[int64]*models.Address
}

func (f *fakeAddressStore) GetByID(_ context.Context, addressID int64) (*models.Address, error) {
	addr, ok := f.addresses[addressID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return addr, nil
}

type fakeAttributeStore struct {
	data map[string]string
}

func newFakeAttributeStore() *fakeAttributeStore {
	return &fakeAttributeStore{data: make(map[string]string)}
}

func (f *fakeAttributeStore) attrKey(keyGroup string, entityID int64, key string) string {
	return fmt.Sprintf("%s/%d/%s", keyGroup, entityID, key)
}

func (f *fakeAttributeStore) Save(_ context.Context, keyGroup string, entityID int64, key, value string) error {
	f.data[f.attrKey(keyGroup, entityID, key)] = value
	return nil
}

func (f *fakeAttributeStore) Get(_ context.Context, keyGroup string, entityID int64, key string) (string, error) {
	return f.data[f.attrKey(keyGroup, entityID, key)], nil
}

func (f *fakeAttributeStore) GetAll(_ context.Context, keyGroup string, entityID int64) (map[string]string, error) {
	prefix := fmt.Sprintf("%s/%d/", keyGroup, entityID)
	attrs := make(map[string]string)
	for k, v := range f.data {
		if strings.HasPrefix(k, prefix) {
			attrs[strings.TrimPrefix(k, prefix)] = v
		}
	}
	return attrs, nil
}

type fakeSettingsStore struct {
	settings models.Settings
	saved    []models.Settings
}

func (f *fakeSettingsStore) Load(_ context.Context) (*models.Settings, error) {
	copied := f.settings
	return &copied, nil
}

func (f *fakeSettingsStore) Save(_ context.Context, settings *models.Settings) error {
	f.settings = *settings
	f.saved = append(f.saved, *settings)
	return nil
}

type fakeProcessor struct {
	calls []int64
}

func (f *fakeProcessor) CheckOrderStatus(_ context.Context, orderID int64) error {
	f.calls = append(f.calls, orderID)
	return nil
}

type fakeArchive struct {
	orderIDs []int64
}

func (f *fakeArchive) SaveScreening(_ context.Context, orderID int64, _, _ string, _ int, _ []byte) error {
	f.orderIDs = append(f.orderIDs, orderID)
	return nil
}

// --- fixtures ---

const testEncryptionKey = "unit-test-key"

type fixture struct {
	api        *fakeAPI
	orders     *fakeOrderStore
	customers  *fakeCustomerStore
	addresses  *fakeAddressStore
	attributes *fakeAttributeStore
	settings   *fakeSettingsStore
	archive    *fakeArchive
	processor  *fakeProcessor
	cipher     *CardCipher
	svc        *ScreeningService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cipher := NewCardCipher(testEncryptionKey)
	encryptedCard, err := cipher.Encrypt("4111111111111111")
	require.NoError(t, err)

	shippingID := int64(21)
	f := &fixture{
		api: &fakeAPI{},
		orders: &fakeOrderStore{
			orders: map[int64]*models.Order{
				1: {
					ID:                      1,
					GUID:                    "9f4c1a2e-5a31-4a3c-9f76-0d1b8a7c55aa",
					CustomerID:              7,
					BillingAddressID:        20,
					ShippingAddressID:       &shippingID,
					OrderStatusID:           10,
					OrderTotal:              149.90,
					CustomerCurrencyCode:    "USD",
					CardNumber:              encryptedCard,
					PaymentMethodSystemName: "Payments.Manual",
				},
			},
			items: map[int64][]models.OrderItem{
				1: {
					{ProductID: 3, Sku: "A", Quantity: 2},
					{ProductID: 7, Sku: "", Quantity: 1},
				},
			},
		},
		customers: &fakeCustomerStore{
			customers: map[int64]*models.Customer{
				7: {ID: 7, Email: "buyer@example.com", LastIPAddress: "203.0.113.9"},
			},
		},
		addresses: &fakeAddressStore{
			addresses: map[int64]*models.Address{
				20: {
					ID: 20, FirstName: "Jane", LastName: "Doe",
					Email: "jane@example.com", PhoneNumber: "555-0101",
					Address1: "1 Main St", Address2: "Apt 2",
					City: "Springfield", StateProvince: "Illinois",
					CountryCode: "US", ZipPostalCode: "62701",
				},
				21: {
					ID: 21, FirstName: "Jane", LastName: "Doe",
					Address1: "9 Dock Rd", City: "Portsmouth",
					StateProvince: "Hampshire", CountryCode: "GB",
					ZipPostalCode: "PO1 2AB",
				},
			},
		},
		attributes: newFakeAttributeStore(),
		settings: &fakeSettingsStore{
			settings: models.Settings{
				APIKey:          "test-key",
				ApproveStatusID: 30,
				ReviewStatusID:  40,
				RejectStatusID:  50,
			},
		},
		archive:   &fakeArchive{},
		processor: &fakeProcessor{},
		cipher:    cipher,
	}

	f.svc = NewScreeningService(
		f.api, f.orders, f.customers, f.addresses, f.attributes,
		f.settings, f.archive, f.processor, f.cipher,
		"Test Store", zap.NewNop(),
	)
	return f
}

func screeningResponse(t *testing.T, raw string) *models.ScreeningResponse {
	t.Helper()
	var resp models.ScreeningResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	resp.Raw = json.RawMessage(raw)
	return &resp
}

const rejectResponseJSON = `{
	"fraudlabspro_id": "20190312-ABCDEF",
	"fraudlabspro_score": 81,
	"fraudlabspro_status": "REJECT",
	"remaining_credits": 494,
	"ip_geolocation": {
		"ip": "203.0.113.9",
		"netspeed": "COMP",
		"domain": "example.net",
		"timezone": "-06:00",
		"latitude": 39.78,
		"longitude": -89.65,
		"continent": "North America",
		"country_code": "US",
		"country_name": "United States",
		"region": "Illinois",
		"city": "Springfield",
		"isp_name": "Example ISP",
		"usage_type": ["ISP"],
		"is_proxy": true
	},
	"billing_address": {"ip_distance_in_km": 12.5, "ip_distance_in_mile": 7.8},
	"shipping_address": {"is_address_ship_forward": false},
	"credit_card": {"is_bin_exist": true, "is_in_blacklist": false},
	"email_address": {"is_free": true, "is_in_blacklist": false}
}`

// --- tests ---

func TestScreenOrderNotConfigured(t *testing.T) {
	f := newFixture(t)
	f.settings.settings.APIKey = ""

	order := f.orders.orders[1]
	result, err := f.svc.ScreenOrder(context.Background(), order, "")

	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Nil(t, result)
	assert.Empty(t, f.attributes.data, "no attributes may be written without an API key")
	assert.Empty(t, f.orders.statusUpdates)
	assert.Nil(t, f.api.screenReq, "no network call may be attempted")
}

func TestScreenOrderBuildsRequest(t *testing.T) {
	f := newFixture(t)
	f.api.screenResp = screeningResponse(t, rejectResponseJSON)

	order := f.orders.orders[1]
	_, err := f.svc.ScreenOrder(context.Background(), order, "checksum-123")
	require.NoError(t, err)

	req := f.api.screenReq
	require.NotNil(t, req)
	assert.Equal(t, "test-key", f.api.apiKey)

	assert.Equal(t, "203.0.113.9", req.IPAddress)
	assert.Equal(t, "Jane", req.FirstName)
	assert.Equal(t, "Doe", req.LastName)
	assert.Equal(t, "555-0101", req.UserPhone)
	assert.Equal(t, "jane@example.com", req.EmailAddress)
	assert.Equal(t, "checksum-123", req.FLPCheckSum)

	assert.Equal(t, "1 Main St Apt 2", req.BillAddress)
	assert.Equal(t, "Springfield", req.BillCity)
	assert.Equal(t, "Illinois", req.BillState)
	assert.Equal(t, "US", req.BillCountry)
	assert.Equal(t, "62701", req.BillZIPCode)

	assert.Equal(t, "9 Dock Rd", req.ShippingAddress)
	assert.Equal(t, "GB", req.ShippingCountry)

	assert.Equal(t, "411111", req.BinNo)
	assert.Equal(t, "4111111111111111", req.CardNumber)
	assert.Equal(t, models.PaymentModeCreditCard, req.PaymentMode)
	assert.Equal(t, models.PaymentGatewayCreditCard, req.PaymentGateway)

	assert.Equal(t, "Test Store", req.Department)
	assert.Equal(t, "1", req.UserOrderID)
	assert.Equal(t, order.GUID, req.UserOrderMemo)
	assert.Equal(t, 149.90, req.Amount)
	assert.Equal(t, "USD", req.Currency)
	assert.Equal(t, 3, req.Quantity)
	assert.Equal(t, "A:2,7:1", req.Items)
}

func TestScreenOrderNoBillingAddress(t *testing.T) {
	f := newFixture(t)
	f.api.screenResp = screeningResponse(t, rejectResponseJSON)

	order := f.orders.orders[1]
	order.BillingAddressID = 999 // not in the store
	order.ShippingAddressID = nil

	_, err := f.svc.ScreenOrder(context.Background(), order, "")
	require.NoError(t, err)

	req := f.api.screenReq
	require.NotNil(t, req)
	assert.Equal(t, "", req.FirstName)
	assert.Equal(t, "", req.BillAddress)
	assert.Equal(t, "", req.BillCity)
	assert.Equal(t, "", req.BillState)
	assert.Equal(t, "", req.BillCountry)
	assert.Equal(t, "", req.BillZIPCode)
	assert.Equal(t, "", req.ShippingAddress)
}

func TestScreenOrderShippingFallsBackToBilling(t *testing.T) {
	f := newFixture(t)
	f.api.screenResp = screeningResponse(t, rejectResponseJSON)

	order := f.orders.orders[1]
	order.ShippingAddressID = nil

	_, err := f.svc.ScreenOrder(context.Background(), order, "")
	require.NoError(t, err)

	req := f.api.screenReq
	assert.Equal(t, "1 Main St Apt 2", req.ShippingAddress)
	assert.Equal(t, "US", req.ShippingCountry)
}

func TestScreenOrderPaymentModeFallback(t *testing.T) {
	f := newFixture(t)
	f.api.screenResp = screeningResponse(t, rejectResponseJSON)

	order := f.orders.orders[1]
	order.CardNumber = ""

	_, err := f.svc.ScreenOrder(context.Background(), order, "")
	require.NoError(t, err)

	req := f.api.screenReq
	assert.Equal(t, "", req.BinNo)
	assert.Equal(t, "", req.CardNumber)
	assert.Equal(t, "Payments.Manual", req.PaymentMode)
	assert.Equal(t, "Payments.Manual", req.PaymentGateway)
}

func TestScreenOrderRejectAppliesStatusAndPersists(t *testing.T) {
	f := newFixture(t)
	f.api.screenResp = screeningResponse(t, rejectResponseJSON)

	order := f.orders.orders[1]
	result, err := f.svc.ScreenOrder(context.Background(), order, "")
	require.NoError(t, err)
	require.NotNil(t, result)

	// Order moved to the configured reject status, then downstream state
	// was recomputed.
	assert.Equal(t, []int{50}, f.orders.statusUpdates)
	assert.Equal(t, 50, order.OrderStatusID)
	assert.Equal(t, []int64{1}, f.processor.calls)

	get := func(key string) string {
		v, _ := f.attributes.Get(context.Background(), models.KeyGroupOrder, 1, key)
		return v
	}

	assert.JSONEq(t, rejectResponseJSON, get(models.AttrOrderResult))
	assert.Equal(t, "20190312-ABCDEF", get(models.AttrID))
	assert.Equal(t, "81", get(models.AttrScore))
	assert.Equal(t, "REJECT", get(models.AttrStatus))
	assert.Equal(t, "REJECT", get(models.AttrOrderStatus))
	assert.Equal(t, "494", get(models.AttrCredit))
	assert.Equal(t, "US", get(models.AttrIPCountry))
	assert.Equal(t, "ISP", get(models.AttrIPUsageType))
	assert.Equal(t, "Yes", get(models.AttrIsProxyIPAddress))
	assert.Equal(t, "No", get(models.AttrIsAddressShipForward))
	assert.Equal(t, "Yes", get(models.AttrIsBinFound))
	assert.Equal(t, "No", get(models.AttrIsCreditCardBlacklist))
	assert.Equal(t, "12.5", get(models.AttrDistanceInKM))
	assert.Equal(t, "Yes", get(models.AttrIsFreeEmail))

	// Balance refreshed from the provider's remaining credits.
	assert.Equal(t, "494", f.settings.settings.Balance)

	// Raw payload archived.
	assert.Equal(t, []int64{1}, f.archive.orderIDs)
}

func TestScreenOrderOmittedSignalsReadNA(t *testing.T) {
	f := newFixture(t)
	f.api.screenResp = screeningResponse(t, `{
		"fraudlabspro_id": "X-1",
		"fraudlabspro_status": "REVIEW",
		"remaining_credits": 10,
		"ip_geolocation": {"ip": "203.0.113.9"}
	}`)

	order := f.orders.orders[1]
	_, err := f.svc.ScreenOrder(context.Background(), order, "")
	require.NoError(t, err)

	proxy, _ := f.attributes.Get(context.Background(), models.KeyGroupOrder, 1, models.AttrIsProxyIPAddress)
	assert.Equal(t, "N/A", proxy)

	// REVIEW maps to no status transition.
	assert.Empty(t, f.orders.statusUpdates)
	assert.Empty(t, f.processor.calls)
}

func TestScreenOrderServiceError(t *testing.T) {
	f := newFixture(t)
	f.api.screenResp = screeningResponse(t, `{
		"error": {"code": "101", "message": "invalid api key"}
	}`)

	order := f.orders.orders[1]
	result, err := f.svc.ScreenOrder(context.Background(), order, "")

	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotNil(t, result.Err)
	assert.Equal(t, "101", result.Err.Code)

	assert.Empty(t, f.attributes.data, "a provider-reported error must not mutate the order")
	assert.Empty(t, f.orders.statusUpdates)
	assert.Empty(t, f.settings.saved)
}

func TestScreenOrderAPIError(t *testing.T) {
	f := newFixture(t)
	f.api.screenErr = &client.APIError{Op: "screen", StatusCode: 503}

	order := f.orders.orders[1]
	result, err := f.svc.ScreenOrder(context.Background(), order, "")

	require.Error(t, err)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Nil(t, result)
	assert.Empty(t, f.attributes.data)
	assert.Empty(t, f.orders.statusUpdates)
}

func TestScreenOrderCustomerMissing(t *testing.T) {
	f := newFixture(t)
	f.customers.customers = map[int64]*models.Customer{}

	order := f.orders.orders[1]
	result, err := f.svc.ScreenOrder(context.Background(), order, "")

	require.ErrorIs(t, err, ErrCustomerNotFound)
	assert.Nil(t, result)
	assert.Empty(t, f.attributes.data)
}

func TestApplyStatusIdempotent(t *testing.T) {
	f := newFixture(t)
	f.api.screenResp = screeningResponse(t, `{
		"fraudlabspro_id": "X-2",
		"fraudlabspro_status": "APPROVE",
		"remaining_credits": 9
	}`)

	order := f.orders.orders[1]
	_, err := f.svc.ScreenOrder(context.Background(), order, "")
	require.NoError(t, err)
	first := order.OrderStatusID

	_, err = f.svc.ScreenOrder(context.Background(), order, "")
	require.NoError(t, err)

	assert.Equal(t, 30, first)
	assert.Equal(t, first, order.OrderStatusID)
	assert.Equal(t, []int{30, 30}, f.orders.statusUpdates)
}

func TestOrderFeedbackBlacklist(t *testing.T) {
	f := newFixture(t)

	// Seed a prior screening so the raw blob exists.
	f.api.screenResp = screeningResponse(t, rejectResponseJSON)
	order := f.orders.orders[1]
	_, err := f.svc.ScreenOrder(context.Background(), order, "")
	require.NoError(t, err)
	f.orders.statusUpdates = nil
	f.processor.calls = nil

	f.api.feedbackResp = screeningResponse(t, `{"fraudlabspro_id": "20190312-ABCDEF"}`)

	result, err := f.svc.OrderFeedback(context.Background(), 1, "20190312-ABCDEF", models.StatusRejectBlacklist)
	require.NoError(t, err)
	require.NotNil(t, result)

	require.NotNil(t, f.api.feedbackReq)
	assert.Equal(t, "20190312-ABCDEF", f.api.feedbackReq.TransactionID)
	assert.Equal(t, models.StatusRejectBlacklist, f.api.feedbackReq.Action)

	// Applied transition uses the blacklist rule (reject status id), the
	// stored status normalizes to REJECT.
	assert.Equal(t, []int{50}, f.orders.statusUpdates)
	assert.Equal(t, []int64{1}, f.processor.calls)

	status, _ := f.attributes.Get(context.Background(), models.KeyGroupOrder, 1, models.AttrStatus)
	assert.Equal(t, "REJECT", status)
	orderStatus, _ := f.attributes.Get(context.Background(), models.KeyGroupOrder, 1, models.AttrOrderStatus)
	assert.Equal(t, "REJECT", orderStatus)
}

func TestOrderFeedbackApprove(t *testing.T) {
	f := newFixture(t)
	f.api.feedbackResp = screeningResponse(t, `{"fraudlabspro_id": "TX-9"}`)

	result, err := f.svc.OrderFeedback(context.Background(), 1, "TX-9", models.StatusApprove)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, []int{30}, f.orders.statusUpdates)
	status, _ := f.attributes.Get(context.Background(), models.KeyGroupOrder, 1, models.AttrStatus)
	assert.Equal(t, "APPROVE", status)
}

func TestOrderFeedbackNotConfirmed(t *testing.T) {
	f := newFixture(t)
	f.api.feedbackResp = screeningResponse(t, `{
		"error": {"code": "304", "message": "invalid transaction id"}
	}`)

	result, err := f.svc.OrderFeedback(context.Background(), 1, "bogus", models.StatusApprove)

	require.NoError(t, err, "provider-rejected feedback is returned, not raised")
	require.NotNil(t, result)
	assert.Empty(t, f.orders.statusUpdates, "unconfirmed feedback must not change the order")
	assert.Empty(t, f.attributes.data)
}

func TestOrderFeedbackNotConfigured(t *testing.T) {
	f := newFixture(t)
	f.settings.settings.APIKey = ""

	_, err := f.svc.OrderFeedback(context.Background(), 1, "TX-9", models.StatusApprove)
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Nil(t, f.api.feedbackReq)
}

func TestEncodeItems(t *testing.T) {
	tests := []struct {
		name      string
		items     []models.OrderItem
		wantItems string
		wantQty   int
	}{
		{
			name: "sku with product id fallback",
			items: []models.OrderItem{
				{ProductID: 3, Sku: "A", Quantity: 2},
				{ProductID: 7, Sku: "", Quantity: 1},
			},
			wantItems: "A:2,7:1",
			wantQty:   3,
		},
		{
			name:      "empty order",
			items:     nil,
			wantItems: "",
			wantQty:   0,
		},
		{
			name: "single line",
			items: []models.OrderItem{
				{ProductID: 12, Sku: "SKU-12", Quantity: 5},
			},
			wantItems: "SKU-12:5",
			wantQty:   5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, qty := EncodeItems(tt.items)
			if items != tt.wantItems {
				t.Errorf("EncodeItems() items = %q, want %q", items, tt.wantItems)
			}
			if qty != tt.wantQty {
				t.Errorf("EncodeItems() quantity = %d, want %d", qty, tt.wantQty)
			}
		})
	}
}
