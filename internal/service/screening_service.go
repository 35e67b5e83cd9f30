package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"fraud-screening/internal/models"
	"fraud-screening/internal/repository"
)

var (
	// ErrNotConfigured means no screening API key is set. It is the only
	// error surfaced before any network call is attempted.
	ErrNotConfigured = errors.New("screening api key not configured")

	// ErrCustomerNotFound means the order references a customer the host
	// platform no longer has.
	ErrCustomerNotFound = errors.New("order customer not found")
)

// FraudAPI is the remote screening provider.
type FraudAPI interface {
	ScreenOrder(ctx context.Context, apiKey string, req *models.ScreeningRequest) (*models.ScreeningResponse, error)
	FeedbackOrder(ctx context.Context, apiKey string, req *models.FeedbackRequest) (*models.ScreeningResponse, error)
}

// OrderStore reads host orders and applies status updates.
type OrderStore interface {
	GetByID(ctx context.Context, orderID int64) (*models.Order, error)
	UpdateStatus(ctx context.Context, order *models.Order) error
	GetItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
}

// CustomerStore reads host customers.
type CustomerStore interface {
	GetByID(ctx context.Context, customerID int64) (*models.Customer, error)
}

// AddressStore reads host addresses.
type AddressStore interface {
	GetByID(ctx context.Context, addressID int64) (*models.Address, error)
}

// AttributeStore persists key-value attributes against host entities.
type AttributeStore interface {
	Save(ctx context.Context, keyGroup string, entityID int64, key, value string) error
	Get(ctx context.Context, keyGroup string, entityID int64, key string) (string, error)
	GetAll(ctx context.Context, keyGroup string, entityID int64) (map[string]string, error)
}

// SettingsStore loads and saves the plugin configuration.
type SettingsStore interface {
	Load(ctx context.Context) (*models.Settings, error)
	Save(ctx context.Context, settings *models.Settings) error
}

// Archive appends raw screening results for audit. Optional; a nil archive
// disables archiving.
type Archive interface {
	SaveScreening(ctx context.Context, orderID int64, transactionID, status string, score int, raw []byte) error
}

// OrderProcessor is the host's downstream order-state recomputation, invoked
// synchronously after every status mutation.
type OrderProcessor interface {
	CheckOrderStatus(ctx context.Context, orderID int64) error
}

// Decryptor recovers card numbers encrypted by the host platform.
type Decryptor interface {
	Decrypt(encrypted string) (string, error)
}

// ScreeningService orchestrates order screening: it builds the provider
// request from host data, persists the assessment as order attributes, and
// applies the resulting order-status transition.
type ScreeningService struct {
	api        FraudAPI
	orders     OrderStore
	customers  CustomerStore
	addresses  AddressStore
	attributes AttributeStore
	settings   SettingsStore
	archive    Archive
	processor  OrderProcessor
	cipher     Decryptor
	storeName  string
	logger     *zap.Logger
}

func NewScreeningService(
	api FraudAPI,
	orders OrderStore,
	customers CustomerStore,
	addresses AddressStore,
	attributes AttributeStore,
	settings SettingsStore,
	archive Archive,
	processor OrderProcessor,
	cipher Decryptor,
	storeName string,
	logger *zap.Logger,
) *ScreeningService {
	return &ScreeningService{
		api:        api,
		orders:     orders,
		customers:  customers,
		addresses:  addresses,
		attributes: attributes,
		settings:   settings,
		archive:    archive,
		processor:  processor,
		cipher:     cipher,
		storeName:  storeName,
		logger:     logger,
	}
}

// ScreenOrder screens one order for payment fraud. On success the full raw
// assessment and every individual field are persisted as order attributes,
// the cached balance is refreshed, and the derived status transition is
// applied before returning. Failures other than an unset API key are logged
// here with the order's customer context; no order state is mutated on
// failure.
func (s *ScreeningService) ScreenOrder(ctx context.Context, order *models.Order, checksum string) (*models.ScreeningResponse, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if !settings.Configured() {
		return nil, ErrNotConfigured
	}

	result, err := s.screen(ctx, order, checksum, settings)
	if err != nil {
		s.logger.Error("order screening failed",
			zap.Error(err),
			zap.Int64("order_id", order.ID),
			zap.Int64("customer_id", order.CustomerID),
		)
		return nil, err
	}
	return result, nil
}

func (s *ScreeningService) screen(ctx context.Context, order *models.Order, checksum string, settings *models.Settings) (*models.ScreeningResponse, error) {
	customer, err := s.customers.GetByID(ctx, order.CustomerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("resolve customer: %w", err)
	}

	billing, err := s.loadAddress(ctx, order.BillingAddressID)
	if err != nil {
		return nil, fmt.Errorf("resolve billing address: %w", err)
	}

	// Shipping falls back to the billing address id when absent.
	shippingID := order.BillingAddressID
	if order.ShippingAddressID != nil {
		shippingID = *order.ShippingAddressID
	}
	shipping, err := s.loadAddress(ctx, shippingID)
	if err != nil {
		return nil, fmt.Errorf("resolve shipping address: %w", err)
	}

	req := &models.ScreeningRequest{
		IPAddress:   customer.LastIPAddress,
		FLPCheckSum: checksum,

		Department:    s.storeName,
		UserOrderID:   strconv.FormatInt(order.ID, 10),
		UserOrderMemo: order.GUID,
		Amount:        order.OrderTotal,
		Currency:      order.CustomerCurrencyCode,
	}

	if billing != nil {
		req.FirstName = billing.FirstName
		req.LastName = billing.LastName
		req.UserPhone = billing.PhoneNumber
		req.EmailAddress = billing.Email
		req.BillAddress = strings.TrimSpace(billing.Address1 + " " + billing.Address2)
		req.BillCity = billing.City
		req.BillState = billing.StateProvince
		req.BillCountry = billing.CountryCode
		req.BillZIPCode = billing.ZipPostalCode
	}
	if shipping != nil {
		req.ShippingAddress = strings.TrimSpace(shipping.Address1 + " " + shipping.Address2)
		req.ShippingCity = shipping.City
		req.ShippingState = shipping.StateProvince
		req.ShippingCountry = shipping.CountryCode
		req.ShippingZIPCode = shipping.ZipPostalCode
	}

	cardNumber, err := s.cipher.Decrypt(order.CardNumber)
	if err != nil {
		return nil, fmt.Errorf("decrypt card number: %w", err)
	}
	if cardNumber != "" {
		req.BinNo = cardBin(cardNumber)
		req.CardNumber = cardNumber
		req.PaymentMode = models.PaymentModeCreditCard
		req.PaymentGateway = models.PaymentGatewayCreditCard
	} else {
		req.PaymentMode = order.PaymentMethodSystemName
		req.PaymentGateway = order.PaymentMethodSystemName
	}

	items, err := s.orders.GetItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	req.Items, req.Quantity = EncodeItems(items)

	start := time.Now()
	result, err := s.api.ScreenOrder(ctx, settings.APIKey, req)
	apiDuration.WithLabelValues("screen").Observe(time.Since(start).Seconds())
	if err != nil {
		apiErrorsTotal.WithLabelValues("screen").Inc()
		return nil, err
	}

	if result.Err != nil {
		// The provider answered but rejected the request; the raw result is
		// surfaced for logging and no order state changes.
		s.logger.Warn("screening provider reported error",
			zap.Int64("order_id", order.ID),
			zap.String("code", result.Err.Code),
			zap.String("message", result.Err.Message),
		)
		screeningsTotal.WithLabelValues("error").Inc()
		return result, nil
	}

	if err := s.persistResult(ctx, order.ID, result); err != nil {
		return nil, fmt.Errorf("persist screening result: %w", err)
	}

	if s.archive != nil {
		if err := s.archive.SaveScreening(ctx, order.ID, result.ID, result.Status, result.Score, result.Raw); err != nil {
			s.logger.Warn("failed to archive screening result", zap.Error(err), zap.Int64("order_id", order.ID))
		}
	}

	settings.Balance = result.RemainingCredits.String()
	if err := s.settings.Save(ctx, settings); err != nil {
		s.logger.Warn("failed to refresh balance", zap.Error(err))
	}

	if err := s.attributes.Save(ctx, models.KeyGroupOrder, order.ID, models.AttrOrderStatus, result.Status); err != nil {
		return nil, fmt.Errorf("persist order status attribute: %w", err)
	}

	if err := s.applyOrderStatus(ctx, order, result.Status, settings); err != nil {
		return nil, fmt.Errorf("apply order status: %w", err)
	}

	screeningsTotal.WithLabelValues(strings.ToLower(result.Status)).Inc()
	return result, nil
}

// OrderFeedback reports an admin decision for a screened transaction back to
// the provider. Feedback succeeded iff the response carries a non-empty
// transaction id and no error envelope; only then is the order-status
// transition applied and the stored status overwritten. REJECT_BLACKLIST is
// stored normalized to REJECT while the applied transition uses the
// blacklist rule.
func (s *ScreeningService) OrderFeedback(ctx context.Context, orderID int64, transactionID, action string) (*models.ScreeningResponse, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if !settings.Configured() {
		return nil, ErrNotConfigured
	}

	req := &models.FeedbackRequest{
		TransactionID: transactionID,
		Action:        action,
	}

	start := time.Now()
	result, err := s.api.FeedbackOrder(ctx, settings.APIKey, req)
	apiDuration.WithLabelValues("feedback").Observe(time.Since(start).Seconds())
	if err != nil {
		apiErrorsTotal.WithLabelValues("feedback").Inc()
		s.logger.Error("order feedback failed",
			zap.Error(err),
			zap.Int64("order_id", orderID),
			zap.String("transaction_id", transactionID),
			zap.String("action", action),
		)
		return nil, err
	}

	if result.ID == "" || result.Err != nil {
		feedbackTotal.WithLabelValues(action, "rejected").Inc()
		s.logger.Warn("order feedback not confirmed by provider",
			zap.Int64("order_id", orderID),
			zap.String("transaction_id", transactionID),
			zap.String("action", action),
		)
		return result, nil
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error("order feedback: order lookup failed", zap.Error(err), zap.Int64("order_id", orderID))
		return result, err
	}

	if err := s.applyOrderStatus(ctx, order, action, settings); err != nil {
		s.logger.Error("order feedback: status update failed", zap.Error(err), zap.Int64("order_id", orderID))
		return result, err
	}

	stored := action
	if stored == models.StatusRejectBlacklist {
		stored = models.StatusReject
	}
	if err := s.attributes.Save(ctx, models.KeyGroupOrder, orderID, models.AttrOrderStatus, stored); err != nil {
		return result, err
	}
	if err := s.attributes.Save(ctx, models.KeyGroupOrder, orderID, models.AttrStatus, stored); err != nil {
		return result, err
	}

	// Rewrite the raw blob so its timestamp tracks the latest decision.
	if raw, err := s.attributes.Get(ctx, models.KeyGroupOrder, orderID, models.AttrOrderResult); err == nil && raw != "" {
		if err := s.attributes.Save(ctx, models.KeyGroupOrder, orderID, models.AttrOrderResult, raw); err != nil {
			return result, err
		}
	}

	feedbackTotal.WithLabelValues(action, "confirmed").Inc()
	return result, nil
}

// applyOrderStatus maps a screening status or feedback action to the
// configured order status and applies it. Unknown or empty statuses change
// nothing. After a mutation the host recomputes downstream order state,
// synchronously.
func (s *ScreeningService) applyOrderStatus(ctx context.Context, order *models.Order, status string, settings *models.Settings) error {
	var target int
	switch status {
	case models.StatusApprove:
		target = settings.ApproveStatusID
	case models.StatusReject, models.StatusRejectBlacklist:
		target = settings.RejectStatusID
	default:
		return nil
	}
	if target == 0 {
		return nil
	}

	order.OrderStatusID = target
	if err := s.orders.UpdateStatus(ctx, order); err != nil {
		return err
	}
	return s.processor.CheckOrderStatus(ctx, order.ID)
}

func (s *ScreeningService) loadAddress(ctx context.Context, addressID int64) (*models.Address, error) {
	if addressID == 0 {
		return nil, nil
	}
	addr, err := s.addresses.GetByID(ctx, addressID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return addr, err
}

// persistResult stores the verbatim raw payload and every individual field
// under its stable attribute key.
func (s *ScreeningService) persistResult(ctx context.Context, orderID int64, result *models.ScreeningResponse) error {
	attrs := []struct {
		key   string
		value string
	}{
		{models.AttrOrderResult, string(result.Raw)},
		{models.AttrID, result.ID},
		{models.AttrScore, strconv.Itoa(result.Score)},
		{models.AttrStatus, result.Status},
		{models.AttrCredit, result.RemainingCredits.String()},
		{models.AttrIPAddress, result.IPGeolocation.IP},
		{models.AttrIPNetSpeed, result.IPGeolocation.NetSpeed},
		{models.AttrIPDomain, result.IPGeolocation.Domain},
		{models.AttrIPTimeZone, result.IPGeolocation.TimeZone},
		{models.AttrIPLatitude, formatFloat(result.IPGeolocation.Latitude)},
		{models.AttrIPLongitude, formatFloat(result.IPGeolocation.Longitude)},
		{models.AttrIPContinent, result.IPGeolocation.Continent},
		{models.AttrIPCountry, result.IPGeolocation.CountryCode},
		{models.AttrIPRegion, result.IPGeolocation.Region},
		{models.AttrIPCity, result.IPGeolocation.City},
		{models.AttrIPISPName, result.IPGeolocation.ISPName},
		{models.AttrIPUsageType, result.UsageType()},
		{models.AttrIsProxyIPAddress, models.YesNo(result.IPGeolocation.IsProxy)},
		{models.AttrIsAddressShipForward, models.YesNo(result.ShippingAddress.IsAddressShipForward)},
		{models.AttrIsBinFound, models.YesNo(result.CreditCard.IsBinExist)},
		{models.AttrIsCreditCardBlacklist, models.YesNo(result.CreditCard.IsInBlacklist)},
		{models.AttrDistanceInKM, formatFloat(result.BillingAddress.IPDistanceInKM)},
		{models.AttrDistanceInMile, formatFloat(result.BillingAddress.IPDistanceInMile)},
		{models.AttrIsFreeEmail, models.YesNo(result.EmailAddress.IsFree)},
		{models.AttrIsEmailBlacklist, models.YesNo(result.EmailAddress.IsInBlacklist)},
	}

	for _, attr := range attrs {
		if err := s.attributes.Save(ctx, models.KeyGroupOrder, orderID, attr.key, attr.value); err != nil {
			return err
		}
	}
	return nil
}

// EncodeItems serializes order lines as comma-joined sku:qty pairs, with the
// numeric product id standing in for a missing SKU, and returns the total
// quantity alongside.
func EncodeItems(items []models.OrderItem) (string, int) {
	var sb strings.Builder
	total := 0
	for i, item := range items {
		sku := item.Sku
		if sku == "" {
			sku = strconv.FormatInt(item.ProductID, 10)
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(sku)
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(item.Quantity))
		total += item.Quantity
	}
	return sb.String(), total
}

func cardBin(cardNumber string) string {
	if len(cardNumber) < 6 {
		return cardNumber
	}
	return cardNumber[:6]
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
