package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"fraud-screening/internal/models"
)

// Every remote call is bounded; an expired deadline surfaces as *APIError.
const defaultTimeout = 10 * time.Second

// APIError is a transport-level failure talking to the screening provider:
// network error, timeout, non-2xx status, or a payload that does not decode.
// Business errors reported inside a well-formed response are NOT APIErrors;
// they come back as ScreeningResponse.Err.
type APIError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fraud api %s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("fraud api %s: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// FraudClient screens orders and submits feedback against the FraudLabs Pro
// API. No retries are performed; a failure is surfaced once to the caller.
type FraudClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewFraudClient(baseURL string, logger *zap.Logger) *FraudClient {
	return &FraudClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// ScreenOrder submits an order for fraud screening. The API key authenticates
// the merchant account.
func (c *FraudClient) ScreenOrder(ctx context.Context, apiKey string, req *models.ScreeningRequest) (*models.ScreeningResponse, error) {
	params := url.Values{}
	params.Set("key", apiKey)
	params.Set("format", "json")

	params.Set("ip", req.IPAddress)
	params.Set("first_name", req.FirstName)
	params.Set("last_name", req.LastName)
	params.Set("user_phone", req.UserPhone)
	params.Set("email", req.EmailAddress)
	params.Set("flp_checksum", req.FLPCheckSum)

	params.Set("bill_addr", req.BillAddress)
	params.Set("bill_city", req.BillCity)
	params.Set("bill_state", req.BillState)
	params.Set("bill_country", req.BillCountry)
	params.Set("bill_zip_code", req.BillZIPCode)

	params.Set("ship_addr", req.ShippingAddress)
	params.Set("ship_city", req.ShippingCity)
	params.Set("ship_state", req.ShippingState)
	params.Set("ship_country", req.ShippingCountry)
	params.Set("ship_zip_code", req.ShippingZIPCode)

	params.Set("bin_no", req.BinNo)
	params.Set("card_number", req.CardNumber)
	params.Set("payment_mode", req.PaymentMode)
	params.Set("payment_gateway", req.PaymentGateway)

	params.Set("department", req.Department)
	params.Set("user_order_id", req.UserOrderID)
	params.Set("user_order_memo", req.UserOrderMemo)
	params.Set("amount", strconv.FormatFloat(req.Amount, 'f', 2, 64))
	params.Set("currency", req.Currency)
	params.Set("quantity", strconv.Itoa(req.Quantity))
	params.Set("items", req.Items)

	return c.post(ctx, "screen", "/order/screen", params)
}

// FeedbackOrder updates the status of a previously screened transaction with
// an APPROVE, REJECT, or REJECT_BLACKLIST action.
func (c *FraudClient) FeedbackOrder(ctx context.Context, apiKey string, req *models.FeedbackRequest) (*models.ScreeningResponse, error) {
	params := url.Values{}
	params.Set("key", apiKey)
	params.Set("format", "json")
	params.Set("id", req.TransactionID)
	params.Set("action", req.Action)
	params.Set("note", req.Note)

	return c.post(ctx, "feedback", "/order/feedback", params)
}

func (c *FraudClient) post(ctx context.Context, op, path string, params url.Values) (*models.ScreeningResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode}
	}

	var result models.ScreeningResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &APIError{Op: op, Err: fmt.Errorf("malformed response: %w", err)}
	}
	result.Raw = json.RawMessage(body)

	if result.Err != nil {
		// Service-level errors are returned to the caller for logging, not
		// raised as transport failures.
		c.logger.Warn("fraud api reported error",
			zap.String("op", op),
			zap.String("code", result.Err.Code),
			zap.String("message", result.Err.Message),
		)
	}

	return &result, nil
}
