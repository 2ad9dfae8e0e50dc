package paymentprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// SuccessCode — код успешного результата в ответах и уведомлениях провайдера.
const SuccessCode = "00"

// Client клиент API PayOS.
type Client struct {
	clientID    string
	apiKey      string
	checksumKey string
	apiURL      string
	httpClient  *http.Client
}

// NewClient создаёт новый клиент PayOS.
func NewClient(clientID, apiKey, checksumKey string) *Client {
	return &Client{
		clientID:    clientID,
		apiKey:      apiKey,
		checksumKey: checksumKey,
		apiURL:      "https://api-merchant.payos.vn",
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-client-id", c.clientID)
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request) (*PaymentLinkData, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var apiResp APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, err
	}
	if apiResp.Code != SuccessCode {
		return nil, fmt.Errorf("provider error %s: %s", apiResp.Code, apiResp.Desc)
	}
	var data PaymentLinkData
	if err := json.Unmarshal(apiResp.Data, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// CreatePaymentLink отправляет запрос на создание платёжной ссылки,
// подписывая его контрольным ключом.
func (c *Client) CreatePaymentLink(ctx context.Context, reqParams CreatePaymentLinkRequest) (*PaymentLinkData, error) {
	reqParams.Signature = SignCreateRequest(c.checksumKey, reqParams)
	req, err := c.newRequest(ctx, http.MethodPost, "/v2/payment-requests", reqParams)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// GetPaymentLinkInformation возвращает состояние платежа по коду заказа.
func (c *Client) GetPaymentLinkInformation(ctx context.Context, orderCode string) (*PaymentLinkData, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/v2/payment-requests/"+orderCode, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}
