// Package paymentprovider реализует клиент платёжного провайдера PayOS:
// создание платёжной ссылки, запрос статуса платежа и проверку
// контрольной подписи входящих уведомлений.
package paymentprovider

import "encoding/json"

// CreatePaymentLinkRequest представляет запрос на создание платёжной ссылки.
type CreatePaymentLinkRequest struct {
	OrderCode   int64  `json:"orderCode"`   // уникальный код заказа
	Amount      int64  `json:"amount"`      // сумма в минимальных единицах
	Description string `json:"description"` // описание, несёт маркер USER_<uid>
	CancelURL   string `json:"cancelUrl"`
	ReturnURL   string `json:"returnUrl"`
	BuyerEmail  string `json:"buyerEmail,omitempty"`
	BuyerName   string `json:"buyerName,omitempty"`
	Signature   string `json:"signature"` // HMAC-SHA256 контрольная подпись запроса
}

// PaymentLinkData описывает платёжную ссылку в ответах провайдера.
type PaymentLinkData struct {
	Bin           string `json:"bin,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	AccountName   string `json:"accountName,omitempty"`
	Amount        int64  `json:"amount"`
	AmountPaid    int64  `json:"amountPaid,omitempty"`
	Description   string `json:"description"`
	OrderCode     int64  `json:"orderCode"`
	Currency      string `json:"currency,omitempty"`
	PaymentLinkID string `json:"paymentLinkId,omitempty"`
	Status        string `json:"status,omitempty"` // PENDING, PAID, CANCELLED, EXPIRED
	CheckoutURL   string `json:"checkoutUrl,omitempty"`
	QRCode        string `json:"qrCode,omitempty"`
}

// APIResponse — общий конверт ответов провайдера.
// Код "00" означает успех.
type APIResponse struct {
	Code      string          `json:"code"`
	Desc      string          `json:"desc"`
	Data      json.RawMessage `json:"data"`
	Signature string          `json:"signature,omitempty"`
}

// WebhookPayload — уведомление провайдера о платеже.
// Поле Data остаётся сырым JSON: подпись считается по нему.
type WebhookPayload struct {
	Code      string          `json:"code"`
	Desc      string          `json:"desc"`
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Signature string          `json:"signature"`
}

// WebhookData — данные платежа внутри уведомления.
type WebhookData struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	BuyerEmail  string `json:"buyerEmail,omitempty"`
	Reference   string `json:"reference,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Code        string `json:"code"` // код результата платежа, "00" — успех
	Desc        string `json:"desc"`
}

// ParseData разбирает сырое поле Data уведомления.
func (p *WebhookPayload) ParseData() (*WebhookData, error) {
	var d WebhookData
	if err := json.Unmarshal(p.Data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
