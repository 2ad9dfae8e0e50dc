package paymentprovider

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SignCreateRequest считает подпись запроса на создание платёжной ссылки:
// HMAC-SHA256 от строки amount&cancelUrl&description&orderCode&returnUrl
// в формате key=value, ключи в алфавитном порядке.
func SignCreateRequest(checksumKey string, req CreatePaymentLinkRequest) string {
	payload := fmt.Sprintf("amount=%d&cancelUrl=%s&description=%s&orderCode=%d&returnUrl=%s",
		req.Amount, req.CancelURL, req.Description, req.OrderCode, req.ReturnURL)
	return hmacHex(checksumKey, []byte(payload))
}

// SignData считает подпись произвольного JSON-объекта уведомления:
// плоские пары key=value, отсортированные по ключу, соединённые через "&".
// null кодируется пустой строкой, числа — как в исходном JSON.
func SignData(checksumKey string, data json.RawMessage) (string, error) {
	const op = "paymentprovider.SignData"

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+stringify(obj[k]))
	}
	return hmacHex(checksumKey, []byte(strings.Join(pairs, "&"))), nil
}

// VerifyWebhook проверяет контрольную подпись уведомления.
func VerifyWebhook(checksumKey string, payload *WebhookPayload) bool {
	if payload.Signature == "" || len(payload.Data) == 0 {
		return false
	}
	expected, err := SignData(checksumKey, payload.Data)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(payload.Signature))
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		raw, _ := json.Marshal(val)
		return string(raw)
	}
}

func hmacHex(key string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
