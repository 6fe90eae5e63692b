package dto

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	Register(v)
	return v
}

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := TransferRequest{ToUsername: "  alice  ", Memo: " rent "}
	SanitizeStruct(&req)

	assert.Equal(t, "alice", req.ToUsername)
	assert.Equal(t, "rent", req.Memo)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := TransferRequest{ToUsername: "bob", Memo: "thanks <script>alert('x')</script>"}
	SanitizeStruct(&req)

	assert.Contains(t, req.Memo, "&lt;script&gt;")
	assert.NotContains(t, req.Memo, "<script>")
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	url := "  https://example.com/webhook  "
	req := RegisterMerchantRequest{MerchantName: "shop", WebhookURL: &url}
	SanitizeStruct(&req)

	assert.Equal(t, "https://example.com/webhook", *req.WebhookURL)
}

func TestSanitizeStruct_NilPointerIsNoOp(t *testing.T) {
	req := RegisterMerchantRequest{MerchantName: "shop"}
	SanitizeStruct(&req)
	assert.Nil(t, req.WebhookURL)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	req := TransferRequest{Memo: " x "}
	SanitizeStruct(req)
	assert.Equal(t, " x ", req.Memo)
}

// --- validator tags ---

func TestValidators_Transfer(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name  string
		req   TransferRequest
		valid bool
	}{
		{"valid", TransferRequest{ToUsername: "bob", Symbol: "btc", Amount: decimal.RequireFromString("0.5")}, true},
		{"default symbol", TransferRequest{ToUsername: "bob", Amount: decimal.NewFromInt(1)}, true},
		{"zero amount", TransferRequest{ToUsername: "bob", Amount: decimal.Zero}, false},
		{"negative amount", TransferRequest{ToUsername: "bob", Amount: decimal.NewFromInt(-1)}, false},
		{"unknown symbol", TransferRequest{ToUsername: "bob", Symbol: "DOGE", Amount: decimal.NewFromInt(1)}, false},
		{"missing recipient", TransferRequest{Amount: decimal.NewFromInt(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidators_PlaceOrder(t *testing.T) {
	v := newValidator()
	qty := decimal.RequireFromString("0.1")
	price := decimal.NewFromInt(45000)
	zero := decimal.Zero

	assert.NoError(t, v.Struct(PlaceOrderRequest{Pair: "BTCUSDT", Side: "buy", Quantity: qty}))
	assert.NoError(t, v.Struct(PlaceOrderRequest{Pair: "ethusdt", Side: "SELL", OrderType: "limit", Quantity: qty, Price: &price}))
	assert.Error(t, v.Struct(PlaceOrderRequest{Pair: "BTCEUR", Side: "buy", Quantity: qty}))
	assert.Error(t, v.Struct(PlaceOrderRequest{Pair: "BTCUSDT", Side: "hold", Quantity: qty}))
	assert.Error(t, v.Struct(PlaceOrderRequest{Pair: "BTCUSDT", Side: "buy", OrderType: "stop", Quantity: qty}))
	assert.Error(t, v.Struct(PlaceOrderRequest{Pair: "BTCUSDT", Side: "buy", Quantity: qty, Price: &zero}))
}

func TestValidators_SafeURL(t *testing.T) {
	v := newValidator()
	good := "https://shop.example/hook"
	bad := "javascript:alert(1)"

	assert.NoError(t, v.Struct(UpdateWebhookRequest{WebhookURL: &good}))
	assert.NoError(t, v.Struct(UpdateWebhookRequest{}))
	assert.Error(t, v.Struct(UpdateWebhookRequest{WebhookURL: &bad}))
}

func TestValidators_FaceEncodingLength(t *testing.T) {
	v := newValidator()
	assert.NoError(t, v.Struct(FaceRequest{Encoding: make([]float64, 128)}))
	assert.Error(t, v.Struct(FaceRequest{Encoding: make([]float64, 127)}))
	assert.Error(t, v.Struct(FaceRequest{}))
}

func TestValidators_CartItems(t *testing.T) {
	v := newValidator()
	ok := CreateCartRequest{Items: []CartItemRequest{{Name: "Mug", Price: decimal.NewFromInt(5), Quantity: 1}}}
	assert.NoError(t, v.Struct(ok))

	bad := CreateCartRequest{Items: []CartItemRequest{{Name: "Mug", Quantity: 0}}}
	assert.Error(t, v.Struct(bad))

	assert.NoError(t, v.Struct(PayCartRequest{CartID: "CART_1700000000_1234", Symbol: "ETH"}))
	assert.Error(t, v.Struct(PayCartRequest{CartID: "CART 1", Symbol: "ETH"}))
}
