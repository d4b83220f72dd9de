package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	apperrors "github.com/Jacob59569/Fast-Api-Stripe/common/errors"
	"github.com/Jacob59569/Fast-Api-Stripe/common/middleware"
	"github.com/Jacob59569/Fast-Api-Stripe/controllers"
	"github.com/Jacob59569/Fast-Api-Stripe/models"
	"github.com/Jacob59569/Fast-Api-Stripe/repository"
	"github.com/Jacob59569/Fast-Api-Stripe/services"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80/webhook"
	"go.uber.org/zap"
)

const webhookSecret = "whsec_controller_test"

// ---- in-memory payment store with the same uniqueness rule as the table ----

type memPaymentRepo struct {
	mu       sync.Mutex
	payments []models.Payment
	err      error
}

func (m *memPaymentRepo) CreatePayment(_ context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.payments {
		if existing.SessionID == p.SessionID {
			return repository.ErrDuplicatePayment
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.payments = append(m.payments, *p)
	return nil
}

func (m *memPaymentRepo) GetPaymentBySessionID(_ context.Context, sessionID string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.SessionID == sessionID {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memPaymentRepo) ListPayments(_ context.Context) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Payment, 0, len(m.payments))
	for i := len(m.payments) - 1; i >= 0; i-- {
		out = append(out, m.payments[i])
	}
	return out, nil
}

type fakeProvider struct {
	calls [][]models.LineItem
	err   error
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, items []models.LineItem, _ map[string]string) (*models.CheckoutSession, error) {
	f.calls = append(f.calls, items)
	if f.err != nil {
		return nil, f.err
	}
	return &models.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil
}

// ---- helpers ----

type testEnv struct {
	router   *gin.Engine
	payments *memPaymentRepo
	provider *fakeProvider
	redis    *miniredis.Miniredis
}

func setupRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := &testEnv{payments: &memPaymentRepo{}, provider: &fakeProvider{}, redis: mr}
	log := zap.NewNop()
	stripeSvc := services.NewStripeService("sk_test_123", webhookSecret, "usd", "http://localhost/success", "http://localhost/cancel")
	checkout := services.NewCheckoutService(env.provider, nil, log)
	paymentSvc := services.NewPaymentService(stripeSvc, env.payments, nil, nil, log)

	pc := controllers.NewPaymentController(checkout, paymentSvc, log)
	cc := controllers.NewCartController(repository.NewRedisCartRepo(rdb, time.Hour), checkout, nil, log)

	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	r.POST("/create-checkout-session", pc.CreateCheckoutSession)
	r.POST("/webhook", pc.StripeWebhook)
	r.GET("/payments", pc.ListPayments)
	r.GET("/payments_html", pc.ListPaymentsHTML)
	cart := r.Group("/cart", middleware.AuthMiddleware())
	cart.GET("", cc.GetCart)
	cart.POST("/add", cc.AddItem)
	cart.DELETE("/clear", cc.ClearCart)
	cart.POST("/checkout", cc.Checkout)

	env.router = r
	return env
}

func (e *testEnv) do(method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func completedSession(sessionID string) []byte {
	return []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":%q,"object":"checkout.session","amount_total":2500,"currency":"eur","customer_details":{"email":"buyer@example.com"}}}}`, sessionID))
}

func signed(payload []byte) map[string]string {
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: webhookSecret})
	return map[string]string{"Stripe-Signature": sp.Header}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apperrors.Error {
	t.Helper()
	var e apperrors.Error
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

// ---- webhook ----

func TestStripeWebhook_InvalidSignature(t *testing.T) {
	env := setupRouter(t)

	w := env.do(http.MethodPost, "/webhook", completedSession("cs_1"), map[string]string{"Stripe-Signature": "t=1,v1=bad"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid webhook signature", decodeError(t, w).Message)
	assert.Empty(t, env.payments.payments)
}

func TestStripeWebhook_MissingSignature(t *testing.T) {
	env := setupRouter(t)

	w := env.do(http.MethodPost, "/webhook", completedSession("cs_1"), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.payments.payments)
}

func TestStripeWebhook_RecordsOnce(t *testing.T) {
	env := setupRouter(t)
	payload := completedSession("cs_1")

	w := env.do(http.MethodPost, "/webhook", payload, signed(payload))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success"}`, w.Body.String())

	w = env.do(http.MethodPost, "/webhook", payload, signed(payload))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"duplicate"}`, w.Body.String())

	require.Len(t, env.payments.payments, 1)
	p := env.payments.payments[0]
	assert.Equal(t, "cs_1", p.SessionID)
	assert.Equal(t, "buyer@example.com", p.CustomerEmail)
	assert.Equal(t, int64(2500), p.Amount)
	assert.Equal(t, "eur", p.Currency)
}

func TestStripeWebhook_IgnoredEvent(t *testing.T) {
	env := setupRouter(t)
	payload := []byte(`{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`)

	w := env.do(http.MethodPost, "/webhook", payload, signed(payload))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ignored"}`, w.Body.String())
	assert.Empty(t, env.payments.payments)
}

func TestStripeWebhook_StoreFailure(t *testing.T) {
	env := setupRouter(t)
	env.payments.err = errors.New("connection reset")
	payload := completedSession("cs_1")

	w := env.do(http.MethodPost, "/webhook", payload, signed(payload))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStripeWebhook_BodyTooLarge(t *testing.T) {
	env := setupRouter(t)
	payload := bytes.Repeat([]byte("a"), 70000)

	w := env.do(http.MethodPost, "/webhook", payload, signed(payload))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

// ---- checkout ----

func TestCreateCheckoutSession(t *testing.T) {
	env := setupRouter(t)

	w := env.do(http.MethodPost, "/create-checkout-session", []byte(`{"items":[{"name":"Book","unit_amount":1500,"quantity":1}]}`), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"checkout_url":"https://checkout.stripe.com/c/pay/cs_test_1"}`, w.Body.String())
}

func TestCreateCheckoutSession_InvalidInput(t *testing.T) {
	env := setupRouter(t)

	for _, body := range []string{`{}`, `{"items":[]}`, `{"items":[{"name":"Book","unit_amount":0,"quantity":1}]}`, `not json`} {
		w := env.do(http.MethodPost, "/create-checkout-session", []byte(body), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Empty(t, env.provider.calls)
}

func TestCreateCheckoutSession_ProviderError(t *testing.T) {
	env := setupRouter(t)
	env.provider.err = apperrors.Provider("Your card was declined.", errors.New("card_declined"))

	w := env.do(http.MethodPost, "/create-checkout-session", []byte(`{"items":[{"name":"Book","unit_amount":1500,"quantity":1}]}`), nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Your card was declined.", decodeError(t, w).Message)
}

// ---- listing ----

func TestListPayments_NewestFirst(t *testing.T) {
	env := setupRouter(t)
	for _, id := range []string{"cs_old", "cs_new"} {
		payload := completedSession(id)
		require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/webhook", payload, signed(payload)).Code)
	}

	w := env.do(http.MethodGet, "/payments", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payments []models.Payment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payments))
	require.Len(t, payments, 2)
	assert.Equal(t, "cs_new", payments[0].SessionID)
	assert.Equal(t, "cs_old", payments[1].SessionID)
}

func TestListPaymentsHTML(t *testing.T) {
	env := setupRouter(t)
	payload := completedSession("cs_html")
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/webhook", payload, signed(payload)).Code)

	w := env.do(http.MethodGet, "/payments_html", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "cs_html")
	assert.Contains(t, w.Body.String(), "25.00 EUR")
}

func TestListPayments_StoreError(t *testing.T) {
	env := setupRouter(t)
	env.payments.err = errors.New("timeout")

	w := env.do(http.MethodGet, "/payments", nil, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ---- cart ----

func TestCart_RequiresUser(t *testing.T) {
	env := setupRouter(t)

	w := env.do(http.MethodGet, "/cart", nil, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCart_AddMergesAndCheckoutClears(t *testing.T) {
	env := setupRouter(t)
	user := map[string]string{"X-User-ID": "user-1"}
	item := []byte(`{"name":"Book","unit_amount":1500,"quantity":1}`)

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/cart/add", item, user).Code)
	w := env.do(http.MethodPost, "/cart/add", item, user)
	require.Equal(t, http.StatusOK, w.Code)

	var cart struct {
		models.Cart
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(2), cart.Items[0].Quantity)
	assert.Equal(t, int64(3000), cart.Total)

	w = env.do(http.MethodPost, "/cart/checkout", nil, user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"checkout_url":"https://checkout.stripe.com/c/pay/cs_test_1"}`, w.Body.String())
	require.Len(t, env.provider.calls, 1)
	assert.Equal(t, int64(2), env.provider.calls[0][0].Quantity)
	assert.False(t, env.redis.Exists("cart:user:user-1"))

	w = env.do(http.MethodPost, "/cart/checkout", nil, user)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCart_CheckoutFailureKeepsCart(t *testing.T) {
	env := setupRouter(t)
	env.provider.err = apperrors.Provider("Stripe is down", nil)
	user := map[string]string{"X-User-ID": "user-2"}

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/cart/add", []byte(`{"name":"Pen","unit_amount":200,"quantity":3}`), user).Code)
	w := env.do(http.MethodPost, "/cart/checkout", nil, user)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, env.redis.Exists("cart:user:user-2"))
}

func TestCart_GetAndClear(t *testing.T) {
	env := setupRouter(t)
	user := map[string]string{"X-User-ID": "user-3"}

	w := env.do(http.MethodGet, "/cart", nil, user)
	require.Equal(t, http.StatusOK, w.Code)
	var cart models.Cart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cart))
	assert.Equal(t, "user-3", cart.UserID)
	assert.Empty(t, cart.Items)
	assert.Contains(t, w.Body.String(), `"total":0`)

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/cart/add", []byte(`{"name":"Pen","unit_amount":200,"quantity":1}`), user).Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodDelete, "/cart/clear", nil, user).Code)
	assert.False(t, env.redis.Exists("cart:user:user-3"))
}

func TestCart_AddInvalidItem(t *testing.T) {
	env := setupRouter(t)

	w := env.do(http.MethodPost, "/cart/add", []byte(`{"name":"Pen","unit_amount":-1,"quantity":1}`), map[string]string{"X-User-ID": "user-4"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
