package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"
	"arc-exchange/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// mockHTTPClient implements HTTPClient for testing.
type mockHTTPClient struct {
	calls  atomic.Int32
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.calls.Add(1)
	return m.doFunc(req)
}

func respond(status int) (*http.Response, error) {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(""))}, nil
}

func webhookMerchant() *domain.Merchant {
	url := "https://merchant.example.com/webhook"
	return &domain.Merchant{
		ID:               uuid.New(),
		MerchantName:     "shop",
		WebhookURL:       &url,
		WebhookSecretEnc: "encrypted-secret",
	}
}

func paidNotification() ports.WebhookNotification {
	return ports.WebhookNotification{
		Event:       domain.EventMerchantPaid,
		ReferenceID: "0xabc",
		TxHash:      "0xabc",
		Symbol:      "ETH",
		Amount:      dec("0.5"),
		USDValue:    dec("1000"),
		Status:      "confirmed",
	}
}

// finalStatus forwards the terminal status of persisted attempts.
func finalStatus(repo *mocks.MockWebhookRepository) <-chan domain.WebhookDeliveryLog {
	done := make(chan domain.WebhookDeliveryLog, 1)
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, l *domain.WebhookDeliveryLog) error {
		if l.Status != domain.WebhookStatusPending {
			done <- *l
		}
		return nil
	}).AnyTimes()
	return done
}

func waitFor(t *testing.T, ch <-chan domain.WebhookDeliveryLog) domain.WebhookDeliveryLog {
	t.Helper()
	select {
	case l := <-ch:
		return l
	case <-time.After(2 * time.Second):
		t.Fatal("webhook delivery timed out")
		return domain.WebhookDeliveryLog{}
	}
}

func TestWebhookService_EnqueueWebhook_Delivered(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockWebhookRepository(ctrl)
	enc := mocks.NewMockEncryptionService(ctrl)
	sig := mocks.NewMockSignatureService(ctrl)

	var body WebhookPayload
	client := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		return respond(http.StatusOK)
	}}
	svc := NewWebhookService(repo, enc, sig, client, newTestLogger())

	enc.EXPECT().Decrypt("encrypted-secret").Return("whsec_secret", nil)
	sig.EXPECT().Sign("whsec_secret", gomock.Any()).Return("signature-hash")
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, l *domain.WebhookDeliveryLog) error {
		assert.Equal(t, domain.WebhookStatusPending, l.Status)
		assert.Equal(t, "0xabc", l.ReferenceID)
		return nil
	})
	done := finalStatus(repo)

	require.NoError(t, svc.EnqueueWebhook(context.Background(), webhookMerchant(), paidNotification()))

	final := waitFor(t, done)
	assert.Equal(t, domain.WebhookStatusDelivered, final.Status)
	assert.Equal(t, 1, final.Attempt)
	require.NotNil(t, final.HTTPStatus)
	assert.Equal(t, http.StatusOK, *final.HTTPStatus)

	assert.Equal(t, domain.EventMerchantPaid, body.EventType)
	assert.Equal(t, "signature-hash", body.Signature)
	assert.Equal(t, "shop", body.Data.MerchantName)
	assert.True(t, dec("1000").Equal(body.Data.USDValue))
}

func TestWebhookService_RetriesThenFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockWebhookRepository(ctrl)
	enc := mocks.NewMockEncryptionService(ctrl)
	sig := mocks.NewMockSignatureService(ctrl)

	client := &mockHTTPClient{doFunc: func(*http.Request) (*http.Response, error) {
		return respond(http.StatusInternalServerError)
	}}
	svc := NewWebhookService(repo, enc, sig, client, newTestLogger())
	svc.intervals = []time.Duration{time.Millisecond, time.Millisecond}

	enc.EXPECT().Decrypt(gomock.Any()).Return("whsec_secret", nil)
	sig.EXPECT().Sign(gomock.Any(), gomock.Any()).Return("sig")
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	done := finalStatus(repo)

	require.NoError(t, svc.EnqueueWebhook(context.Background(), webhookMerchant(), paidNotification()))

	final := waitFor(t, done)
	assert.Equal(t, domain.WebhookStatusFailed, final.Status)
	assert.Equal(t, 3, final.Attempt)
	assert.Nil(t, final.NextRetryAt)
	require.NotNil(t, final.LastError)
	assert.Contains(t, *final.LastError, "500")
	assert.EqualValues(t, 3, client.calls.Load())
}

func TestWebhookService_RecoversAfterTransportError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockWebhookRepository(ctrl)
	enc := mocks.NewMockEncryptionService(ctrl)
	sig := mocks.NewMockSignatureService(ctrl)

	client := &mockHTTPClient{}
	client.doFunc = func(*http.Request) (*http.Response, error) {
		if client.calls.Load() == 1 {
			return nil, errors.New("connection refused")
		}
		return respond(http.StatusNoContent)
	}
	svc := NewWebhookService(repo, enc, sig, client, newTestLogger())
	svc.intervals = []time.Duration{time.Millisecond}

	enc.EXPECT().Decrypt(gomock.Any()).Return("whsec_secret", nil)
	sig.EXPECT().Sign(gomock.Any(), gomock.Any()).Return("sig")
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	done := finalStatus(repo)

	require.NoError(t, svc.EnqueueWebhook(context.Background(), webhookMerchant(), paidNotification()))

	final := waitFor(t, done)
	assert.Equal(t, domain.WebhookStatusDelivered, final.Status)
	assert.Equal(t, 2, final.Attempt)
	assert.Nil(t, final.LastError)
}

func TestWebhookService_NoWebhookURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockWebhookRepository(ctrl)
	client := &mockHTTPClient{doFunc: func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	}}
	svc := NewWebhookService(repo, mocks.NewMockEncryptionService(ctrl), mocks.NewMockSignatureService(ctrl), client, newTestLogger())

	m := webhookMerchant()
	m.WebhookURL = nil
	assert.NoError(t, svc.EnqueueWebhook(context.Background(), m, paidNotification()))
	assert.NoError(t, svc.EnqueueWebhook(context.Background(), nil, paidNotification()))
}

func TestWebhookService_DecryptError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockWebhookRepository(ctrl)
	enc := mocks.NewMockEncryptionService(ctrl)
	svc := NewWebhookService(repo, enc, mocks.NewMockSignatureService(ctrl), &mockHTTPClient{}, newTestLogger())

	enc.EXPECT().Decrypt(gomock.Any()).Return("", errors.New("bad key"))

	err := svc.EnqueueWebhook(context.Background(), webhookMerchant(), paidNotification())
	assert.ErrorContains(t, err, "decrypt webhook secret")
}

func TestWebhookService_CloseAbandonsPendingRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockWebhookRepository(ctrl)
	enc := mocks.NewMockEncryptionService(ctrl)
	sig := mocks.NewMockSignatureService(ctrl)

	client := &mockHTTPClient{doFunc: func(*http.Request) (*http.Response, error) {
		return respond(http.StatusBadGateway)
	}}
	svc := NewWebhookService(repo, enc, sig, client, newTestLogger())
	svc.intervals = []time.Duration{time.Hour}

	enc.EXPECT().Decrypt(gomock.Any()).Return("whsec_secret", nil)
	sig.EXPECT().Sign(gomock.Any(), gomock.Any()).Return("sig")
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	attempted := make(chan domain.WebhookDeliveryLog, 1)
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, l *domain.WebhookDeliveryLog) error {
		attempted <- *l
		return nil
	})

	require.NoError(t, svc.EnqueueWebhook(context.Background(), webhookMerchant(), paidNotification()))
	first := waitFor(t, attempted)
	assert.Equal(t, domain.WebhookStatusPending, first.Status)
	require.NotNil(t, first.NextRetryAt)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Close(ctx))
	assert.EqualValues(t, 1, client.calls.Load())
}

func TestWebhookService_CloseAbortsInFlightPost(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockWebhookRepository(ctrl)
	enc := mocks.NewMockEncryptionService(ctrl)
	sig := mocks.NewMockSignatureService(ctrl)

	started := make(chan struct{})
	client := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		close(started)
		<-req.Context().Done()
		return nil, req.Context().Err()
	}}
	svc := NewWebhookService(repo, enc, sig, client, newTestLogger())

	enc.EXPECT().Decrypt(gomock.Any()).Return("whsec_secret", nil)
	sig.EXPECT().Sign(gomock.Any(), gomock.Any()).Return("sig")
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	// The aborted attempt is not recorded, so no Update is expected.

	require.NoError(t, svc.EnqueueWebhook(context.Background(), webhookMerchant(), paidNotification()))
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("webhook post never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Close(ctx))
}

func TestWebhookService_EnqueueAfterCloseLeavesPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockWebhookRepository(ctrl)
	enc := mocks.NewMockEncryptionService(ctrl)
	sig := mocks.NewMockSignatureService(ctrl)

	client := &mockHTTPClient{doFunc: func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK)
	}}
	svc := NewWebhookService(repo, enc, sig, client, newTestLogger())
	require.NoError(t, svc.Close(context.Background()))

	enc.EXPECT().Decrypt(gomock.Any()).Return("whsec_secret", nil)
	sig.EXPECT().Sign(gomock.Any(), gomock.Any()).Return("sig")
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	require.NoError(t, svc.EnqueueWebhook(context.Background(), webhookMerchant(), paidNotification()))
	assert.Zero(t, client.calls.Load())
}
