package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"arc-exchange/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(requestID string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	if requestID != "" {
		c.Set(CtxRequestID, requestID)
	}
	return c, w
}

func TestSuccessEnvelopes(t *testing.T) {
	tests := []struct {
		name   string
		write  func(*gin.Context, any)
		status int
	}{
		{"ok", OK, http.StatusOK},
		{"created", Created, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext("req-1")
			tt.write(c, map[string]string{"symbol": "BTC"})

			assert.Equal(t, tt.status, w.Code)
			var raw map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
			assert.Equal(t, map[string]any{"symbol": "BTC"}, raw["data"])
			assert.Equal(t, "req-1", raw["request_id"], "meta is flattened into the envelope")
			_, err := time.Parse(time.RFC3339, raw["timestamp"].(string))
			assert.NoError(t, err)
		})
	}
}

func TestError_Catalogue(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"direct", apperror.ErrInsufficientFunds(), http.StatusBadRequest, "WAL_001"},
		{"wrapped", fmt.Errorf("settle: %w", apperror.ErrInvalidToken()), http.StatusUnauthorized, "AUTH_002"},
		{"internal", apperror.InternalError(fmt.Errorf(`relation "wallets" does not exist`)), http.StatusInternalServerError, "SYS_001"},
		{"unclassified", fmt.Errorf("boom"), http.StatusInternalServerError, "SYS_000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext("req-2")
			Error(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.ErrorCode)
			assert.Equal(t, "req-2", resp.RequestID)
			assert.NotContains(t, w.Body.String(), "relation")
			assert.NotContains(t, w.Body.String(), "boom")

			require.Len(t, c.Errors, 1, "cause kept for the request logger")
			assert.ErrorIs(t, c.Errors.Last().Err, tt.err)
		})
	}
}

func TestMeta_GeneratesRequestID(t *testing.T) {
	c, w := newContext("")
	OK(c, nil)

	var resp SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.RequestID, 36)
}
