package handler

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestNewSystemHandler(t *testing.T) {
	h := NewSystemHandler("")
	assert.Equal(t, "dev", h.version)
	assert.False(t, h.startTime.IsZero())
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler("1.4.0")
	c, w := newTestContext(http.MethodGet, "/system/info", "")

	h.GetSystemInfo(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode[SystemInfoResponse](t, w)
	assert.Equal(t, "Storefront API", resp.Name)
	assert.Equal(t, "1.4.0", resp.Version)
	assert.Equal(t, runtime.Version(), resp.GoVersion)
	assert.NotEmpty(t, resp.Uptime)
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("in-memory stores are healthy", func(t *testing.T) {
		s := newTestStore(t)
		w := s.do(t, request{method: http.MethodGet, path: "/health"})

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[HealthResponse](t, w)
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, map[string]string{"blob_store": "ok", "cart_store": "ok"}, resp.Checks)
		assert.NotEmpty(t, resp.Time)
	})

	t.Run("a failing dependency is 503", func(t *testing.T) {
		blobs := new(MockPinger)
		blobs.On("Ping", mock.Anything).Return(nil)
		carts := new(MockPinger)
		carts.On("Ping", mock.Anything).Return(errors.New("redis: connection refused"))

		h := NewSystemHandler("test",
			HealthProbe{Name: "blob_store", Pinger: blobs},
			HealthProbe{Name: "cart_store", Pinger: carts},
		)
		engine := gin.New()
		engine.GET("/health", h.Health)
		s := &testStore{engine: engine}

		w := s.do(t, request{method: http.MethodGet, path: "/health"})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		resp := decode[HealthResponse](t, w)
		assert.Equal(t, "unhealthy", resp.Status)
		assert.Equal(t, "ok", resp.Checks["blob_store"])
		assert.Equal(t, "error", resp.Checks["cart_store"])
		blobs.AssertExpectations(t)
		carts.AssertExpectations(t)
	})

	t.Run("probe deadline is bounded", func(t *testing.T) {
		p := new(MockPinger)
		p.On("Ping", mock.MatchedBy(func(ctx context.Context) bool {
			_, ok := ctx.Deadline()
			return ok
		})).Return(nil)

		h := NewSystemHandler("test", HealthProbe{Name: "blob_store", Pinger: p})
		c, w := newTestContext(http.MethodGet, "/health", "")
		h.Health(c)

		assert.Equal(t, http.StatusOK, w.Code)
		p.AssertExpectations(t)
	})
}
