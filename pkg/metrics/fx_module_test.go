package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/mock/gomock"
)

func TestMetricsLifecycleServesAndShutsDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockLog := NewMockLogger(ctrl)
	mockLog.EXPECT().Info("metrics server listening", gomock.Any(), gomock.Any()).Times(1)

	m := NewMetrics(Config{
		Address:                 "127.0.0.1:0",
		EnableDefaultCollectors: true,
		ServiceName:             "test",
	})

	lc := fxtest.NewLifecycle(t)
	RegisterMetricsLifecycle(lc, m, mockLog)
	lc.RequireStart()

	url := fmt.Sprintf("http://%s/metrics", m.listener.Addr())
	resp, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")

	lc.RequireStop()

	_, err = http.Get(url)
	assert.Error(t, err)
}

func TestMetricsLifecycleBadAddressFailsStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockLog := NewMockLogger(ctrl)
	mockLog.EXPECT().Error("failed to bind metrics listener", gomock.Any(), gomock.Any()).Times(1)

	m := NewMetrics(Config{Address: "256.256.256.256:0", ServiceName: "test"})

	lc := fxtest.NewLifecycle(t)
	RegisterMetricsLifecycle(lc, m, mockLog)

	assert.Error(t, lc.Start(context.Background()))
}
