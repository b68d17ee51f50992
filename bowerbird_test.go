// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package bowerbird_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/blinklabs-io/bowerbird"
	"github.com/blinklabs-io/bowerbird/pparams"
)

func testParams() *pparams.ProtocolParams {
	return &pparams.ProtocolParams{
		MinFeeA:     44,
		MinFeeB:     155381,
		MaxTxSize:   16384,
		KeyDeposit:  2000000,
		PoolDeposit: 500000000,
	}
}

func TestNewInvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := bowerbird.New(bowerbird.NewConfig())
	assert.Error(t, err)

	_, err = bowerbird.New(bowerbird.NewConfig(
		bowerbird.WithNetwork("custom"),
		bowerbird.WithProtocolParams(testParams()),
	))
	assert.Error(t, err)
}

func TestStartFailsWithoutParams(t *testing.T) {
	t.Parallel()

	b, err := bowerbird.New(bowerbird.NewConfig(
		bowerbird.WithNetwork("preprod"),
		bowerbird.WithListenAddress("127.0.0.1:0"),
		bowerbird.WithProtocolParamsFile(
			filepath.Join(t.TempDir(), "missing.json"),
		),
	))
	require.NoError(t, err)
	err = b.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load protocol parameters")
	assert.Nil(t, b.Addr())
}

func TestRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := prometheus.NewRegistry()
	b, err := bowerbird.New(bowerbird.NewConfig(
		bowerbird.WithNetwork("preprod"),
		bowerbird.WithListenAddress("127.0.0.1:0"),
		bowerbird.WithMetricsAddress("localhost:0"),
		bowerbird.WithPrometheusRegistry(reg),
		bowerbird.WithProtocolParams(testParams()),
		bowerbird.WithShutdownTimeout(5*time.Second),
	))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() {
		runErr <- b.Run(ctx)
	}()
	require.Eventually(t, func() bool {
		return b.Addr() != nil
	}, 5*time.Second, 10*time.Millisecond)

	client := &http.Client{
		Transport: &http.Transport{DisableKeepAlives: true},
		Timeout:   5 * time.Second,
	}
	resp, err := client.Post(
		"http://"+b.Addr().String()+"/network/list",
		"application/json",
		bytes.NewBufferString(`{}`),
	)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"network":"preprod"`)

	require.NotNil(t, b.MetricsAddr())
	resp, err = client.Get("http://" + b.MetricsAddr().String() + "/metrics")
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "bowerbird_protocol_params_cache_misses_total 1")

	b.InvalidateParams()
	cancel()
	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Nil(t, b.Addr())
	assert.Nil(t, b.MetricsAddr())
	// Stopping twice is a no-op
	assert.NoError(t, b.Stop())
}
