package service

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reward-scanner/internal/adapter"
	"github.com/reward-scanner/internal/config"
	"github.com/reward-scanner/internal/storage"
	"github.com/reward-scanner/internal/types"
)

// scenarioLedger serves two reward blocks across two pages, one payment, and a
// price of 2.0 USD at each rewarded height
func scenarioLedger(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()

	pages := map[string]string{
		"": `{"data":[
			{"type":"rewards_v2","hash":"h100","height":100,"time":1609459200,"start_epoch":90,"end_epoch":100,
			 "rewards":[{"type":"poc_witnesses","gateway":"g1","amount":300000000},{"type":"poc_challengees","gateway":"g1","amount":200000000}]},
			{"type":"payment_v2","hash":"p1","height":99,"time":1609459100}
		],"cursor":"next"}`,
		"next": `{"data":[
			{"type":"rewards_v2","hash":"h101","height":101,"time":1609459260,"start_epoch":100,"end_epoch":101,
			 "rewards":[{"type":"poc_witnesses","gateway":"g2","amount":250000000}]}
		]}`,
	}
	prices := map[string]string{
		"100": `{"data":{"price":200000000,"timestamp":"2020-12-31T23:58:00Z","block":99}}`,
		"101": `{"data":{"price":200000000,"timestamp":1609459240,"block":101}}`,
	}

	router := mux.NewRouter()
	router.HandleFunc("/v1/accounts/{address}/activity", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		body, ok := pages[r.URL.Query().Get("cursor")]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(body))
	}).Methods(http.MethodGet)
	router.HandleFunc("/v1/oracle/prices/{height}", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		body, ok := prices[mux.Vars(r)["height"]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}).Methods(http.MethodGet)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func newScenarioPipeline(server *httptest.Server, files config.FilesConfig) *RewardPipeline {
	client := adapter.NewHeliumClient(&config.APIConfig{
		BaseURL: server.URL + "/v1",
		Timeout: 5 * time.Second,
	})
	return NewRewardPipeline(
		"acct",
		NewActivityService(client, files.RawActivityPath()),
		NewPriceService(client, nil, files.DollarPerBlockPath()),
		NewExportService(files),
	)
}

func TestRewardPipeline_Scenario(t *testing.T) {
	var hits int32
	server := scenarioLedger(t, &hits)
	files := testFiles(t)
	pipeline := newScenarioPipeline(server, files)

	total, err := pipeline.Run(quietContext(), 2021)
	require.NoError(t, err)

	// block 100 lands on midnight Jan 1, one second before the window opens
	assert.InDelta(t, 5.0, total, 1e-9)
	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
	assert.Equal(t, CacheUsage{}, pipeline.CacheUsage())
	assert.NotEmpty(t, pipeline.RunID())

	records := pipeline.Records()
	require.Len(t, records, 2)
	assert.InDelta(t, 5.0, records[0].RewardTotal, 1e-12)
	assert.InDelta(t, 2.5, records[1].RewardTotal, 1e-12)
	assert.InDelta(t, 10.0, *records[0].USDTotal, 1e-9)
	assert.InDelta(t, 5.0, *records[1].USDTotal, 1e-9)
	assert.Equal(t, int64(1609459080), *records[0].PriceTime)

	for _, path := range []string{files.RawActivityPath(), files.DollarPerBlockPath(), files.RewardsOnlyPath()} {
		assert.True(t, storage.FileExists(path), path)
	}

	raw, err := storage.ReadActivityFile(files.RawActivityPath())
	require.NoError(t, err)
	assert.Equal(t, types.StageFetched, raw[0].Stage)
	assert.Len(t, raw[0].Rewards, 2)
}

func TestRewardPipeline_SecondRunUsesCaches(t *testing.T) {
	var hits int32
	server := scenarioLedger(t, &hits)
	files := testFiles(t)

	first, err := newScenarioPipeline(server, files).Run(quietContext(), 2021)
	require.NoError(t, err)
	served := atomic.LoadInt32(&hits)

	pipeline := newScenarioPipeline(server, files)
	second, err := pipeline.Run(quietContext(), 2021)
	require.NoError(t, err)

	assert.Equal(t, served, atomic.LoadInt32(&hits), "cached run must not call the API")
	assert.Equal(t, CacheUsage{RawActivity: true, DollarPerBlock: true}, pipeline.CacheUsage())
	assert.InDelta(t, first, second, 1e-9)
}

func TestRewardPipeline_YearWithoutBlocks(t *testing.T) {
	var hits int32
	server := scenarioLedger(t, &hits)

	total, err := newScenarioPipeline(server, testFiles(t)).Run(quietContext(), 2020)
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)
}

func TestRewardPipeline_UnpricedBlockAborts(t *testing.T) {
	var hits int32
	server := scenarioLedger(t, &hits)
	files := testFiles(t)
	client := adapter.NewHeliumClient(&config.APIConfig{BaseURL: server.URL + "/v1", Timeout: 5 * time.Second})
	pipeline := NewRewardPipeline(
		"acct",
		NewActivityService(client, files.RawActivityPath()),
		NewPriceService(&fakePriceProvider{prices: map[int64]int64{101: 200000000}}, nil, files.DollarPerBlockPath()),
		NewExportService(files),
	)

	_, err := pipeline.Run(quietContext(), 2021)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MISSING_USD_TOTAL")
	// artifacts are written before the sum
	assert.True(t, storage.FileExists(files.RewardsOnlyPath()))
}
