//nolint:lll,funlen // readablity
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/shotrecord/pkg/metrics"
	"github.com/mpapenbr/shotrecord/pkg/target"
)

const sampleSeries = `{
	"shots": [
		{"x": 10, "y": -5, "points": 10.4},
		{"x": 300, "y": 0, "points": 7.2},
		{"x": -20, "y": 0, "points": 9.1}
	]
}`

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	h, err := NewHandler(opts...)
	require.NoError(t, err)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, err = uuid.Parse(resp.Header.Get(requestIDHeader))
	assert.NoError(t, err)
}

func TestRequestIDIsKept(t *testing.T) {
	srv := newTestServer(t)
	id := uuid.NewString()
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", http.NoBody)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, id, resp.Header.Get(requestIDHeader))
}

func TestRender(t *testing.T) {
	srv := newTestServer(t)
	resp, body := post(t, srv.URL+"/api/v1/target/render", sampleSeries)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, contentTypeSVG, resp.Header.Get("Content-Type"))
	assert.Equal(t, "2", resp.Header.Get(invalidShotsHeader))
	assert.True(t, strings.HasPrefix(body, "<svg"))
	assert.Contains(t, body, `data-points="10.4"`)
	assert.Contains(t, body, `data-points="9.1"`)
	assert.NotContains(t, body, `data-points="7.2"`)
	assert.NotContains(t, body, "<script")
}

func TestRenderInteractive(t *testing.T) {
	srv := newTestServer(t)
	resp, body := post(t, srv.URL+"/api/v1/target/render?width=300&height=300&interactive=true",
		`{"shots":[{"x":0,"y":0,"points":"10.9"}]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(invalidShotsHeader))
	assert.Contains(t, body, `width="300"`)
	assert.Contains(t, body, `id="tooltip"`)
	assert.Contains(t, body, "<script")
}

func TestRenderBadRequests(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		name  string
		query string
		body  string
		want  int
	}{
		{"bad width", "?width=abc", sampleSeries, http.StatusBadRequest},
		{"bad interactive", "?interactive=maybe", sampleSeries, http.StatusBadRequest},
		{"empty surface", "?width=0", sampleSeries, http.StatusBadRequest},
		{"bad json", "", `{"shots":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := post(t, srv.URL+"/api/v1/target/render"+tt.query, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestBodyTooLarge(t *testing.T) {
	srv := newTestServer(t, WithMaxBodySize(16))
	resp, _ := post(t, srv.URL+"/api/v1/target/render", sampleSeries)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, WithMetricsOptions(metrics.WithConsistencyRef(100)))
	resp, body := post(t, srv.URL+"/api/v1/series/metrics",
		`{"shots":[{"x":10,"y":0,"points":10},{"x":-10,"y":0,"points":10},{"points":"miss"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var m metrics.Metrics
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	assert.Equal(t, 2, m.N)
	assert.InDelta(t, 0.0, m.MPIX, 1e-9)
	assert.InDelta(t, 10.0, m.MeanRadius, 1e-9)
	assert.InDelta(t, 20.0, m.ExtremeSpread, 1e-9)

	resp, _ = post(t, srv.URL+"/api/v1/series/metrics", `{"shots":[]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestMetricsOverflow(t *testing.T) {
	srv := newTestServer(t)
	resp, body := post(t, srv.URL+"/api/v1/series/metrics",
		`{"shots":[{"x":1e308,"y":0,"points":10},{"x":1e308,"y":0,"points":10}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, metrics.ErrNonFinite.Error())
}

func TestRespondJSONUnencodable(t *testing.T) {
	rec := httptest.NewRecorder()
	respondJSON(rec, http.StatusOK, map[string]float64{"v": math.Inf(1)})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestImportGame(t *testing.T) {
	srv := newTestServer(t)
	resp, body := post(t, srv.URL+"/api/v1/series/import",
		`{"series":[{"shot":{"shotNumber":1,"x":330,"y":235,"points":10.4}},{"shot":false}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var s struct {
		N     int `json:"n"`
		Shots []struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"shots"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &s))
	assert.Equal(t, 1, s.N)
	assert.Equal(t, 10.0, s.Shots[0].X)
	assert.Equal(t, -5.0, s.Shots[0].Y)

	resp, _ = post(t, srv.URL+"/api/v1/series/import", `{"series":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestImportExport(t *testing.T) {
	srv := newTestServer(t)
	resp, body := post(t, srv.URL+"/api/v1/series/import?export=true", `[
		{"id": 1, "game": "{}", "created": "2025-03-01 09:00:00"},
		{"id": 2, "game": "{}", "created": "2025-03-01 09:00:00"}
	]`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res struct {
		Series  []json.RawMessage `json:"series"`
		Skipped int               `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	assert.Len(t, res.Series, 1)
	assert.Equal(t, 1, res.Skipped)
}

func TestInvalidShots(t *testing.T) {
	err := errors.Join(
		&target.InvalidShotError{Index: 1, Reason: "missing coordinates"},
		&target.InvalidShotError{Index: 4, Reason: "outside"},
	)
	assert.Equal(t, []int{2, 5}, InvalidShots(err))
	assert.Equal(t, []int{3}, InvalidShots(fmt.Errorf("wrapped: %w",
		&target.InvalidShotError{Index: 2})))
	assert.Nil(t, InvalidShots(nil))
	assert.Nil(t, InvalidShots(target.ErrInvalidSurface))
	assert.Equal(t, "2,5", joinInts([]int{2, 5}))
}

func TestRenderNamedLayout(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "small.yml"), []byte("scale: 1\n"), 0o600))
	srv := newTestServer(t, WithLayoutDir(dir, time.Minute))

	resp, body := post(t, srv.URL+"/api/v1/target/render?layout=small", sampleSeries)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	// outer radius 155.5 at scale 1
	assert.Contains(t, body, `r="77"`)

	for _, name := range []string{"missing", "..%2Fsmall"} {
		resp, _ = post(t, srv.URL+"/api/v1/target/render?layout="+name, sampleSeries)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, name)
	}
}

func TestRenderNamedLayoutDisabled(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := post(t, srv.URL+"/api/v1/target/render?layout=small", sampleSeries)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
