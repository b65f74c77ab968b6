package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method      string
	Path        string
	RawQuery    string
	Auth        string
	ContentType string
	Body        string
}

type fakeUpstream struct {
	srv      *httptest.Server
	calls    atomic.Int64
	last     recordedRequest
	status   int
	body     string
	respType string
}

func newFakeUpstream(status int, body, contentType string) *fakeUpstream {
	f := &fakeUpstream{status: status, body: body, respType: contentType}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		data, _ := io.ReadAll(r.Body)
		f.last = recordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			RawQuery:    r.URL.RawQuery,
			Auth:        r.Header.Get("Authorization"),
			ContentType: r.Header.Get("Content-Type"),
			Body:        string(data),
		}
		if f.respType != "" {
			w.Header().Set("Content-Type", f.respType)
		} else {
			// suppress net/http's content sniffing so the response truly
			// carries no Content-Type header
			w.Header()["Content-Type"] = nil
		}
		w.WriteHeader(f.status)
		w.Write([]byte(f.body))
	}))
	return f
}

func newTestRouter(up *fakeUpstream) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New(up.srv.URL, 5*time.Second).Register(r)
	return r
}

func assertCORS(t *testing.T, h http.Header) {
	t.Helper()
	assert.Equal(t, "*", h.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", h.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", h.Get("Access-Control-Allow-Headers"))
}

func TestProxyForwardsPathQueryAndAuth(t *testing.T) {
	up := newFakeUpstream(http.StatusOK, `{"status":"success"}`, "application/json")
	defer up.srv.Close()
	r := newTestRouter(up)

	req := httptest.NewRequest(http.MethodGet, "/api/proxy/api/users/search?search=kim&limit=20", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/api/users/search", up.last.Path)
	assert.Equal(t, "search=kim&limit=20", up.last.RawQuery)
	assert.Equal(t, "Bearer tok", up.last.Auth)
	assert.Equal(t, `{"status":"success"}`, w.Body.String())
	assertCORS(t, w.Header())
}

func TestProxyForwardsWriteBodyAndContentType(t *testing.T) {
	up := newFakeUpstream(http.StatusCreated, `{"id":1}`, "application/json")
	defer up.srv.Close()
	r := newTestRouter(up)

	body := `{"name":"태그"}`
	req := httptest.NewRequest(http.MethodPost, "/api/proxy/api/manager-notes/create", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, http.MethodPost, up.last.Method)
	assert.Equal(t, body, up.last.Body)
	assert.Equal(t, "application/json; charset=utf-8", up.last.ContentType)
}

func TestProxyRelaysUpstreamStatusVerbatim(t *testing.T) {
	up := newFakeUpstream(http.StatusConflict, `{"status":"fail","message":"dup"}`, "")
	defer up.srv.Close()
	r := newTestRouter(up)

	req := httptest.NewRequest(http.MethodDelete, "/api/proxy/api/tags/3", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	// missing upstream content type falls back to the JSON default
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestOptionsShortCircuitsWithoutUpstreamCall(t *testing.T) {
	up := newFakeUpstream(http.StatusOK, `{}`, "application/json")
	defer up.srv.Close()
	r := newTestRouter(up)

	req := httptest.NewRequest(http.MethodOptions, "/api/proxy/anything", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assertCORS(t, w.Header())
	assert.Equal(t, int64(0), up.calls.Load(), "OPTIONS must not reach the upstream")
}

func TestProxyTransportFailureYields500Envelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New("http://127.0.0.1:1", 200*time.Millisecond).Register(r)

	req := httptest.NewRequest(http.MethodGet, "/api/proxy/api/users/search", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
	assert.Contains(t, w.Body.String(), `"details"`)
}

func TestVehicleAwardMapsToAwardPath(t *testing.T) {
	up := newFakeUpstream(http.StatusOK, `{"status":"success"}`, "application/json")
	defer up.srv.Close()
	r := newTestRouter(up)

	req := httptest.NewRequest(http.MethodPost, "/api/vehicle-award/AC123", strings.NewReader(`{"price":100}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.MethodPost, up.last.Method)
	assert.Equal(t, "/api/nsa-app-vehicle-bid/AC123/award", up.last.Path)
}

func TestVehiclePaymentsUpdateIsPutOnly(t *testing.T) {
	up := newFakeUpstream(http.StatusOK, `{"status":"success"}`, "application/json")
	defer up.srv.Close()
	r := newTestRouter(up)

	req := httptest.NewRequest(http.MethodPut, "/api/vehicle-payments-update/55", strings.NewReader(`{"paid":true}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/api/nsa-app-vehicle-bid/payments/55", up.last.Path)

	// the original's dead GET placeholder is gone
	req = httptest.NewRequest(http.MethodGet, "/api/vehicle-payments-update/55", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWinningBidByQueryRequiresBidID(t *testing.T) {
	up := newFakeUpstream(http.StatusOK, `{"status":"success"}`, "application/json")
	defer up.srv.Close()
	r := newTestRouter(up)

	req := httptest.NewRequest(http.MethodGet, "/api/winning-bid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int64(0), up.calls.Load())

	req = httptest.NewRequest(http.MethodGet, "/api/winning-bid?bidId=77", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "/api/winning/77", up.last.Path)
}

func TestWinningBidReencodesParsedJSON(t *testing.T) {
	up := newFakeUpstream(http.StatusOK,
		`{"status":"success","data":{"bid_amount":12500000.00,"fee":35000.10}}`, "application/json")
	defer up.srv.Close()
	r := newTestRouter(up)

	req := httptest.NewRequest(http.MethodGet, "/api/winning/9", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/api/winning/9", up.last.Path)
	assert.Contains(t, w.Body.String(), `"bid_amount":12500000`)
	assert.Contains(t, w.Body.String(), `"fee":35000.1`)
	assertCORS(t, w.Header())
}
