package integrationtests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	auctionsvc "auction-house/internal/auctionService"
	"auction-house/internal/registry"
	"auction-house/internal/repository"
	"auction-house/internal/server"

	"github.com/gin-gonic/gin"
)

// testClock is a settable clock shared by the service and the store
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// SetupTestRouter initializes the router with in-memory stores for integration testing.
func SetupTestRouter() (*gin.Engine, *auctionsvc.AuctionService, *testClock) {
	gin.SetMode(gin.TestMode)
	clock := newTestClock()
	repo := repository.NewMemoryRepoWithClock(clock.Now)
	service := auctionsvc.NewAuctionService(registry.NewRegistry(), repo, auctionsvc.WithClock(clock.Now))
	return server.SetupRouter(service), service, clock
}

// credentials for HTTP basic auth; the zero value sends none
type credentials struct {
	username string
	password string
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the envelope
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, auth credentials, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if auth.username != "" {
		req.SetBasicAuth(auth.username, auth.password)
	}
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

// data returns the envelope payload as an object
func data(resp map[string]any) map[string]any {
	d, _ := resp["data"].(map[string]any)
	return d
}

// bidStatus posts a bid and returns only the status code. It never fails the
// test, so it is safe to call from spawned goroutines.
func bidStatus(router *gin.Engine, auth credentials, auctionID string, amount float64) int {
	body := []byte(fmt.Sprintf(`{"amount": %v}`, amount))
	req := httptest.NewRequest(http.MethodPost, "/auctions/"+auctionID+"/bids", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(auth.username, auth.password)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}
