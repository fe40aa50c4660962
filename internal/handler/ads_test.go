package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Dev-Aaron27/fireboard/internal/models"
)

// fakeAdRepo implements repository.AdRepository in memory with the same
// atomicity the unique index provides.
type fakeAdRepo struct {
	mu      sync.Mutex
	ads     []models.Ad
	nextID  int64
	saveErr error
	listErr error
}

func (f *fakeAdRepo) SaveAd(_ context.Context, ad *models.Ad) (bool, error) {
	if f.saveErr != nil {
		return false, f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.ads {
		if existing.AuthorID == ad.AuthorID && existing.Timestamp.Equal(ad.Timestamp) {
			return true, nil
		}
	}
	f.nextID++
	ad.ID = f.nextID
	f.ads = append(f.ads, *ad)
	return false, nil
}

func (f *fakeAdRepo) ListAds(_ context.Context) ([]models.Ad, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ads := make([]models.Ad, len(f.ads))
	copy(ads, f.ads)
	sort.Slice(ads, func(i, j int) bool {
		if !ads[i].Timestamp.Equal(ads[j].Timestamp) {
			return ads[i].Timestamp.After(ads[j].Timestamp)
		}
		return ads[i].ID > ads[j].ID
	})
	return ads, nil
}

func newTestRouter(repo *fakeAdRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewAdHandler(repo, zap.NewNop())
	router.POST("/ads", h.SubmitAd)
	router.GET("/ads", h.ListAds)
	return router
}

func adPayload(overrides map[string]any) []byte {
	payload := map[string]any{
		"server_name": "Fire Ads",
		"category":    "Premium",
		"content":     "Join my server!",
		"invite":      "https://discord.gg/abc",
		"timestamp":   "2025-07-20T10:30:00Z",
		"author_id":   42,
	}
	for k, v := range overrides {
		if v == nil {
			delete(payload, k)
		} else {
			payload[k] = v
		}
	}
	data, _ := json.Marshal(payload)
	return data
}

func postAd(router *gin.Engine, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/ads", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubmitAdAccepted(t *testing.T) {
	repo := &fakeAdRepo{}
	router := newTestRouter(repo)

	w := postAd(router, adPayload(nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "success" {
		t.Errorf("status field = %q, want %q", resp["status"], "success")
	}
	if len(repo.ads) != 1 {
		t.Fatalf("stored %d ads, want 1", len(repo.ads))
	}
	if repo.ads[0].Invite != "https://discord.gg/abc" {
		t.Errorf("Invite = %q, want submitted value", repo.ads[0].Invite)
	}
}

func TestSubmitAdIdempotentUnderRetry(t *testing.T) {
	repo := &fakeAdRepo{}
	router := newTestRouter(repo)

	first := postAd(router, adPayload(nil))
	second := postAd(router, adPayload(nil))

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("statuses = %d, %d, want 200, 200", first.Code, second.Code)
	}
	if !strings.Contains(second.Body.String(), `"duplicate"`) {
		t.Errorf("second submission body = %s, want duplicate status", second.Body.String())
	}
	if len(repo.ads) != 1 {
		t.Errorf("stored %d ads after retry, want 1", len(repo.ads))
	}
}

func TestSubmitAdMissingContent(t *testing.T) {
	repo := &fakeAdRepo{}
	router := newTestRouter(repo)

	w := postAd(router, adPayload(map[string]any{"content": nil}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "content") {
		t.Errorf("error body %s does not name the missing field", w.Body.String())
	}
	if len(repo.ads) != 0 {
		t.Error("validation failure must not touch the store")
	}
}

func TestSubmitAdNamesAllMissingFields(t *testing.T) {
	repo := &fakeAdRepo{}
	router := newTestRouter(repo)

	w := postAd(router, adPayload(map[string]any{
		"author_id":   nil,
		"timestamp":   nil,
		"server_name": nil,
	}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	for _, field := range []string{"author_id", "timestamp", "server_name"} {
		if !strings.Contains(w.Body.String(), field) {
			t.Errorf("error body %s does not name %s", w.Body.String(), field)
		}
	}
}

func TestSubmitAdInvalidTimestamp(t *testing.T) {
	repo := &fakeAdRepo{}
	router := newTestRouter(repo)

	w := postAd(router, adPayload(map[string]any{"timestamp": "not-a-time"}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(repo.ads) != 0 {
		t.Error("invalid timestamp must not reach the store")
	}
}

func TestSubmitAdAcceptsSpaceSeparatedTimestamp(t *testing.T) {
	repo := &fakeAdRepo{}
	router := newTestRouter(repo)

	w := postAd(router, adPayload(map[string]any{"timestamp": "2025-07-20 10:30:00.123456+00:00"}))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
}

func TestSubmitAdStorageError(t *testing.T) {
	repo := &fakeAdRepo{saveErr: errors.New("connection refused")}
	router := newTestRouter(repo)

	w := postAd(router, adPayload(nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "error") {
		t.Errorf("body %s missing error field", w.Body.String())
	}
}

func TestSubmitAdDefaultsMissingInviteToSentinel(t *testing.T) {
	repo := &fakeAdRepo{}
	router := newTestRouter(repo)

	w := postAd(router, adPayload(map[string]any{"invite": nil}))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if repo.ads[0].Invite != models.NoInvite {
		t.Errorf("Invite = %q, want sentinel", repo.ads[0].Invite)
	}
}

func TestListAdsOrderedByTimestampDescending(t *testing.T) {
	repo := &fakeAdRepo{}
	router := newTestRouter(repo)

	for i, ts := range []string{"2025-07-20T10:00:00Z", "2025-07-20T11:00:00Z", "2025-07-20T12:00:00Z"} {
		w := postAd(router, adPayload(map[string]any{
			"timestamp": ts,
			"content":   fmt.Sprintf("ad %d", i+1),
		}))
		if w.Code != http.StatusOK {
			t.Fatalf("seed submission %d failed: %d", i, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/ads", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var ads []models.Ad
	if err := json.Unmarshal(w.Body.Bytes(), &ads); err != nil {
		t.Fatal(err)
	}
	if len(ads) != 3 {
		t.Fatalf("listed %d ads, want 3", len(ads))
	}
	for i := 0; i < len(ads)-1; i++ {
		if ads[i].Timestamp.Before(ads[i+1].Timestamp) {
			t.Errorf("ads out of order at %d: %v before %v", i, ads[i].Timestamp, ads[i+1].Timestamp)
		}
	}
	if ads[0].Content != "ad 3" {
		t.Errorf("newest ad content = %q, want %q", ads[0].Content, "ad 3")
	}

	// Round-trip: submitted fields come back verbatim.
	if ads[0].ServerName != "Fire Ads" || ads[0].Category != "Premium" || ads[0].AuthorID != 42 {
		t.Errorf("round-tripped ad lost fields: %+v", ads[0])
	}
}

func TestListAdsStorageError(t *testing.T) {
	repo := &fakeAdRepo{listErr: errors.New("connection refused")}
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/ads", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestConcurrentSubmissionsOfOneKey(t *testing.T) {
	repo := &fakeAdRepo{}
	router := newTestRouter(repo)

	const n = 20
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := postAd(router, adPayload(nil))
			var resp map[string]string
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			results <- resp["status"]
		}()
	}
	wg.Wait()
	close(results)

	accepted, duplicate := 0, 0
	for status := range results {
		switch status {
		case "success":
			accepted++
		case "duplicate":
			duplicate++
		default:
			t.Errorf("unexpected status %q", status)
		}
	}
	if accepted != 1 {
		t.Errorf("accepted = %d, want exactly 1", accepted)
	}
	if duplicate != n-1 {
		t.Errorf("duplicate = %d, want %d", duplicate, n-1)
	}
	if len(repo.ads) != 1 {
		t.Errorf("stored %d ads, want 1", len(repo.ads))
	}
}
