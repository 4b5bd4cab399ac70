package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"charitychain/internal/http/handlers"
	"charitychain/internal/infra"
	"charitychain/internal/middleware"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	users := &memUsers{}
	app := handlers.NewApp(
		zerolog.Nop(),
		testSecret,
		time.Hour,
		users,
		&memDonations{users: users},
		&memDistributions{users: users},
	)
	cfg := &infra.Config{
		RateLimitPerMin: 1000,
		CORSOrigins:     []string{"http://localhost:3000"},
	}
	return NewRouter(app, cfg, zerolog.Nop(), nil)
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var payload []map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func register(t *testing.T, h http.Handler, name, email, role string) (id, token string) {
	t.Helper()
	rr := doJSON(t, h, "POST", "/users/register", "", map[string]any{
		"name":     name,
		"email":    email,
		"password": "password123",
		"role":     role,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body = %s", email, rr.Code, rr.Body.String())
	}
	payload := decodeMap(t, rr)
	id, _ = payload["_id"].(string)
	token, _ = payload["token"].(string)
	if id == "" || token == "" {
		t.Fatalf("register %s: incomplete response %#v", email, payload)
	}
	return id, token
}

func TestRegisterAndLogin(t *testing.T) {
	h := newTestRouter(t)

	rr := doJSON(t, h, "POST", "/users/register", "", map[string]any{
		"name":     "Test User",
		"email":    "test@example.com",
		"password": "password123",
		"role":     "donor",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body = %s", rr.Code, rr.Body.String())
	}
	payload := decodeMap(t, rr)
	if payload["name"] != "Test User" || payload["email"] != "test@example.com" || payload["role"] != "donor" {
		t.Fatalf("register: unexpected payload %#v", payload)
	}
	if tok, _ := payload["token"].(string); tok == "" {
		t.Fatal("register: missing token")
	}
	if _, ok := payload["password"]; ok {
		t.Fatal("register: response leaked a password field")
	}

	rr = doJSON(t, h, "POST", "/users/login", "", map[string]any{
		"email":    "test@example.com",
		"password": "password123",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body = %s", rr.Code, rr.Body.String())
	}
	payload = decodeMap(t, rr)
	if tok, _ := payload["token"].(string); tok == "" {
		t.Fatal("login: missing token")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h := newTestRouter(t)
	register(t, h, "Test User", "test@example.com", "donor")

	// Uniqueness is case-insensitive.
	rr := doJSON(t, h, "POST", "/users/register", "", map[string]any{
		"name":     "Other User",
		"email":    "TEST@Example.COM",
		"password": "password123",
		"role":     "donor",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register: status = %d, want 400", rr.Code)
	}
	if payload := decodeMap(t, rr); payload["error"] != "User already exists" {
		t.Fatalf("duplicate register: error = %#v", payload["error"])
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	h := newTestRouter(t)
	rr := doJSON(t, h, "POST", "/users/register", "", map[string]any{
		"name":     "Test User",
		"email":    "test@example.com",
		"password": "password123",
		"role":     "superuser",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if payload := decodeMap(t, rr); payload["error"] != "Invalid user data" {
		t.Fatalf("error = %#v, want Invalid user data", payload["error"])
	}
}

func TestConcurrentRegistrationSingleWinner(t *testing.T) {
	h := newTestRouter(t)

	const attempts = 8
	codes := make([]int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rr := doJSON(t, h, "POST", "/users/register", "", map[string]any{
				"name":     "Test User",
				"email":    "race@example.com",
				"password": "password123",
				"role":     "donor",
			})
			codes[i] = rr.Code
		}(i)
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		if code == http.StatusCreated {
			created++
		} else if code != http.StatusBadRequest {
			t.Fatalf("unexpected status %d", code)
		}
	}
	if created != 1 {
		t.Fatalf("concurrent registrations: %d succeeded, want exactly 1", created)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	h := newTestRouter(t)
	register(t, h, "Test User", "test@example.com", "donor")

	wrongPassword := doJSON(t, h, "POST", "/users/login", "", map[string]any{
		"email":    "test@example.com",
		"password": "wrongpassword",
	})
	unknownEmail := doJSON(t, h, "POST", "/users/login", "", map[string]any{
		"email":    "nobody@example.com",
		"password": "password123",
	})

	for _, rr := range []*httptest.ResponseRecorder{wrongPassword, unknownEmail} {
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rr.Code)
		}
		if payload := decodeMap(t, rr); payload["error"] != "Invalid email or password" {
			t.Fatalf("error = %#v, want Invalid email or password", payload["error"])
		}
	}
}

func TestProfile(t *testing.T) {
	h := newTestRouter(t)
	id, token := register(t, h, "Test User", "test@example.com", "donor")

	rr := doJSON(t, h, "GET", "/users/profile", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("profile: status = %d", rr.Code)
	}
	payload := decodeMap(t, rr)
	if payload["_id"] != id || payload["email"] != "test@example.com" || payload["role"] != "donor" {
		t.Fatalf("profile: unexpected payload %#v", payload)
	}
	if _, ok := payload["password"]; ok {
		t.Fatal("profile leaked a password field")
	}

	rr = doJSON(t, h, "GET", "/users/profile", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("profile without token: status = %d, want 401", rr.Code)
	}
	if payload := decodeMap(t, rr); payload["error"] != "Not authorized, no token" {
		t.Fatalf("profile without token: error = %#v", payload["error"])
	}
}

func TestProfileRejectsExpiredToken(t *testing.T) {
	h := newTestRouter(t)
	id, _ := register(t, h, "Test User", "test@example.com", "donor")

	expired, err := middleware.SignJWT(testSecret, middleware.TokenClaims{
		Sub: id,
		Exp: time.Now().Add(-time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("SignJWT() error: %v", err)
	}

	rr := doJSON(t, h, "GET", "/users/profile", expired, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if payload := decodeMap(t, rr); payload["error"] != "Not authorized, token failed" {
		t.Fatalf("error = %#v", payload["error"])
	}
}

func TestDonationLifecycle(t *testing.T) {
	h := newTestRouter(t)
	aliceID, aliceToken := register(t, h, "Alice", "alice@example.com", "donor")
	_, bobToken := register(t, h, "Bob", "bob@example.com", "donor")

	rr := doJSON(t, h, "POST", "/donations", aliceToken, map[string]any{
		"cid":    "Qm1",
		"amount": 50,
		"note":   "x",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create donation: status = %d, body = %s", rr.Code, rr.Body.String())
	}
	created := decodeMap(t, rr)
	if id, _ := created["_id"].(string); id == "" {
		t.Fatalf("create donation: missing _id in %#v", created)
	}
	if created["user"] != aliceID || created["cid"] != "Qm1" || created["amount"] != float64(50) {
		t.Fatalf("create donation: unexpected payload %#v", created)
	}

	mine := doJSON(t, h, "GET", "/donations/user", aliceToken, nil)
	if mine.Code != http.StatusOK {
		t.Fatalf("list mine: status = %d", mine.Code)
	}
	items := decodeList(t, mine)
	if len(items) != 1 || items[0]["cid"] != "Qm1" {
		t.Fatalf("list mine: unexpected items %#v", items)
	}

	other := doJSON(t, h, "GET", "/donations/user", bobToken, nil)
	if got := decodeList(t, other); len(got) != 0 {
		t.Fatalf("list mine for other donor: got %d items, want 0", len(got))
	}

	all := doJSON(t, h, "GET", "/donations", bobToken, nil)
	if all.Code != http.StatusOK {
		t.Fatalf("list all: status = %d", all.Code)
	}
	body := all.Body.String()
	if strings.Contains(body, "password") {
		t.Fatalf("list all leaked password material: %s", body)
	}
	allItems := decodeList(t, all)
	if len(allItems) != 1 {
		t.Fatalf("list all: got %d items, want 1", len(allItems))
	}
	owner, ok := allItems[0]["user"].(map[string]any)
	if !ok {
		t.Fatalf("list all: owner not expanded: %#v", allItems[0]["user"])
	}
	if owner["name"] != "Alice" || owner["email"] != "alice@example.com" {
		t.Fatalf("list all: unexpected owner %#v", owner)
	}
}

func TestDonationCreateRequiresDonorRole(t *testing.T) {
	h := newTestRouter(t)
	_, ngoToken := register(t, h, "Relief Org", "ngo@example.com", "ngo")
	_, donorToken := register(t, h, "Alice", "alice@example.com", "donor")

	rr := doJSON(t, h, "POST", "/donations", ngoToken, map[string]any{
		"cid":    "Qm1",
		"amount": 50,
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if payload := decodeMap(t, rr); payload["error"] != "Not authorized as a donor" {
		t.Fatalf("error = %#v", payload["error"])
	}

	all := doJSON(t, h, "GET", "/donations", donorToken, nil)
	if got := decodeList(t, all); len(got) != 0 {
		t.Fatalf("rejected create still persisted a record: %#v", got)
	}
}

func TestDonationValidationSurfacesAsStoreError(t *testing.T) {
	h := newTestRouter(t)
	_, token := register(t, h, "Alice", "alice@example.com", "donor")

	missingCID := doJSON(t, h, "POST", "/donations", token, map[string]any{"amount": 50})
	if missingCID.Code != http.StatusInternalServerError {
		t.Fatalf("missing cid: status = %d, want 500", missingCID.Code)
	}
	if payload := decodeMap(t, missingCID); payload["error"] == "" {
		t.Fatal("missing cid: empty error body")
	}

	negative := doJSON(t, h, "POST", "/donations", token, map[string]any{"cid": "Qm1", "amount": -5})
	if negative.Code != http.StatusInternalServerError {
		t.Fatalf("negative amount: status = %d, want 500", negative.Code)
	}

	// A body without an amount must not slip through as an implicit zero.
	missingAmount := doJSON(t, h, "POST", "/donations", token, map[string]any{"cid": "Qm1"})
	if missingAmount.Code != http.StatusInternalServerError {
		t.Fatalf("missing amount: status = %d, want 500", missingAmount.Code)
	}
	if payload := decodeMap(t, missingAmount); payload["error"] == "" {
		t.Fatal("missing amount: empty error body")
	}

	all := doJSON(t, h, "GET", "/donations", token, nil)
	if got := decodeList(t, all); len(got) != 0 {
		t.Fatalf("invalid creates persisted records: %#v", got)
	}
}

func TestDistributionValidationSurfacesAsStoreError(t *testing.T) {
	h := newTestRouter(t)
	_, token := register(t, h, "Relief Org", "ngo@example.com", "ngo")

	missingAmount := doJSON(t, h, "POST", "/distributions", token, map[string]any{
		"cid":         "Qm2",
		"location":    "Jakarta",
		"description": "medical supplies",
	})
	if missingAmount.Code != http.StatusInternalServerError {
		t.Fatalf("missing amount: status = %d, want 500", missingAmount.Code)
	}

	missingLocation := doJSON(t, h, "POST", "/distributions", token, map[string]any{
		"cid":         "Qm2",
		"amount":      25,
		"description": "medical supplies",
	})
	if missingLocation.Code != http.StatusInternalServerError {
		t.Fatalf("missing location: status = %d, want 500", missingLocation.Code)
	}

	all := doJSON(t, h, "GET", "/distributions", token, nil)
	if got := decodeList(t, all); len(got) != 0 {
		t.Fatalf("invalid creates persisted records: %#v", got)
	}
}

func TestDistributionLifecycle(t *testing.T) {
	h := newTestRouter(t)
	ngoID, ngoToken := register(t, h, "Relief Org", "ngo@example.com", "ngo")
	_, donorToken := register(t, h, "Alice", "alice@example.com", "donor")

	rr := doJSON(t, h, "POST", "/distributions", ngoToken, map[string]any{
		"cid":         "Qm2",
		"location":    "Jakarta",
		"amount":      25,
		"description": "medical supplies",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create distribution: status = %d, body = %s", rr.Code, rr.Body.String())
	}
	created := decodeMap(t, rr)
	if created["ngo"] != ngoID || created["location"] != "Jakarta" {
		t.Fatalf("create distribution: unexpected payload %#v", created)
	}

	mine := doJSON(t, h, "GET", "/distributions/ngo", ngoToken, nil)
	if mine.Code != http.StatusOK {
		t.Fatalf("list mine: status = %d", mine.Code)
	}
	if items := decodeList(t, mine); len(items) != 1 || items[0]["cid"] != "Qm2" {
		t.Fatalf("list mine: unexpected items %#v", items)
	}

	// The scoped listing itself is NGO-gated.
	scoped := doJSON(t, h, "GET", "/distributions/ngo", donorToken, nil)
	if scoped.Code != http.StatusUnauthorized {
		t.Fatalf("donor on /distributions/ngo: status = %d, want 401", scoped.Code)
	}

	all := doJSON(t, h, "GET", "/distributions", donorToken, nil)
	if all.Code != http.StatusOK {
		t.Fatalf("list all as donor: status = %d", all.Code)
	}
	items := decodeList(t, all)
	if len(items) != 1 {
		t.Fatalf("list all: got %d items, want 1", len(items))
	}
	owner, ok := items[0]["ngo"].(map[string]any)
	if !ok || owner["name"] != "Relief Org" {
		t.Fatalf("list all: owner not expanded: %#v", items[0]["ngo"])
	}
}

func TestDistributionCreateRequiresNgoRole(t *testing.T) {
	h := newTestRouter(t)
	_, donorToken := register(t, h, "Alice", "alice@example.com", "donor")
	_, ngoToken := register(t, h, "Relief Org", "ngo@example.com", "ngo")

	rr := doJSON(t, h, "POST", "/distributions", donorToken, map[string]any{
		"cid":         "Qm2",
		"location":    "Jakarta",
		"amount":      25,
		"description": "medical supplies",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if payload := decodeMap(t, rr); payload["error"] != "Not authorized as an NGO" {
		t.Fatalf("error = %#v", payload["error"])
	}

	all := doJSON(t, h, "GET", "/distributions", ngoToken, nil)
	if got := decodeList(t, all); len(got) != 0 {
		t.Fatalf("rejected create still persisted a record: %#v", got)
	}
}

func TestUnmatchedRoutesReturnJSON404(t *testing.T) {
	h := newTestRouter(t)

	for _, tc := range []struct{ method, path string }{
		{"GET", "/nope"},
		{"DELETE", "/donations"},
		{"PUT", "/users/profile"},
	} {
		rr := doJSON(t, h, tc.method, tc.path, "", nil)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("%s %s: status = %d, want 404", tc.method, tc.path, rr.Code)
		}
		if payload := decodeMap(t, rr); payload["error"] != "Route not found" {
			t.Fatalf("%s %s: error = %#v", tc.method, tc.path, payload["error"])
		}
	}
}

func TestRootBanner(t *testing.T) {
	h := newTestRouter(t)
	rr := doJSON(t, h, "GET", "/", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if rr.Body.String() != "API is running" {
		t.Fatalf("body = %q, want %q", rr.Body.String(), "API is running")
	}
}
