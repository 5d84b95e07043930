package api_test

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/thesapansharma/Fittr/internal/api"
	"github.com/thesapansharma/Fittr/internal/coach"
	"github.com/thesapansharma/Fittr/internal/messaging"
	"github.com/thesapansharma/Fittr/internal/models"
	"github.com/thesapansharma/Fittr/internal/store"
	"github.com/thesapansharma/Fittr/internal/testutil"
)

var otpRe = regexp.MustCompile(`\d{6}`)

func TestHealthEndpoint(t *testing.T) {
	server, st, _ := testutil.NewTestServer()
	st.CreateProfile("+919876543210")

	req := testutil.CreateHTTPRequest(t, http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	server.Routes().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "health")
	resp := testutil.AssertJSONResponse(t, rr, "ok")
	result := resp["result"].(map[string]interface{})
	if result["users"].(float64) != 1 {
		t.Errorf("expected 1 user in health payload, got %v", result["users"])
	}
}

func TestRegistrationOptionEndpoints(t *testing.T) {
	server, _, _ := testutil.NewTestServer()
	routes := server.Routes()

	for _, path := range []string{
		"/api/register/medical-options",
		"/api/register/office-timing-options",
		"/api/register/capacity",
	} {
		req := testutil.CreateHTTPRequest(t, http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		routes.ServeHTTP(rr, req)
		testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, path)
		testutil.AssertJSONResponse(t, rr, "ok")
	}

	// Wrong method gets rejected
	req := testutil.CreateHTTPRequest(t, http.MethodPost, "/api/register/capacity", nil)
	rr := httptest.NewRecorder()
	routes.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusMethodNotAllowed, rr.Code, "capacity wrong method")
}

// runOTPFlow walks send-otp and verify-otp for an identity, returning the
// verify token.
func runOTPFlow(t *testing.T, routes *http.ServeMux, svc *messaging.MockService, identity string) string {
	t.Helper()

	req := testutil.CreateHTTPRequest(t, http.MethodPost, "/api/register/send-otp",
		map[string]string{"identity": identity})
	rr := httptest.NewRecorder()
	routes.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "send-otp")

	sent := svc.SentMessages()
	if len(sent) == 0 {
		t.Fatal("no OTP message delivered")
	}
	code := otpRe.FindString(sent[len(sent)-1].Body)
	if code == "" {
		t.Fatalf("no code found in OTP message: %q", sent[len(sent)-1].Body)
	}

	req = testutil.CreateHTTPRequest(t, http.MethodPost, "/api/register/verify-otp",
		map[string]string{"identity": identity, "code": code})
	rr = httptest.NewRecorder()
	routes.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "verify-otp")
	resp := testutil.AssertJSONResponse(t, rr, "ok")
	token := resp["result"].(map[string]interface{})["verify_token"].(string)
	if token == "" {
		t.Fatal("verify token missing from response")
	}
	return token
}

func TestRegistrationFullFlow(t *testing.T) {
	server, st, svc := testutil.NewTestServer()
	routes := server.Routes()
	identity := "+919876543210"

	token := runOTPFlow(t, routes, svc, identity)

	req := testutil.CreateHTTPRequest(t, http.MethodPost, "/api/register",
		map[string]string{"verify_token": token})
	rr := httptest.NewRecorder()
	routes.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "register")
	testutil.AssertJSONResponse(t, rr, "ok")

	profile, err := st.FindProfile(identity)
	if err != nil || profile == nil {
		t.Fatalf("profile not created: %v, %v", profile, err)
	}
	if profile.OnboardingComplete {
		t.Error("registration must not complete onboarding")
	}

	// Welcome message goes out over the transport
	sent := svc.SentMessages()
	if !strings.Contains(sent[len(sent)-1].Body, "Registration complete") {
		t.Errorf("welcome message not sent: %q", sent[len(sent)-1].Body)
	}

	// Tokens are single-use
	req = testutil.CreateHTTPRequest(t, http.MethodPost, "/api/register",
		map[string]string{"verify_token": token})
	rr = httptest.NewRecorder()
	routes.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusUnauthorized, rr.Code, "register token reuse")
}

func TestVerifyOTPWrongCode(t *testing.T) {
	server, _, _ := testutil.NewTestServer()
	routes := server.Routes()
	identity := "+919876543210"

	req := testutil.CreateHTTPRequest(t, http.MethodPost, "/api/register/send-otp",
		map[string]string{"identity": identity})
	rr := httptest.NewRecorder()
	routes.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "send-otp")

	wrong := map[string]string{"identity": identity, "code": "000000"}
	for i := 0; i < api.OTPMaxAttempts-1; i++ {
		req = testutil.CreateHTTPRequest(t, http.MethodPost, "/api/register/verify-otp", wrong)
		rr = httptest.NewRecorder()
		routes.ServeHTTP(rr, req)
		testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "wrong code")
	}

	// Final attempt burns the code
	req = testutil.CreateHTTPRequest(t, http.MethodPost, "/api/register/verify-otp", wrong)
	rr = httptest.NewRecorder()
	routes.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusTooManyRequests, rr.Code, "too many attempts")

	// Code is gone, even the right one would fail now
	req = testutil.CreateHTTPRequest(t, http.MethodPost, "/api/register/verify-otp", wrong)
	rr = httptest.NewRecorder()
	routes.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "burned code")
}

func TestSendOTPInvalidIdentity(t *testing.T) {
	server, _, _ := testutil.NewTestServer()
	req := testutil.CreateHTTPRequest(t, http.MethodPost, "/api/register/send-otp",
		map[string]string{"identity": ""})
	rr := httptest.NewRecorder()
	server.Routes().ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "empty identity")
}

func TestAdminAuth(t *testing.T) {
	server, _, _ := testutil.NewTestServer()
	routes := server.Routes()

	req := testutil.CreateHTTPRequest(t, http.MethodGet, "/api/admin/overview", nil)
	rr := httptest.NewRecorder()
	routes.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusUnauthorized, rr.Code, "missing token")

	req = testutil.CreateHTTPRequest(t, http.MethodGet, "/api/admin/overview", nil)
	req.Header.Set(api.AdminTokenHeader, "wrong")
	rr = httptest.NewRecorder()
	routes.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusUnauthorized, rr.Code, "wrong token")

	req = testutil.CreateHTTPRequest(t, http.MethodGet, "/api/admin/overview", nil)
	req.Header.Set(api.AdminTokenHeader, testutil.TestAdminToken)
	rr = httptest.NewRecorder()
	routes.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "valid token")
	testutil.AssertJSONResponse(t, rr, "ok")
}

func TestAdminDisabledWithoutToken(t *testing.T) {
	st := store.NewInMemoryStore()
	svc := messaging.NewMockService()
	server := api.NewServer(st, svc, coach.NewCoach(st), "")

	req := testutil.CreateHTTPRequest(t, http.MethodGet, "/api/admin/overview", nil)
	req.Header.Set(api.AdminTokenHeader, "")
	rr := httptest.NewRecorder()
	server.Routes().ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusForbidden, rr.Code, "admin disabled")
}

func TestAdminUsersAndMessages(t *testing.T) {
	server, st, _ := testutil.NewTestServer()
	routes := server.Routes()
	p, _ := st.CreateProfile("+919876543210")
	st.AddMessageLog(models.MessageLog{
		UserID:    p.ID,
		Direction: models.DirectionIncoming,
		Body:      "water 2",
	})

	req := testutil.CreateHTTPRequest(t, http.MethodGet, "/api/admin/users?limit=5", nil)
	req.Header.Set(api.AdminTokenHeader, testutil.TestAdminToken)
	rr := httptest.NewRecorder()
	routes.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "admin users")

	req = testutil.CreateHTTPRequest(t, http.MethodGet, "/api/admin/messages?identity=%2B919876543210", nil)
	req.Header.Set(api.AdminTokenHeader, testutil.TestAdminToken)
	rr = httptest.NewRecorder()
	routes.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "admin messages")
	resp := testutil.AssertJSONResponse(t, rr, "ok")
	if msgs := resp["result"].([]interface{}); len(msgs) != 1 {
		t.Errorf("expected 1 message, got %d", len(msgs))
	}

	req = testutil.CreateHTTPRequest(t, http.MethodGet, "/api/admin/messages?identity=%2B910000000000", nil)
	req.Header.Set(api.AdminTokenHeader, testutil.TestAdminToken)
	rr = httptest.NewRecorder()
	routes.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "unknown identity")
}

func TestAdminSimulate(t *testing.T) {
	server, _, _ := testutil.NewTestServer()
	routes := server.Routes()

	req := testutil.CreateHTTPRequest(t, http.MethodPost, "/api/admin/simulate",
		map[string]string{"identity": "+919876543210", "message": "hi"})
	req.Header.Set(api.AdminTokenHeader, testutil.TestAdminToken)
	rr := httptest.NewRecorder()
	routes.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "simulate")
	resp := testutil.AssertJSONResponse(t, rr, "ok")
	reply := resp["result"].(map[string]interface{})["reply"].(string)
	if !strings.Contains(reply, "Welcome to FitBudget") {
		t.Errorf("expected onboarding prompt for new identity, got %q", reply)
	}

	req = testutil.CreateHTTPRequest(t, http.MethodPost, "/api/admin/simulate",
		map[string]string{"identity": "", "message": "hi"})
	req.Header.Set(api.AdminTokenHeader, testutil.TestAdminToken)
	rr = httptest.NewRecorder()
	routes.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "simulate missing identity")
}
