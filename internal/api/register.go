package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/thesapansharma/Fittr/internal/messaging"
	"github.com/thesapansharma/Fittr/internal/models"
	"github.com/thesapansharma/Fittr/internal/store"
	"github.com/thesapansharma/Fittr/internal/util"
)

// Registration limits and lifetimes.
const (
	// RegistrationCapacity caps the total number of registered users
	RegistrationCapacity = 200
	// OTPLength is the number of digits in a one-time password
	OTPLength = 6
	// OTPTTL is how long an OTP stays valid
	OTPTTL = 10 * time.Minute
	// OTPMaxAttempts is the number of wrong guesses before the OTP is discarded
	OTPMaxAttempts = 5
	// VerifyTokenTTL is how long a verified phone may complete registration
	VerifyTokenTTL = 15 * time.Minute
)

// officeTimingOptions are the presets offered during registration.
var officeTimingOptions = []string{
	"9am-6pm",
	"10am-7pm",
	"8am-5pm",
	"night shift",
	"flexible",
}

type otpEntry struct {
	code      string
	expiresAt time.Time
	attempts  int
}

type verifyEntry struct {
	identity  string
	expiresAt time.Time
}

// registration implements the OTP-gated signup surface. Pending OTPs and
// verify tokens live in memory; expiry is checked on read so no sweeper
// goroutine is needed.
type registration struct {
	store      store.Store
	msgService messaging.Service
	clock      func() time.Time

	mu     sync.Mutex
	otps   map[string]*otpEntry
	tokens map[string]*verifyEntry
}

func newRegistration(st store.Store, msgService messaging.Service) *registration {
	return &registration{
		store:      st,
		msgService: msgService,
		clock:      time.Now,
		otps:       make(map[string]*otpEntry),
		tokens:     make(map[string]*verifyEntry),
	}
}

func (reg *registration) medicalOptionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(models.SupportedMedicalIssues))
}

func (reg *registration) officeTimingOptionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(officeTimingOptions))
}

func (reg *registration) capacityHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	counts, err := reg.store.Counts()
	if err != nil {
		slog.Error("Capacity check failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Store unavailable"))
		return
	}
	available := RegistrationCapacity - counts.Users
	if available < 0 {
		available = 0
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]int{
		"capacity":   RegistrationCapacity,
		"registered": counts.Users,
		"available":  available,
	}))
}

type sendOTPRequest struct {
	Identity string `json:"identity"`
}

func (reg *registration) sendOTPHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid request body"))
		return
	}
	identity, err := reg.msgService.ValidateAndCanonicalizeRecipient(req.Identity)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(fmt.Sprintf("Invalid identity: %v", err)))
		return
	}

	if full, err := reg.atCapacity(); err != nil {
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Store unavailable"))
		return
	} else if full {
		writeJSONResponse(w, http.StatusForbidden, models.Error("Registration is currently full"))
		return
	}

	code := util.GenerateOTP(OTPLength)
	reg.mu.Lock()
	reg.otps[identity] = &otpEntry{code: code, expiresAt: reg.clock().Add(OTPTTL)}
	reg.mu.Unlock()

	body := fmt.Sprintf("Your FitBudget verification code is %s. It expires in %d minutes.", code, int(OTPTTL.Minutes()))
	if err := reg.msgService.SendMessage(r.Context(), identity, body); err != nil {
		slog.Error("Failed to deliver OTP", "identity", identity, "error", err)
		writeJSONResponse(w, http.StatusBadGateway, models.Error("Failed to deliver verification code"))
		return
	}
	slog.Info("OTP sent", "identity", identity)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Verification code sent", nil))
}

type verifyOTPRequest struct {
	Identity string `json:"identity"`
	Code     string `json:"code"`
}

func (reg *registration) verifyOTPHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid request body"))
		return
	}
	identity, err := reg.msgService.ValidateAndCanonicalizeRecipient(req.Identity)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(fmt.Sprintf("Invalid identity: %v", err)))
		return
	}

	reg.mu.Lock()
	entry, ok := reg.otps[identity]
	if ok && reg.clock().After(entry.expiresAt) {
		delete(reg.otps, identity)
		ok = false
	}
	if !ok {
		reg.mu.Unlock()
		writeJSONResponse(w, http.StatusBadRequest, models.Error("No active verification code; request a new one"))
		return
	}
	if strings.TrimSpace(req.Code) != entry.code {
		entry.attempts++
		if entry.attempts >= OTPMaxAttempts {
			delete(reg.otps, identity)
			reg.mu.Unlock()
			writeJSONResponse(w, http.StatusTooManyRequests, models.Error("Too many wrong attempts; request a new code"))
			return
		}
		reg.mu.Unlock()
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Incorrect verification code"))
		return
	}
	delete(reg.otps, identity)
	token := util.GenerateVerifyToken()
	reg.tokens[token] = &verifyEntry{identity: identity, expiresAt: reg.clock().Add(VerifyTokenTTL)}
	reg.mu.Unlock()

	slog.Info("OTP verified", "identity", identity)
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"verify_token": token}))
}

type registerRequest struct {
	VerifyToken string `json:"verify_token"`
}

// registerHandler completes signup for a verified identity. Onboarding
// itself happens over chat with the usual comma-separated message.
func (reg *registration) registerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid request body"))
		return
	}

	reg.mu.Lock()
	entry, ok := reg.tokens[req.VerifyToken]
	if ok && reg.clock().After(entry.expiresAt) {
		delete(reg.tokens, req.VerifyToken)
		ok = false
	}
	if ok {
		delete(reg.tokens, req.VerifyToken)
	}
	reg.mu.Unlock()
	if !ok {
		writeJSONResponse(w, http.StatusUnauthorized, models.Error("Invalid or expired verify token"))
		return
	}

	if full, err := reg.atCapacity(); err != nil {
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Store unavailable"))
		return
	} else if full {
		writeJSONResponse(w, http.StatusForbidden, models.Error("Registration is currently full"))
		return
	}

	profile, err := reg.store.CreateProfile(entry.identity)
	if err != nil {
		slog.Error("Registration failed to create profile", "identity", entry.identity, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create profile"))
		return
	}
	slog.Info("User registered", "identity", entry.identity)

	welcome := "Registration complete 🎉 Say hi on chat to start onboarding."
	if err := reg.msgService.SendMessage(r.Context(), entry.identity, welcome); err != nil {
		slog.Error("Registration welcome send failed", "identity", entry.identity, "error", err)
	}

	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Registered", map[string]string{
		"identity": profile.Identity,
	}))
}

func (reg *registration) atCapacity() (bool, error) {
	counts, err := reg.store.Counts()
	if err != nil {
		slog.Error("Registration capacity check failed", "error", err)
		return false, err
	}
	return counts.Users >= RegistrationCapacity, nil
}
