package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	decisionservice "stepup-auth-gateway/internal/decision/service"
	"stepup-auth-gateway/internal/server/middleware"
)

// Signal headers the client attaches to risky operations.
const (
	HeaderDeviceID = "X-Device-Id"
	HeaderCountry  = "X-Country"
)

type DecisionHandler struct {
	coordinator *decisionservice.Coordinator
	verifier    *decisionservice.Verifier
	logger      *zap.Logger
}

func NewDecisionHandler(coordinator *decisionservice.Coordinator, verifier *decisionservice.Verifier, logger *zap.Logger) *DecisionHandler {
	return &DecisionHandler{coordinator: coordinator, verifier: verifier, logger: logger}
}

func authenticatedUserID(r *http.Request) (uuid.UUID, error) {
	id := middleware.IdentityFrom(r.Context())
	if id == nil {
		return uuid.Nil, errors.New("no identity")
	}
	return uuid.Parse(id.UserID)
}

type authorizeRequest struct {
	ActionType string `json:"actionType"`
	Amount     string `json:"amount"`
}

type authorizeResponse struct {
	Decision   string `json:"decision"`
	DecisionID string `json:"decisionId"`
	RiskScore  int    `json:"riskScore"`
	RiskLevel  string `json:"riskLevel"`
	// ChallengeID is present only when decision is STEP_UP_REQUIRED.
	ChallengeID string `json:"challengeId,omitempty"`
	OTPPreview  string `json:"otpPreview,omitempty"`
}

// Authorize scores a transaction. The device and country signals travel in
// headers; an absent amount contributes zero risk.
func (h *DecisionHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	userID, err := authenticatedUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req authorizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	amount := decimal.Zero
	if req.Amount != "" {
		amount, err = decimal.NewFromString(req.Amount)
		if err != nil {
			respondError(w, http.StatusBadRequest, "malformed amount")
			return
		}
	}

	res, err := h.coordinator.Authorize(r.Context(), userID,
		r.Header.Get(HeaderDeviceID), r.Header.Get(HeaderCountry),
		req.ActionType, amount)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	resp := authorizeResponse{
		Decision:   string(res.Decision),
		DecisionID: res.DecisionID.String(),
		RiskScore:  res.RiskScore,
		RiskLevel:  string(res.RiskLevel),
		OTPPreview: res.OTPPreview,
	}
	if res.ChallengeID != nil {
		resp.ChallengeID = res.ChallengeID.String()
	}
	respondJSON(w, http.StatusOK, resp)
}

type verifyRequest struct {
	ChallengeID string `json:"challengeId"`
	Code        string `json:"code"`
}

type verifyResponse struct {
	Status     string `json:"status"`
	DecisionID string `json:"decisionId"`
}

func (h *DecisionHandler) Verify(w http.ResponseWriter, r *http.Request) {
	userID, err := authenticatedUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req verifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	challengeID, err := uuid.Parse(req.ChallengeID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed challenge id")
		return
	}

	res, err := h.verifier.Verify(r.Context(), userID, challengeID, req.Code)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, verifyResponse{
		Status:     string(res.Status),
		DecisionID: res.DecisionID.String(),
	})
}
