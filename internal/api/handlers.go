package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
	"torquebackend/internal/auth"
	"torquebackend/internal/chat"
	"torquebackend/internal/chat/models"
	"torquebackend/internal/llm"
	"torquebackend/internal/usage"
	"torquebackend/internal/vin"

	"github.com/sirupsen/logrus"
)

type Handler struct {
	assembler	*chat.Assembler
	vinService	*vin.Service
	usageService	*usage.Service
	jwtSigningKey	string
	appSecretHash	string
	deviceTokenTTL	time.Duration
	requestTimeout	time.Duration
}

func NewHandler(
	assembler *chat.Assembler,
	vinService *vin.Service,
	usageService *usage.Service,
	jwtKey string,
	appSecretHash string,
	deviceTokenTTL time.Duration,
	requestTimeout time.Duration,
) *Handler {
	return &Handler{
		assembler:	assembler,
		vinService:	vinService,
		usageService:	usageService,
		jwtSigningKey:	jwtKey,
		appSecretHash:	appSecretHash,
		deviceTokenTTL:	deviceTokenTTL,
		requestTimeout:	requestTimeout,
	}
}

type ChatRequest struct {
	Messages	[]models.Message	`json:"messages"`
	Tier		string			`json:"tier"`
}

type ChatResponse struct {
	Reply	string		`json:"reply"`
	Usage	*models.Usage	`json:"usage,omitempty"`
}

type VINDecodeRequest struct {
	VIN	string	`json:"vin"`
	Tier	string	`json:"tier"`
}

type RegisterDeviceRequest struct {
	DeviceID	string	`json:"device_id"`
	AppSecret	string	`json:"app_secret"`
}

type RegisterDeviceResponse struct {
	Token string `json:"token"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// Отказ бюджета и отказ модели намеренно разводятся по статусу и тексту:
// первый исправим самим пользователем, второй — нет.
func (h *Handler) writeSendError(w http.ResponseWriter, err error) {
	var exceeded *chat.ExceededError
	if errors.As(err, &exceeded) {
		writeError(w, http.StatusBadRequest,
			"This conversation is too long for your plan. Shorten it or upgrade to Pro.")
		return
	}

	if errors.Is(err, models.ErrInvalidMessage) {
		writeError(w, http.StatusBadRequest, "Malformed message: every message needs a valid role and content.")
		return
	}

	if errors.Is(err, models.ErrUnknownTier) || errors.Is(err, chat.ErrNoCeiling) {
		writeError(w, http.StatusBadRequest, "Unknown subscription tier.")
		return
	}

	var upstream *llm.UpstreamError
	if errors.As(err, &upstream) {
		writeError(w, http.StatusInternalServerError, "The assistant is unavailable right now. Please try again later.")
		return
	}

	logrus.Errorf("Необработанная ошибка при обработке запроса: %v", err)
	writeError(w, http.StatusInternalServerError, "Internal server error.")
}

func (h *Handler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	tier, err := models.ParseTier(req.Tier)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown subscription tier.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	completion, err := h.assembler.Send(ctx, req.Messages, tier)
	if err != nil {
		h.writeSendError(w, err)
		return
	}

	h.recordUsage(r.Context(), tier, "chat", chat.Estimate(req.Messages), completion.Usage)

	writeJSON(w, http.StatusOK, ChatResponse{
		Reply:	completion.Text,
		Usage:	completion.Usage,
	})
}

func (h *Handler) VINDecodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	var req VINDecodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	tier, err := models.ParseTier(req.Tier)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown subscription tier.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	completion, err := h.vinService.Decode(ctx, req.VIN, tier)
	if err != nil {
		if errors.Is(err, vin.ErrInvalidVIN) {
			writeError(w, http.StatusBadRequest, "Invalid VIN: expected 17 characters without I, O or Q.")
			return
		}
		h.writeSendError(w, err)
		return
	}

	h.recordUsage(r.Context(), tier, "vin_decode", 0, completion.Usage)

	writeJSON(w, http.StatusOK, ChatResponse{
		Reply:	completion.Text,
		Usage:	completion.Usage,
	})
}

func (h *Handler) RegisterDeviceHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	var req RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if req.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "device_id is required.")
		return
	}

	if h.appSecretHash == "" || !auth.CheckAppSecret(req.AppSecret, h.appSecretHash) {
		writeError(w, http.StatusUnauthorized, "Invalid app secret.")
		return
	}

	token, err := auth.GenerateDeviceToken(req.DeviceID, h.jwtSigningKey, h.deviceTokenTTL)
	if err != nil {
		logrus.Errorf("Ошибка генерации токена устройства '%s': %v", req.DeviceID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	writeJSON(w, http.StatusOK, RegisterDeviceResponse{Token: token})
}

func (h *Handler) UsageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	deviceID, ok := auth.GetDeviceIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Device not identified.")
		return
	}

	if h.usageService == nil {
		writeError(w, http.StatusServiceUnavailable, "Usage accounting is not available.")
		return
	}

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid 'days' parameter.")
			return
		}
		days = parsed
	}

	since := time.Now().AddDate(0, 0, -days)
	totals, err := h.usageService.GetTotals(r.Context(), deviceID, since)
	if err != nil {
		logrus.Errorf("Ошибка получения статистики устройства %s: %v", deviceID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	writeJSON(w, http.StatusOK, totals)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) recordUsage(ctx context.Context, tier models.Tier, kind string, estimatedTokens int, u *models.Usage) {
	if h.usageService == nil {
		return
	}
	deviceID, ok := auth.GetDeviceIDFromContext(ctx)
	if !ok {
		return
	}
	h.usageService.RecordExchange(ctx, deviceID, tier, kind, estimatedTokens, u)
}
