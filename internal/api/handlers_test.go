package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"torquebackend/internal/chat"
	"torquebackend/internal/chat/models"
	"torquebackend/internal/llm"
	"torquebackend/internal/vin"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeCompleter struct {
	calls		int
	completion	models.Completion
	err		error
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []models.Message, params models.CompletionParams) (models.Completion, error) {
	f.calls++
	if f.err != nil {
		return models.Completion{}, f.err
	}
	return f.completion, nil
}

func newTestHandler(fake *fakeCompleter) *Handler {
	ceilings := map[models.Tier]int{
		models.TierFree:	1500,
		models.TierPro:		6000,
	}
	replyTokens := map[models.Tier]int{
		models.TierFree:	512,
		models.TierPro:		1024,
	}
	assembler := chat.NewAssembler(fake, 6, ceilings, replyTokens)
	vinService := vin.NewService(fake, ceilings)

	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	return NewHandler(assembler, vinService, nil, "test-signing-key", string(hash), time.Hour, 5*time.Second)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestChatHandler_Success(t *testing.T) {
	fake := &fakeCompleter{completion: models.Completion{
		Text:	"Use 5W-30 synthetic.",
		Usage:	&models.Usage{PromptTokens: 50, CompletionTokens: 12, TotalTokens: 62},
	}}
	h := newTestHandler(fake)

	rec := postJSON(t, h.ChatHandler, "/api/chat", ChatRequest{
		Messages:	[]models.Message{{Role: models.RoleUser, Content: "What oil does a 2004 G35 take?"}},
		Tier:		"free",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Use 5W-30 synthetic.", resp.Reply)
	require.NotNil(t, resp.Usage)
	require.Equal(t, 62, resp.Usage.TotalTokens)
	require.Equal(t, 1, fake.calls)
}

func TestChatHandler_BudgetExceeded(t *testing.T) {
	fake := &fakeCompleter{}
	h := newTestHandler(fake)

	rec := postJSON(t, h.ChatHandler, "/api/chat", ChatRequest{
		Messages:	[]models.Message{{Role: models.RoleUser, Content: strings.Repeat("a", 6100)}},
		Tier:		"free",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Error, "upgrade")
	require.Equal(t, 0, fake.calls, "при отказе бюджета запрос к модели не отправляется")
}

func TestChatHandler_UpstreamError(t *testing.T) {
	fake := &fakeCompleter{err: &llm.UpstreamError{Kind: llm.KindTimeout, Err: errors.New("deadline exceeded")}}
	h := newTestHandler(fake)

	rec := postJSON(t, h.ChatHandler, "/api/chat", ChatRequest{
		Messages:	[]models.Message{{Role: models.RoleUser, Content: "hello"}},
		Tier:		"pro",
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Error, "try again later")
	require.NotContains(t, resp.Error, "upgrade")
}

func TestChatHandler_InvalidMessage(t *testing.T) {
	h := newTestHandler(&fakeCompleter{})

	rec := postJSON(t, h.ChatHandler, "/api/chat", ChatRequest{
		Messages:	[]models.Message{{Role: "robot", Content: "beep"}},
		Tier:		"free",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHandler_UnknownTier(t *testing.T) {
	h := newTestHandler(&fakeCompleter{})

	rec := postJSON(t, h.ChatHandler, "/api/chat", ChatRequest{
		Messages:	[]models.Message{{Role: models.RoleUser, Content: "hello"}},
		Tier:		"platinum",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHandler_BadJSON(t *testing.T) {
	h := newTestHandler(&fakeCompleter{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ChatHandler(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHandler_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(&fakeCompleter{})

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	h.ChatHandler(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestVINDecodeHandler_Success(t *testing.T) {
	fake := &fakeCompleter{completion: models.Completion{Text: "2003 Honda Accord EX, 2.4L"}}
	h := newTestHandler(fake)

	rec := postJSON(t, h.VINDecodeHandler, "/api/vin/decode", VINDecodeRequest{
		VIN:	"1HGCM82633A004352",
		Tier:	"free",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "2003 Honda Accord EX, 2.4L", resp.Reply)
}

func TestVINDecodeHandler_InvalidVIN(t *testing.T) {
	fake := &fakeCompleter{}
	h := newTestHandler(fake)

	rec := postJSON(t, h.VINDecodeHandler, "/api/vin/decode", VINDecodeRequest{
		VIN:	"not-a-vin",
		Tier:	"free",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Error, "VIN")
	require.Equal(t, 0, fake.calls)
}

func TestRegisterDeviceHandler(t *testing.T) {
	h := newTestHandler(&fakeCompleter{})

	rec := postJSON(t, h.RegisterDeviceHandler, "/api/device/register", RegisterDeviceRequest{
		DeviceID:	"device-42",
		AppSecret:	"s3cret",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RegisterDeviceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
}

func TestRegisterDeviceHandler_WrongSecret(t *testing.T) {
	h := newTestHandler(&fakeCompleter{})

	rec := postJSON(t, h.RegisterDeviceHandler, "/api/device/register", RegisterDeviceRequest{
		DeviceID:	"device-42",
		AppSecret:	"wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterDeviceHandler_MissingDeviceID(t *testing.T) {
	h := newTestHandler(&fakeCompleter{})

	rec := postJSON(t, h.RegisterDeviceHandler, "/api/device/register", RegisterDeviceRequest{
		AppSecret: "s3cret",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsageHandler_NoDevice(t *testing.T) {
	h := newTestHandler(&fakeCompleter{})

	req := httptest.NewRequest(http.MethodGet, "/api/usage/me", nil)
	rec := httptest.NewRecorder()
	h.UsageHandler(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	h := newTestHandler(&fakeCompleter{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HealthHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
