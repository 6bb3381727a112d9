package webapi_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	infraeventbus "github.com/obmenka/settlement/infra/eventbus"
	"github.com/obmenka/settlement/internal/fixtures/memstore"
	"github.com/obmenka/settlement/pkg/app"
	"github.com/obmenka/settlement/pkg/config"
	"github.com/obmenka/settlement/pkg/provider"
	"github.com/obmenka/settlement/webapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

func newTestApp(t *testing.T) (*fiber.App, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	logger := slog.Default()
	cfg := &config.App{
		Jwt: config.Jwt{Secret: testSecret},
		Claim: config.Claim{
			TTL:            15 * time.Minute,
			ReaperInterval: time.Minute,
		},
		Commission: config.Commission{Percent: 0.78},
	}
	deps := &app.Deps{
		Uow:          store,
		RateProvider: provider.NewStaticRate(decimal.NewFromInt(82)),
		EventBus:     infraeventbus.NewWithMemory(logger),
		Logger:       logger,
	}
	return webapi.SetupApp(app.New(deps, cfg)), store
}

func signToken(t *testing.T, subject uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func request(t *testing.T, a *fiber.App, method, path, token, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeData(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close() //nolint: errcheck
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Data
}

func TestRootRoute(t *testing.T) {
	a, _ := newTestApp(t)
	resp := request(t, a, http.MethodGet, "/", "", "")
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProtectedRoute_Unauthorized(t *testing.T) {
	a, _ := newTestApp(t)
	resp := request(t, a, http.MethodGet, "/balance", "", "")
	defer resp.Body.Close() //nolint: errcheck
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
}

func TestNotFoundRoute(t *testing.T) {
	a, _ := newTestApp(t)
	resp := request(t, a, http.MethodGet, "/doesnotexist", "", "")
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSettlementFlow_SubmitClaimAcceptBalance(t *testing.T) {
	a, _ := newTestApp(t)
	user := uuid.New()
	operator := uuid.New()
	userToken := signToken(t, user)
	operatorToken := signToken(t, operator)

	// user submits 50 USDT
	resp := request(t, a, http.MethodPost, "/transactions", userToken,
		`{"amount": 50}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := decodeData(t, resp)
	txID := data["ID"].(string)
	assert.Equal(t, "PENDING", data["Status"])

	// operator claims it
	resp = request(t, a, http.MethodPost, "/transactions/"+txID+"/claim", operatorToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = decodeData(t, resp)
	assert.Equal(t, "VERIFICATION", data["Status"])

	// a rival claim conflicts
	rival := request(t, a, http.MethodPost, "/transactions/"+txID+"/claim",
		signToken(t, uuid.New()), "")
	defer rival.Body.Close() //nolint: errcheck
	assert.Equal(t, http.StatusConflict, rival.StatusCode)

	// operator accepts with receipt evidence
	resp = request(t, a, http.MethodPost, "/transactions/"+txID+"/accept", operatorToken,
		`{"receipt": "bank-statement-blob"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = decodeData(t, resp)
	assert.Equal(t, "ACTIVE", data["Status"])

	// a blind retry is a conflict, not a double credit
	retry := request(t, a, http.MethodPost, "/transactions/"+txID+"/accept", operatorToken,
		`{"receipt": "bank-statement-blob"}`)
	defer retry.Body.Close() //nolint: errcheck
	assert.Equal(t, http.StatusConflict, retry.StatusCode)

	// user sees the single credit: 49.61 USDT and 4068.02 RUB in minor units
	resp = request(t, a, http.MethodGet, "/balance", userToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = decodeData(t, resp)
	assert.Equal(t, float64(4961), data["USDT"])
	assert.Equal(t, float64(406802), data["RUB"])
}

func TestDisputeFlow_OverHTTP(t *testing.T) {
	a, _ := newTestApp(t)
	user := uuid.New()
	operator := uuid.New()
	userToken := signToken(t, user)
	operatorToken := signToken(t, operator)

	resp := request(t, a, http.MethodPost, "/transactions", userToken, `{"amount": 50}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	txID := decodeData(t, resp)["ID"].(string)

	resp = request(t, a, http.MethodPost, "/transactions/"+txID+"/claim", operatorToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	io.Copy(io.Discard, resp.Body) //nolint: errcheck
	resp.Body.Close()              //nolint: errcheck

	resp = request(t, a, http.MethodPost, "/transactions/"+txID+"/accept", operatorToken,
		`{"receipt": "bank-statement-blob"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	io.Copy(io.Discard, resp.Body) //nolint: errcheck
	resp.Body.Close()              //nolint: errcheck

	// renegotiate 49.61 down to 45.00
	resp = request(t, a, http.MethodPost, "/transactions/"+txID+"/disputes", operatorToken,
		`{"amount": 45.00, "currency": "USDT", "reason": "short payment"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	disputeID := decodeData(t, resp)["ID"].(string)

	// resolution before both acks is a conflict
	early := request(t, a, http.MethodPost, "/disputes/"+disputeID+"/resolve", operatorToken, "")
	defer early.Body.Close() //nolint: errcheck
	assert.Equal(t, http.StatusConflict, early.StatusCode)

	for _, party := range []string{"sender", "recipient"} {
		resp = request(t, a, http.MethodPost, "/disputes/"+disputeID+"/ack", operatorToken,
			fmt.Sprintf(`{"party": %q}`, party))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		io.Copy(io.Discard, resp.Body) //nolint: errcheck
		resp.Body.Close()              //nolint: errcheck
	}

	resp = request(t, a, http.MethodPost, "/disputes/"+disputeID+"/resolve", operatorToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "RESOLVED", decodeData(t, resp)["State"])

	resp = request(t, a, http.MethodGet, "/balance", userToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(4500), decodeData(t, resp)["USDT"])
}
