package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/audit"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/auth"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/block"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/chain"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/config"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/court"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/notify"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/signer"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/storage"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/validation"
)

type testNode struct {
	srv   *Server
	ts    *httptest.Server
	store *storage.Storage
	token string
}

func newTestNode(t *testing.T, requireAuth bool) *testNode {
	t.Helper()
	store, err := storage.NewMemStorage()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	mem := &audit.MemoryAuditLogger{}
	hub := notify.NewHub(8)
	c, err := chain.Open(store, chain.Config{Difficulty: 1, Audit: mem, Publisher: hub})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()

	key, err := signer.Generate()
	require.NoError(t, err)
	svc := court.NewService(c, court.NewJudgeDirectory(store), key, mem)

	authz := &auth.Authorizer{
		Users: auth.NewUserStore(store, bcrypt.MinCost),
		Tokens: &auth.TokenIssuer{
			Keys:   &auth.StaticKeyProvider{Kid: "test", Secret: []byte("secret")},
			Issuer: "court-ledger",
			TTL:    time.Hour,
		},
		AuditLogger: mem,
	}
	_, err = authz.Users.EnsureAdmin("admin", "admin123")
	require.NoError(t, err)

	v, err := validation.New(mem)
	require.NoError(t, err)

	cfg := config.Default().Server
	cfg.RequireAuth = requireAuth
	srv := NewServer(svc, authz, v, hub, store, cfg)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-done
		c.Close()
		hub.Close()
	})

	n := &testNode{srv: srv, ts: ts, store: store}
	res, err := authz.Login("admin", "admin123")
	require.NoError(t, err)
	n.token = res.Token
	return n
}

func (n *testNode) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, n.ts.URL+path, rdr)
	require.NoError(t, err)
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func newCaseBody(id string) map[string]string {
	return map[string]string{
		"case_id":        id,
		"case_type":      "civil",
		"plaintiff_name": "Juan Perez",
		"defendant_name": "Empresa XYZ",
		"judge_id":       court.JudgeID("Maria Gonzalez", "Civil"),
		"description":    "Incumplimiento de contrato",
	}
}

func TestCaseLifecycleOverHTTP(t *testing.T) {
	n := newTestNode(t, true)

	resp, body := n.do(t, http.MethodPost, "/cases", newCaseBody("EXP-2024-001"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "EXP-2024-001", body["case_id"])
	assert.EqualValues(t, 1, body["block_index"])
	assert.NotEmpty(t, body["block_hash"])

	resp, body = n.do(t, http.MethodPost, "/cases", newCaseBody("EXP-2024-001"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, chain.CodeDuplicate, body["code"])

	resp, _ = n.do(t, http.MethodPost, "/api/cases/EXP-2024-001/documents",
		`{"document_name": "demanda.pdf", "document_content": "texto"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = n.do(t, http.MethodPost, "/cases/EXP-2024-001/hearings",
		map[string]string{"type": "inicial", "date": "2024-05-01", "location": "Sala 1"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = n.do(t, http.MethodPost, "/cases/EXP-2024-001/judgment",
		map[string]string{"ruling": "Condena", "verdict": "culpable", "details": "pago de daños"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = n.do(t, http.MethodPost, "/cases/EXP-2024-001/documents",
		map[string]string{"name": "tarde.pdf", "content": "x"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, chain.CodeClosed, body["code"])

	resp, body = n.do(t, http.MethodGet, "/cases/EXP-2024-001", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	kase := body["case"].(map[string]any)
	assert.Equal(t, "resuelto", kase["status"])
	assert.Len(t, kase["documents"], 1)
	assert.Len(t, body["history"], 4)

	resp, body = n.do(t, http.MethodGet, "/cases", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["cases"], "EXP-2024-001")
}

func TestErrorStatuses(t *testing.T) {
	n := newTestNode(t, true)

	resp, _ := n.do(t, http.MethodGet, "/cases/EXP-404", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = n.do(t, http.MethodPost, "/cases/EXP-404/hearings",
		map[string]string{"type": "inicial", "date": "2024-05-01", "location": "Sala 1"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	bad := newCaseBody("EXP-2024-002")
	bad["case_type"] = "maritime"
	resp, _ = n.do(t, http.MethodPost, "/cases", bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = n.do(t, http.MethodPost, "/cases", "{broken")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = n.do(t, http.MethodPost, "/documents/verify",
		map[string]string{"case_id": "EXP-404", "document_content": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	n := newTestNode(t, true)
	admin := n.token

	n.token = ""
	resp, _ := n.do(t, http.MethodGet, "/cases", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	n.token = "not-a-token"
	resp, _ = n.do(t, http.MethodGet, "/blockchain/chain", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	n.token = ""
	resp, _ = n.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := n.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, body)

	n.token = admin
	resp, body = n.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "clerk1", "email": "clerk1@judicial.com", "password": "clerkpass1",
		"role": "clerk", "full_name": "Clerk One",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	n.token = ""
	resp, body = n.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "clerk1", "password": "clerkpass1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	n.token = body["token"].(string)

	resp, body = n.do(t, http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "clerk", body["user"].(map[string]any)["role"])
	assert.NotContains(t, body["user"], "password_hash")

	resp, _ = n.do(t, http.MethodPost, "/judges", map[string]string{"name": "Ana", "specialty": "Civil"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = n.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "x2", "email": "x2@judicial.com", "password": "password2", "role": "admin", "full_name": "X",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestOpenModeSkipsAuth(t *testing.T) {
	n := newTestNode(t, false)
	n.token = ""
	resp, _ := n.do(t, http.MethodPost, "/cases", newCaseBody("EXP-OPEN-1"))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = n.do(t, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBlockchainEndpoints(t *testing.T) {
	n := newTestNode(t, true)
	resp, _ := n.do(t, http.MethodPost, "/cases", newCaseBody("EXP-2024-001"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = n.do(t, http.MethodPost, "/cases/EXP-2024-001/documents",
		map[string]string{"name": "prueba.pdf", "content": "evidencia"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := n.do(t, http.MethodGet, "/blockchain/chain", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, body["length"])
	blocks := body["chain"].([]any)
	second := blocks[1].(map[string]any)
	for _, field := range []string{"index", "hash", "previous_hash", "timestamp", "nonce", "transactions"} {
		assert.Contains(t, second, field)
	}

	resp, body = n.do(t, http.MethodGet, "/blockchain/verify", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["valid"])

	resp, body = n.do(t, http.MethodGet, "/blockchain/statistics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := body["statistics"].(map[string]any)
	assert.EqualValues(t, 1, stats["total_cases"])
	assert.EqualValues(t, 3, stats["total_blocks"])
	assert.EqualValues(t, 1, stats["difficulty"])
	assert.EqualValues(t, 1, stats["cases_by_status"].(map[string]any)["en_proceso"])

	resp, body = n.do(t, http.MethodPost, "/documents/verify",
		map[string]string{"case_id": "EXP-2024-001", "document_content": "evidencia"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["verified"])

	resp, body = n.do(t, http.MethodPost, "/documents/verify",
		map[string]string{"case_id": "EXP-2024-001", "document_content": "evidencia falsa"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["verified"])

	req, err := http.NewRequest(http.MethodGet, n.ts.URL+"/blockchain/export", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+n.token)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	var exported struct {
		Blockchain court.Export `json:"blockchain"`
	}
	require.NoError(t, json.NewDecoder(raw.Body).Decode(&exported))
	res, err := court.VerifyExport(exported.Blockchain, "")
	require.NoError(t, err)
	assert.True(t, res.Valid)

	resp, body = n.do(t, http.MethodGet, "/blockchain/pending", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "pending")
}

func TestVerifyReportsTampering(t *testing.T) {
	n := newTestNode(t, true)
	resp, _ := n.do(t, http.MethodPost, "/cases", newCaseBody("EXP-2024-001"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	raw, err := n.store.RawBlock(1)
	require.NoError(t, err)
	tampered := strings.Replace(string(raw), "Incumplimiento", "Cumplimiento", 1)
	require.NotEqual(t, string(raw), tampered)
	require.NoError(t, n.store.PutRawBlock(1, []byte(tampered)))

	resp, body := n.do(t, http.MethodGet, "/blockchain/verify", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["valid"])
	assert.EqualValues(t, 1, body["first_invalid_index"])

	resp, _ = n.do(t, http.MethodPost, "/cases", newCaseBody("EXP-2024-002"))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = n.do(t, http.MethodGet, "/health/readiness", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestJudgesEndpoints(t *testing.T) {
	n := newTestNode(t, true)
	resp, body := n.do(t, http.MethodPost, "/judges", map[string]string{"name": "Maria Gonzalez", "specialty": "Civil"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, court.JudgeID("Maria Gonzalez", "Civil"), body["judge_id"])

	resp, body = n.do(t, http.MethodGet, "/judges", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["judges"], 1)
}

func TestStatusAndCORS(t *testing.T) {
	n := newTestNode(t, true)
	resp, body := n.do(t, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "empty", body["status"])
	assert.EqualValues(t, 1, body["block_height"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req, err := http.NewRequest(http.MethodOptions, n.ts.URL+"/cases", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	pre, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	pre.Body.Close()
	assert.Equal(t, http.StatusNoContent, pre.StatusCode)
	assert.Equal(t, "http://localhost:3000", pre.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.example")
	pre, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	pre.Body.Close()
	assert.Empty(t, pre.Header.Get("Access-Control-Allow-Origin"))
}

func TestSubscribeStreamsBlocks(t *testing.T) {
	n := newTestNode(t, true)
	wsURL := "ws" + strings.TrimPrefix(n.ts.URL, "http") + "/blockchain/subscribe?token=" + n.token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return n.srv.hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, _ := n.do(t, http.MethodPost, "/cases", newCaseBody("EXP-WS-1"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var b block.Block
	require.NoError(t, conn.ReadJSON(&b))
	assert.Equal(t, uint64(1), b.Index)
	assert.Equal(t, "EXP-WS-1", b.Transactions[0].CaseID)
}
