package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/auth"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/block"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/chain"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/court"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/integrity"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/mempool"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/state"
)

// Error is a non-2xx answer from the node.
type Error struct {
	Status  int
	Message string
	Code    string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s (%s)", e.Status, e.Message, e.Code)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// Client talks to a ledger node's HTTP API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string, insecure bool) *Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // local dev nodes
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 60 * time.Second, Transport: tr},
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			apiErr.Message, apiErr.Code = e.Error, e.Code
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// Status mirrors the node's /status answer.
type Status struct {
	Status      string            `json:"status"`
	Uptime      int64             `json:"uptime_seconds"`
	BlockHeight int               `json:"block_height"`
	Pending     int               `json:"pending_transactions"`
	Version     string            `json:"version"`
	APIVersion  string            `json:"api_version"`
	LastBlock   string            `json:"last_block_time"`
	Metrics     map[string]any    `json:"metrics"`
	Corruption  *chain.Corruption `json:"corruption,omitempty"`
}

func (c *Client) Status(ctx context.Context) (Status, error) {
	var s Status
	err := c.do(ctx, http.MethodGet, "/status", nil, &s)
	return s, err
}

// Health is the node's /health answer.
type Health struct {
	Status     string    `json:"status"`
	Blocks     int       `json:"blocks"`
	Difficulty int       `json:"difficulty"`
	Timestamp  time.Time `json:"timestamp"`
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &h)
	return h, err
}

func (c *Client) Readiness(ctx context.Context) (bool, error) {
	var r struct {
		Ready bool `json:"ready"`
	}
	err := c.do(ctx, http.MethodGet, "/health/readiness", nil, &r)
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusServiceUnavailable {
		return false, nil
	}
	return r.Ready, err
}

func (c *Client) Login(ctx context.Context, username, password string) (auth.LoginResult, error) {
	var res auth.LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &res)
	return res, err
}

// Submission is the answer to any case mutation.
type Submission struct {
	Message string `json:"message"`
	CaseID  string `json:"case_id"`
	chain.BlockRef
}

func (c *Client) CreateCase(ctx context.Context, req court.CreateCaseRequest) (Submission, error) {
	var s Submission
	err := c.do(ctx, http.MethodPost, "/cases", req, &s)
	return s, err
}

func (c *Client) AddDocument(ctx context.Context, caseID string, req court.AddDocumentRequest) (Submission, error) {
	var s Submission
	err := c.do(ctx, http.MethodPost, "/cases/"+url.PathEscape(caseID)+"/documents", req, &s)
	return s, err
}

func (c *Client) ScheduleHearing(ctx context.Context, caseID string, req court.ScheduleHearingRequest) (Submission, error) {
	var s Submission
	err := c.do(ctx, http.MethodPost, "/cases/"+url.PathEscape(caseID)+"/hearings", req, &s)
	return s, err
}

func (c *Client) IssueJudgment(ctx context.Context, caseID string, req court.IssueJudgmentRequest) (Submission, error) {
	var s Submission
	err := c.do(ctx, http.MethodPost, "/cases/"+url.PathEscape(caseID)+"/judgment", req, &s)
	return s, err
}

func (c *Client) ListCases(ctx context.Context) (map[string]state.CaseRecord, error) {
	var res struct {
		Cases map[string]state.CaseRecord `json:"cases"`
	}
	err := c.do(ctx, http.MethodGet, "/cases", nil, &res)
	return res.Cases, err
}

func (c *Client) GetCase(ctx context.Context, caseID string) (state.CaseRecord, error) {
	var res struct {
		Case state.CaseRecord `json:"case"`
	}
	err := c.do(ctx, http.MethodGet, "/cases/"+url.PathEscape(caseID), nil, &res)
	return res.Case, err
}

func (c *Client) VerifyDocument(ctx context.Context, caseID, content string) (state.DocumentVerification, error) {
	var res state.DocumentVerification
	err := c.do(ctx, http.MethodPost, "/documents/verify", map[string]string{
		"case_id":          caseID,
		"document_content": content,
	}, &res)
	return res, err
}

func (c *Client) Judges(ctx context.Context) ([]court.Judge, error) {
	var res struct {
		Judges []court.Judge `json:"judges"`
	}
	err := c.do(ctx, http.MethodGet, "/judges", nil, &res)
	return res.Judges, err
}

func (c *Client) RegisterJudge(ctx context.Context, name, specialty string) (court.Judge, error) {
	var res struct {
		Judge court.Judge `json:"judge"`
	}
	err := c.do(ctx, http.MethodPost, "/judges", map[string]string{
		"name":      name,
		"specialty": specialty,
	}, &res)
	return res.Judge, err
}

func (c *Client) Chain(ctx context.Context) ([]block.Block, error) {
	var res struct {
		Chain []block.Block `json:"chain"`
	}
	err := c.do(ctx, http.MethodGet, "/blockchain/chain", nil, &res)
	return res.Chain, err
}

func (c *Client) Verify(ctx context.Context) (integrity.Result, error) {
	var res integrity.Result
	err := c.do(ctx, http.MethodGet, "/blockchain/verify", nil, &res)
	return res, err
}

func (c *Client) Statistics(ctx context.Context) (court.Statistics, error) {
	var res struct {
		Statistics court.Statistics `json:"statistics"`
	}
	err := c.do(ctx, http.MethodGet, "/blockchain/statistics", nil, &res)
	return res.Statistics, err
}

func (c *Client) Export(ctx context.Context) (court.Export, error) {
	var res struct {
		Blockchain court.Export `json:"blockchain"`
	}
	err := c.do(ctx, http.MethodGet, "/blockchain/export", nil, &res)
	return res.Blockchain, err
}

// Pending lists queued and recently rejected submissions.
type Pending struct {
	Pending  []block.Transaction  `json:"pending"`
	Rejected []mempool.RejectedTx `json:"rejected"`
}

func (c *Client) Pending(ctx context.Context) (Pending, error) {
	var res Pending
	err := c.do(ctx, http.MethodGet, "/blockchain/pending", nil, &res)
	return res, err
}
