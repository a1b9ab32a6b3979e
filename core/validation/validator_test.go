package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/audit"
)

type createCaseBody struct {
	CaseID        string `json:"case_id"`
	CaseType      string `json:"case_type"`
	PlaintiffName string `json:"plaintiff_name"`
	DefendantName string `json:"defendant_name"`
	JudgeID       string `json:"judge_id"`
	Description   string `json:"description"`
}

func newValidator(t *testing.T) (*Validator, *audit.MemoryAuditLogger) {
	t.Helper()
	mem := &audit.MemoryAuditLogger{}
	v, err := New(mem)
	require.NoError(t, err)
	return v, mem
}

func TestAllSchemasCompile(t *testing.T) {
	v, _ := newValidator(t)
	assert.Len(t, v.schemas, len(Schemas))
}

func TestDecodeCreateCase(t *testing.T) {
	v, mem := newValidator(t)
	var body createCaseBody
	err := v.Decode(CreateCase, []byte(`{
		"case_id": "EXP-2024-001",
		"case_type": "civil",
		"plaintiff_name": "Juan Perez",
		"defendant_name": "Empresa XYZ",
		"judge_id": "Juez_Maria_Gonzalez_0123456789abcdef",
		"description": "Incumplimiento de contrato"
	}`), &body)
	require.NoError(t, err)
	assert.Equal(t, "EXP-2024-001", body.CaseID)
	assert.Equal(t, "civil", body.CaseType)
	assert.Empty(t, mem.Events())
}

func TestDecodeRejectsUnknownCaseType(t *testing.T) {
	v, mem := newValidator(t)
	var body createCaseBody
	err := v.Decode(CreateCase, []byte(`{
		"case_id": "EXP-1", "case_type": "maritime",
		"plaintiff_name": "a", "defendant_name": "b", "judge_id": "j", "description": ""
	}`), &body)
	require.ErrorIs(t, err, ErrInvalidPayload)
	var pe *PayloadError
	require.ErrorAs(t, err, &pe)
	assert.NotEmpty(t, pe.Problems)

	events := mem.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventValidationFailed, events[0].EventType)
	assert.Equal(t, "create_case", events[0].EntityID)
}

func TestDecodeMissingFields(t *testing.T) {
	v, _ := newValidator(t)
	var out map[string]any
	err := v.Decode(IssueJudgment, []byte(`{"ruling": "Condena"}`), &out)
	var pe *PayloadError
	require.ErrorAs(t, err, &pe)
	assert.GreaterOrEqual(t, len(pe.Problems), 2)
}

func TestDecodeAcceptsLegacyAliases(t *testing.T) {
	v, _ := newValidator(t)
	var doc struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	}
	err := v.Decode(AddDocument, []byte(`{"document_name": "demanda.pdf", "document_content": "texto"}`), &doc)
	require.NoError(t, err)
	assert.Equal(t, "demanda.pdf", doc.Name)
	assert.Equal(t, "texto", doc.Content)

	var hearing struct {
		Type string `json:"type"`
		Date string `json:"date"`
	}
	err = v.Decode(ScheduleHearing, []byte(`{"hearing_type": "inicial", "date": "2024-05-01", "location": "Sala 1"}`), &hearing)
	require.NoError(t, err)
	assert.Equal(t, "inicial", hearing.Type)
}

func TestDecodeRejectsBadDate(t *testing.T) {
	v, _ := newValidator(t)
	var out map[string]any
	err := v.Decode(ScheduleHearing, []byte(`{"type": "inicial", "date": "mañana", "location": "Sala 1"}`), &out)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestDecodeRejectsNonObject(t *testing.T) {
	v, _ := newValidator(t)
	var out map[string]any
	assert.ErrorIs(t, v.Decode(Login, []byte(`[1,2]`), &out), ErrInvalidPayload)
	assert.ErrorIs(t, v.Decode(Login, []byte(`not json`), &out), ErrInvalidPayload)
}

func TestDecodeRegisterUser(t *testing.T) {
	v, _ := newValidator(t)
	var out map[string]any
	err := v.Decode(RegisterUser, []byte(`{"username":"ana","email":"ana@judicial.com","password":"s3cretpass","role":"clerk","full_name":"Ana Ruiz"}`), &out)
	require.NoError(t, err)

	err = v.Decode(RegisterUser, []byte(`{"username":"ana","email":"not-an-email","password":"short","role":"root","full_name":"Ana"}`), &out)
	var pe *PayloadError
	require.ErrorAs(t, err, &pe)
	assert.GreaterOrEqual(t, len(pe.Problems), 3)
}
