package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/apperr"
	"github.com/solarflowhq/solarflow-backend/internal/config"
	"github.com/solarflowhq/solarflow-backend/internal/models"
	"github.com/solarflowhq/solarflow-backend/internal/session"
	"github.com/solarflowhq/solarflow-backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func documentService(gdb *gorm.DB, baseURL string) *DocumentService {
	cfg := &config.Config{SupabaseURL: baseURL, StorageBucket: "lead-documents"}
	return NewDocumentService(gdb, storage.NewClient(cfg), cfg, NewActivityService(gdb), NewNotificationService(gdb))
}

// A resubmission must leave exactly one valid row for the category: the old
// row is deleted and the new one inserted in the same transaction, and the
// superseded artifact is removed from the bucket afterwards.
func TestSubmitFormReplacesPriorSubmission(t *testing.T) {
	gdb, mock := mockDB(t)
	mock.MatchExpectationsInOrder(false)

	var removed []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			removed = append(removed, r.URL.Path)
		}
	}))
	defer srv.Close()
	svc := documentService(gdb, srv.URL)

	leadID, oldID := uuid.New(), uuid.New()
	actor := &session.Identity{UserID: uuid.New(), Role: models.RoleOffice}
	stalePath := "leads/" + leadID.String() + "/roof_survey_old.pdf"

	mock.ExpectQuery(`SELECT (.+) FROM "leads" WHERE id =`).
		WithArgs(leadID, 1).
		WillReturnRows(leadRow(leadID, models.LeadStatusLead, uuid.New()))
	mock.ExpectQuery(`SELECT count(.+) FROM "step_documents"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "documents" WHERE lead_id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "lead_id", "document_category", "status", "file_path"}).
			AddRow(oldID, leadID, "roof_survey", models.DocumentStatusValid, stalePath))
	mock.ExpectExec(`DELETE FROM "documents"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "documents"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "status", "is_submitted"}).
			AddRow(uuid.New(), models.DocumentTypeMandatory, models.DocumentStatusValid, true))
	mock.ExpectCommit()

	doc, err := svc.SubmitForm(context.Background(), leadID, "roof_survey", []byte(`{"panels":12}`), actor)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentTypeMandatory, doc.Type)
	assert.True(t, doc.IsSubmitted)

	require.Len(t, removed, 1)
	assert.True(t, strings.HasSuffix(removed[0], "roof_survey_old.pdf"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A submission completing the mandatory set advances an interested lead to
// processing through the guarded update.
func TestSubmitFormAdvancesInterestedLead(t *testing.T) {
	gdb, mock := mockDB(t)
	mock.MatchExpectationsInOrder(false)
	svc := documentService(gdb, "")

	leadID := uuid.New()
	actor := &session.Identity{UserID: uuid.New(), Role: models.RoleOffice}

	mock.ExpectQuery(`SELECT (.+) FROM "leads" WHERE id =`).
		WithArgs(leadID, 1).
		WillReturnRows(leadRow(leadID, models.LeadStatusInterested, uuid.New()))
	mock.ExpectQuery(`SELECT count(.+) FROM "step_documents"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "documents" WHERE lead_id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_category"}))
	mock.ExpectQuery(`INSERT INTO "documents"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "status", "is_submitted"}).
			AddRow(uuid.New(), models.DocumentTypeMandatory, models.DocumentStatusValid, true))
	mock.ExpectCommit()

	mock.ExpectQuery(`SELECT DISTINCT (.+) FROM "step_documents"`).
		WillReturnRows(sqlmock.NewRows([]string{"document_category"}).AddRow("roof_survey"))
	mock.ExpectQuery(`SELECT (?i:count)(.+) FROM "documents"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`UPDATE "leads" SET`).WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := svc.SubmitForm(context.Background(), leadID, "roof_survey", []byte(`{"ok":true}`), actor)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitFormCustomerMustOwnLead(t *testing.T) {
	gdb, mock := mockDB(t)
	svc := documentService(gdb, "")

	leadID := uuid.New()
	actor := &session.Identity{UserID: uuid.New(), Role: models.RoleCustomer}

	mock.ExpectQuery(`SELECT (.+) FROM "leads" WHERE id =`).
		WithArgs(leadID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_by", "customer_account_id"}).
			AddRow(leadID, models.LeadStatusInterested, uuid.New(), uuid.New()))

	_, err := svc.SubmitForm(context.Background(), leadID, "roof_survey", []byte(`{}`), actor)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeForbidden, apperr.From(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkCorruptedClearsSubmission(t *testing.T) {
	gdb, mock := mockDB(t)
	svc := documentService(gdb, "")

	leadID := uuid.New()
	actor := &session.Identity{UserID: uuid.New(), Role: models.RoleOffice}

	mock.ExpectQuery(`SELECT (.+) FROM "leads" WHERE id =`).
		WithArgs(leadID, 1).
		WillReturnRows(leadRow(leadID, models.LeadStatusProcessing, uuid.New()))
	mock.ExpectExec(`UPDATE "documents" SET`).WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.MarkCorrupted(leadID, "roof_survey", actor)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkCorruptedWithoutValidDocument(t *testing.T) {
	gdb, mock := mockDB(t)
	svc := documentService(gdb, "")

	leadID := uuid.New()
	actor := &session.Identity{UserID: uuid.New(), Role: models.RoleOffice}

	mock.ExpectQuery(`SELECT (.+) FROM "leads" WHERE id =`).
		WithArgs(leadID, 1).
		WillReturnRows(leadRow(leadID, models.LeadStatusProcessing, uuid.New()))
	mock.ExpectExec(`UPDATE "documents" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.MarkCorrupted(leadID, "roof_survey", actor)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)
}

func TestAllSatisfiedMissingCategory(t *testing.T) {
	gdb, mock := mockDB(t)
	svc := documentService(gdb, "")

	leadID, stepID := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "step_documents" WHERE step_id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "step_id", "document_category", "submission_type"}).
			AddRow(uuid.New(), stepID, "id_proof", models.SubmissionTypeFile).
			AddRow(uuid.New(), stepID, "roof_survey", models.SubmissionTypeForm))
	mock.ExpectQuery(`SELECT (.+) FROM "documents" WHERE lead_id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_category"}).
			AddRow(uuid.New(), "roof_survey"))

	ok, err := svc.AllSatisfied(leadID, stepID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllSatisfiedComplete(t *testing.T) {
	gdb, mock := mockDB(t)
	svc := documentService(gdb, "")

	leadID, stepID := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "step_documents" WHERE step_id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "step_id", "document_category", "submission_type"}).
			AddRow(uuid.New(), stepID, "id_proof", models.SubmissionTypeFile).
			AddRow(uuid.New(), stepID, "roof_survey", models.SubmissionTypeForm))
	mock.ExpectQuery(`SELECT (.+) FROM "documents" WHERE lead_id =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_category"}).
			AddRow(uuid.New(), "roof_survey").
			AddRow(uuid.New(), "id_proof"))

	ok, err := svc.AllSatisfied(leadID, stepID)
	require.NoError(t, err)
	assert.True(t, ok)
}
