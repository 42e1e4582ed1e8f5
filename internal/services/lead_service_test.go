package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/solarflowhq/solarflow-backend/internal/apperr"
	"github.com/solarflowhq/solarflow-backend/internal/dto"
	"github.com/solarflowhq/solarflow-backend/internal/models"
	"github.com/solarflowhq/solarflow-backend/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{models.LeadStatusLead, models.LeadStatusInterested, true},
		{models.LeadStatusLead, models.LeadStatusCancelled, true},
		{models.LeadStatusLead, models.LeadStatusProcessing, false},
		{models.LeadStatusLead, models.LeadStatusCompleted, false},

		{models.LeadStatusInterested, models.LeadStatusCancelled, true},
		// processing is only reached automatically via document completion
		{models.LeadStatusInterested, models.LeadStatusProcessing, false},
		{models.LeadStatusInterested, models.LeadStatusLead, false},

		{models.LeadStatusProcessing, models.LeadStatusCompleted, true},
		{models.LeadStatusProcessing, models.LeadStatusCancelled, true},
		{models.LeadStatusProcessing, models.LeadStatusInterested, false},

		// terminal states
		{models.LeadStatusCompleted, models.LeadStatusLead, false},
		{models.LeadStatusCompleted, models.LeadStatusCancelled, false},
		{models.LeadStatusCancelled, models.LeadStatusLead, false},
		{models.LeadStatusCancelled, models.LeadStatusInterested, false},

		{"bogus", models.LeadStatusLead, false},
		{models.LeadStatusLead, "bogus", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestPhonePattern(t *testing.T) {
	valid := []string{"5551234", "+90 555 123 4567", "555-123-4567", "123456789012345"}
	for _, p := range valid {
		assert.True(t, phonePattern.MatchString(p), p)
	}

	invalid := []string{"", "12345", "1234567890123456", "555ABC7890", "call me"}
	for _, p := range invalid {
		assert.False(t, phonePattern.MatchString(p), p)
	}
}

func leadRow(id uuid.UUID, status string, createdBy uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "customer_name", "status", "created_by"}).
		AddRow(id, "Jane Roof", status, createdBy)
}

func TestTransitionRejectsManualProcessing(t *testing.T) {
	gdb, mock := mockDB(t)
	svc := NewLeadService(gdb, nil, NewActivityService(gdb), nil)

	leadID := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "leads" WHERE id =`).
		WithArgs(leadID, 1).
		WillReturnRows(leadRow(leadID, models.LeadStatusInterested, uuid.New()))

	office := &session.Identity{UserID: uuid.New(), Role: models.RoleOffice}
	_, err := svc.Transition(leadID, models.LeadStatusProcessing, "", office)

	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidTransition, apperr.From(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionRejectsTerminalStates(t *testing.T) {
	gdb, mock := mockDB(t)
	svc := NewLeadService(gdb, nil, NewActivityService(gdb), nil)

	leadID := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "leads" WHERE id =`).
		WithArgs(leadID, 1).
		WillReturnRows(leadRow(leadID, models.LeadStatusCompleted, uuid.New()))

	admin := &session.Identity{UserID: uuid.New(), Role: models.RoleAdmin}
	_, err := svc.Transition(leadID, models.LeadStatusCancelled, "", admin)

	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidTransition, apperr.From(err).Code)
}

func TestTransitionAgentOwnershipEnforced(t *testing.T) {
	gdb, mock := mockDB(t)
	svc := NewLeadService(gdb, nil, NewActivityService(gdb), nil)

	leadID := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "leads" WHERE id =`).
		WithArgs(leadID, 1).
		WillReturnRows(leadRow(leadID, models.LeadStatusLead, uuid.New()))

	agent := &session.Identity{UserID: uuid.New(), Role: models.RoleAgent}
	_, err := svc.Transition(leadID, models.LeadStatusInterested, "", agent)

	require.Error(t, err)
	assert.Equal(t, apperr.CodeForbidden, apperr.From(err).Code)
}

func TestTransitionInstallerForbidden(t *testing.T) {
	gdb, mock := mockDB(t)
	svc := NewLeadService(gdb, nil, NewActivityService(gdb), nil)

	leadID := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "leads" WHERE id =`).
		WithArgs(leadID, 1).
		WillReturnRows(leadRow(leadID, models.LeadStatusLead, uuid.New()))

	installer := &session.Identity{UserID: uuid.New(), Role: models.RoleInstaller}
	_, err := svc.Transition(leadID, models.LeadStatusInterested, "", installer)

	require.Error(t, err)
	assert.Equal(t, apperr.CodeForbidden, apperr.From(err).Code)
}

func TestCreateLeadValidation(t *testing.T) {
	gdb, _ := mockDB(t)
	svc := NewLeadService(gdb, nil, NewActivityService(gdb), nil)
	agent := &session.Identity{UserID: uuid.New(), Role: models.RoleAgent}

	cases := []struct {
		name string
		req  dto.CreateLeadRequest
	}{
		{"missing name", dto.CreateLeadRequest{Phone: "5551234567", Address: "1 Solar Way"}},
		{"bad phone", dto.CreateLeadRequest{CustomerName: "Jane", Phone: "nope", Address: "1 Solar Way"}},
		{"missing address", dto.CreateLeadRequest{CustomerName: "Jane", Phone: "5551234567"}},
		{"bad source", dto.CreateLeadRequest{CustomerName: "Jane", Phone: "5551234567", Address: "1 Solar Way", Source: "billboard"}},
	}
	for _, tc := range cases {
		_, err := svc.Create(&tc.req, agent)
		require.Error(t, err, tc.name)
		assert.Equal(t, apperr.CodeValidation, apperr.From(err).Code, tc.name)
	}

	customer := &session.Identity{UserID: uuid.New(), Role: models.RoleCustomer}
	_, err := svc.Create(&dto.CreateLeadRequest{CustomerName: "Jane", Phone: "5551234567", Address: "1 Solar Way"}, customer)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeForbidden, apperr.From(err).Code)
}
