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
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gdb, mock
}

func TestProfileByID(t *testing.T) {
	gdb, mock := mockDB(t)
	svc := NewUserService(gdb, NewActivityService(gdb))

	id := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "profiles" WHERE id =`).
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "role", "status"}).
			AddRow(id, "office@example.com", "Office User", models.RoleOffice, models.UserActive))

	profile, err := svc.ProfileByID(id)
	require.NoError(t, err)
	assert.Equal(t, id, profile.ID)
	assert.Equal(t, models.RoleOffice, profile.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileByIDNotFound(t *testing.T) {
	gdb, mock := mockDB(t)
	svc := NewUserService(gdb, NewActivityService(gdb))

	id := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "profiles" WHERE id =`).
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.ProfileByID(id)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	gdb, mock := mockDB(t)
	svc := NewUserService(gdb, NewActivityService(gdb))

	existing := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "profiles" WHERE email =`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).
			AddRow(existing, "taken@example.com"))

	actor := &session.Identity{UserID: uuid.New(), Role: models.RoleAdmin}
	_, err := svc.Create(&dto.CreateUserRequest{
		Email:    "taken@example.com",
		Password: "longenough",
		Name:     "Dup",
		Role:     models.RoleAgent,
	}, actor)

	require.Error(t, err)
	assert.Equal(t, apperr.CodeConflict, apperr.From(err).Code)
}

func TestCreateUserRoleRestrictions(t *testing.T) {
	gdb, _ := mockDB(t)
	svc := NewUserService(gdb, NewActivityService(gdb))

	office := &session.Identity{UserID: uuid.New(), Role: models.RoleOffice}
	_, err := svc.Create(&dto.CreateUserRequest{
		Email: "new@example.com", Password: "longenough", Name: "N", Role: models.RoleAdmin,
	}, office)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeForbidden, apperr.From(err).Code)

	agent := &session.Identity{UserID: uuid.New(), Role: models.RoleAgent}
	_, err = svc.Create(&dto.CreateUserRequest{
		Email: "new@example.com", Password: "longenough", Name: "N", Role: models.RoleCustomer,
	}, agent)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeForbidden, apperr.From(err).Code)
}

func TestUpdateUserRequiresAdmin(t *testing.T) {
	gdb, _ := mockDB(t)
	svc := NewUserService(gdb, NewActivityService(gdb))

	office := &session.Identity{UserID: uuid.New(), Role: models.RoleOffice}
	_, err := svc.Update(uuid.New(), &dto.UpdateUserRequest{}, office)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeForbidden, apperr.From(err).Code)
}
