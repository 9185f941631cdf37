package resumes

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPGRepoFindOrCreateCompanyReturnsExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectQuery("SELECT id, name FROM companies").
		WithArgs("NVIDIA").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("c-1", "NVIDIA"))

	entity, err := repo.FindOrCreateCompany(context.Background(), "NVIDIA")
	if err != nil {
		t.Fatalf("FindOrCreateCompany: %v", err)
	}
	if entity.ID != "c-1" || entity.Name != "NVIDIA" {
		t.Errorf("entity = %+v", entity)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoFindOrCreateCompanyInsertsWhenMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectQuery("SELECT id, name FROM companies").
		WithArgs("PwC").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO companies").
		WithArgs(sqlmock.AnyArg(), "PwC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("c-2", "PwC"))

	entity, err := repo.FindOrCreateCompany(context.Background(), "PwC")
	if err != nil {
		t.Fatalf("FindOrCreateCompany: %v", err)
	}
	if entity.ID != "c-2" {
		t.Errorf("entity = %+v", entity)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoFindOrCreateCompanyRefetchesOnUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectQuery("SELECT id, name FROM companies").
		WithArgs("IBM").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO companies").
		WithArgs(sqlmock.AnyArg(), "IBM").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectQuery("SELECT id, name FROM companies").
		WithArgs("IBM").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("c-3", "IBM"))

	entity, err := repo.FindOrCreateCompany(context.Background(), "IBM")
	if err != nil {
		t.Fatalf("FindOrCreateCompany: %v", err)
	}
	if entity.ID != "c-3" {
		t.Errorf("entity = %+v", entity)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateInsertsRecordAndLinks(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO resumes").
		WithArgs(sqlmock.AnyArg(), "John Smith", "Computer Science", "2026", "resumes/john_smith_1.pdf", int64(1234), "admin", "").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec("INSERT INTO resume_companies").
		WithArgs(sqlmock.AnyArg(), "c-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO resume_keywords").
		WithArgs(sqlmock.AnyArg(), "k-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rec := Resume{
		Name:           "John Smith",
		Major:          "Computer Science",
		GraduationYear: "2026",
		StorageKey:     "resumes/john_smith_1.pdf",
		FileSize:       1234,
		UploadedBy:     "admin",
	}
	created, err := repo.Create(context.Background(), rec, []string{"c-1"}, []string{"k-1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" || !created.IsActive {
		t.Errorf("created = %+v", created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateCommitFailureWrapsErrTxCommit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO resumes").
		WithArgs(sqlmock.AnyArg(), "A", "B", "2026", "k", int64(1), "admin", "").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	rec := Resume{Name: "A", Major: "B", GraduationYear: "2026", StorageKey: "k", FileSize: 1, UploadedBy: "admin"}
	_, err = repo.Create(context.Background(), rec, nil, nil)
	if !errors.Is(err, ErrTxCommit) {
		t.Fatalf("err = %v, want ErrTxCommit", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSoftDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectQuery("UPDATE resumes").
		WithArgs("missing-id", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.SoftDelete(context.Background(), "missing-id", time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoHardDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("DELETE FROM resumes").
		WithArgs("r-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.HardDelete(context.Background(), "r-1"); err != nil {
		t.Fatalf("HardDelete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
