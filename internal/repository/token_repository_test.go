package repository

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kenacbank/auth-service/internal/domain"
)

func newDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.UserToken{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	u := &domain.User{
		UserCode:     "code-" + email,
		Email:        email,
		PasswordHash: "x",
		UserType:     domain.UserTypeClient,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestRecordInsertsActiveRow(t *testing.T) {
	db := newDBForTest(t)
	repo := NewTokenRepository(db)
	user := seedUser(t, db, "a@x.com")

	rec, err := repo.Record("tok-1", user.ID)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.Revoked || rec.Expired {
		t.Fatal("fresh record must be active")
	}
	if rec.TokenType != domain.TokenTypeBearer {
		t.Fatalf("unexpected token type %q", rec.TokenType)
	}

	valid, err := repo.IsCurrentlyValid("tok-1")
	if err != nil {
		t.Fatalf("is valid: %v", err)
	}
	if !valid {
		t.Fatal("expected recorded token to be valid")
	}
}

func TestRecordReissueResetsFlags(t *testing.T) {
	db := newDBForTest(t)
	repo := NewTokenRepository(db)
	user := seedUser(t, db, "a@x.com")

	if _, err := repo.Record("tok-1", user.ID); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := repo.InvalidateAllActive(user.ID); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	// same token string recorded again: update in place, no duplicate row
	if _, err := repo.Record("tok-1", user.ID); err != nil {
		t.Fatalf("re-record: %v", err)
	}
	var count int64
	if err := db.Model(&domain.UserToken{}).Where("token = ?", "tok-1").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row for re-issued token, got %d", count)
	}
	valid, err := repo.IsCurrentlyValid("tok-1")
	if err != nil {
		t.Fatalf("is valid: %v", err)
	}
	if !valid {
		t.Fatal("expected re-issued token to be active again")
	}
}

func TestInvalidateAllActiveBatch(t *testing.T) {
	db := newDBForTest(t)
	repo := NewTokenRepository(db)
	user := seedUser(t, db, "a@x.com")
	other := seedUser(t, db, "b@x.com")

	for _, tok := range []string{"tok-1", "tok-2"} {
		if _, err := repo.Record(tok, user.ID); err != nil {
			t.Fatalf("record %s: %v", tok, err)
		}
	}
	if _, err := repo.Record("tok-other", other.ID); err != nil {
		t.Fatalf("record other: %v", err)
	}

	n, err := repo.InvalidateAllActive(user.ID)
	if err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 invalidated rows, got %d", n)
	}

	for _, tok := range []string{"tok-1", "tok-2"} {
		valid, err := repo.IsCurrentlyValid(tok)
		if err != nil {
			t.Fatalf("is valid %s: %v", tok, err)
		}
		if valid {
			t.Fatalf("expected %s to be invalidated", tok)
		}
	}
	valid, err := repo.IsCurrentlyValid("tok-other")
	if err != nil {
		t.Fatalf("is valid other: %v", err)
	}
	if !valid {
		t.Fatal("other user's token must stay active")
	}

	// repeat is a no-op
	n, err = repo.InvalidateAllActive(user.ID)
	if err != nil {
		t.Fatalf("second invalidate: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no-op on second invalidate, got %d rows", n)
	}
}

func TestIsCurrentlyValidUnknownToken(t *testing.T) {
	db := newDBForTest(t)
	repo := NewTokenRepository(db)

	valid, err := repo.IsCurrentlyValid("never-issued")
	if err != nil {
		t.Fatalf("unknown token must not error: %v", err)
	}
	if valid {
		t.Fatal("unknown token must be invalid")
	}
}

func TestFindByTokenEagerLoadsUser(t *testing.T) {
	db := newDBForTest(t)
	repo := NewTokenRepository(db)
	user := seedUser(t, db, "a@x.com")

	if _, err := repo.Record("tok-1", user.ID); err != nil {
		t.Fatalf("record: %v", err)
	}
	rec, err := repo.FindByToken("tok-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if rec.User.Email != "a@x.com" {
		t.Fatalf("expected eager-loaded user, got %+v", rec.User)
	}

	if _, err := repo.FindByToken("missing"); err != ErrTokenNotFound {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}
