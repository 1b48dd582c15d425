package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/marianauyl-oss/amulet-backend-server/internal/activity/domain"
	activityrepo "github.com/marianauyl-oss/amulet-backend-server/internal/activity/repository"
	"github.com/marianauyl-oss/amulet-backend-server/internal/clock"
	licensedomain "github.com/marianauyl-oss/amulet-backend-server/internal/license/domain"
	licenserepo "github.com/marianauyl-oss/amulet-backend-server/internal/license/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupLicenseTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "licenses.db") + "?_busy_timeout=5000&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&licensedomain.License{}, &activitydomain.ActivityLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newLicenseService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return &Service{
		db:           db,
		log:          zap.NewNop(),
		genID:        node,
		clock:        clock.SystemClock{},
		repo:         licenserepo.Provide(),
		activityRepo: activityrepo.Provide(),
	}
}

// Shared node: one generator keeps IDs unique within a millisecond.
var fixtureIDs, _ = snowflake.NewNode(2)

func insertLicense(t *testing.T, db *gorm.DB, license *licensedomain.License) {
	t.Helper()

	if license.ID == 0 {
		license.ID = fixtureIDs.Generate()
	}
	if err := db.Create(license).Error; err != nil {
		t.Fatalf("insert license: %v", err)
	}
}

func strPtr(s string) *string { return &s }

func TestCheckBindsUnboundLicense(t *testing.T) {
	db := setupLicenseTestDB(t)
	svc := newLicenseService(t, db)
	insertLicense(t, db, &licensedomain.License{Key: "KEY-1", Credit: 500, Active: true})

	result, err := svc.Check(context.Background(), "KEY-1", "aa:bb:cc")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.Credit != 500 {
		t.Fatalf("credit = %d, want 500", result.Credit)
	}

	var stored licensedomain.License
	if err := db.Where("key = ?", "KEY-1").First(&stored).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.BoundMac() != "aa:bb:cc" {
		t.Fatalf("bound mac = %q, want aa:bb:cc", stored.BoundMac())
	}
}

func TestCheckSameDeviceSucceedsRepeatedly(t *testing.T) {
	db := setupLicenseTestDB(t)
	svc := newLicenseService(t, db)
	insertLicense(t, db, &licensedomain.License{Key: "KEY-1", MacID: strPtr("aa:bb:cc"), Credit: 10, Active: true})

	for i := 0; i < 3; i++ {
		if _, err := svc.Check(context.Background(), "KEY-1", "aa:bb:cc"); err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
	}
}

func TestCheckDeviceMismatchDoesNotRebind(t *testing.T) {
	db := setupLicenseTestDB(t)
	svc := newLicenseService(t, db)
	insertLicense(t, db, &licensedomain.License{Key: "KEY-1", MacID: strPtr("aa:bb:cc"), Credit: 10, Active: true})

	_, err := svc.Check(context.Background(), "KEY-1", "dd:ee:ff")
	if !errors.Is(err, licensedomain.ErrDeviceMismatch) {
		t.Fatalf("expected device mismatch, got %v", err)
	}

	var stored licensedomain.License
	if err := db.Where("key = ?", "KEY-1").First(&stored).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.BoundMac() != "aa:bb:cc" {
		t.Fatalf("binding changed to %q", stored.BoundMac())
	}
}

func TestCheckInactiveLicense(t *testing.T) {
	db := setupLicenseTestDB(t)
	svc := newLicenseService(t, db)
	insertLicense(t, db, &licensedomain.License{Key: "KEY-1", Credit: 10, Active: false})

	_, err := svc.Check(context.Background(), "KEY-1", "aa:bb:cc")
	if !errors.Is(err, licensedomain.ErrInactive) {
		t.Fatalf("expected inactive, got %v", err)
	}

	// Inactivity is checked before binding: the license stays unbound.
	var stored licensedomain.License
	if err := db.Where("key = ?", "KEY-1").First(&stored).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.MacID != nil {
		t.Fatalf("inactive license was bound to %q", *stored.MacID)
	}
}

func TestCheckUnknownKey(t *testing.T) {
	db := setupLicenseTestDB(t)
	svc := newLicenseService(t, db)

	_, err := svc.Check(context.Background(), "NOPE", "aa:bb:cc")
	if !errors.Is(err, licensedomain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCheckRequiresKeyAndMac(t *testing.T) {
	db := setupLicenseTestDB(t)
	svc := newLicenseService(t, db)

	cases := []struct{ key, mac string }{
		{"", ""},
		{"KEY-1", ""},
		{"", "aa:bb:cc"},
		{"   ", "aa:bb:cc"},
	}
	for _, tc := range cases {
		_, err := svc.Check(context.Background(), tc.key, tc.mac)
		if !errors.Is(err, licensedomain.ErrKeyMacRequired) {
			t.Fatalf("key=%q mac=%q: expected validation error, got %v", tc.key, tc.mac, err)
		}
	}
}

func TestDebitDecrementsAndLogs(t *testing.T) {
	db := setupLicenseTestDB(t)
	svc := newLicenseService(t, db)
	insertLicense(t, db, &licensedomain.License{Key: "KEY-1", MacID: strPtr("aa:bb:cc"), Credit: 100, Active: true})

	result, err := svc.Debit(context.Background(), licensedomain.DebitRequest{
		Key: "KEY-1", MacID: "aa:bb:cc", Count: 30, Model: "tts-1",
	})
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if result.Debited != 30 || result.Credit != 70 {
		t.Fatalf("result = %+v, want debited 30 credit 70", result)
	}

	var entries []activitydomain.ActivityLog
	if err := db.Find(&entries).Error; err != nil {
		t.Fatalf("load logs: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("log count = %d, want 1", len(entries))
	}
	if entries[0].Action != activitydomain.ActionDebit || entries[0].CharCount != 30 {
		t.Fatalf("log entry = %+v", entries[0])
	}
	if entries[0].Details != "model=tts-1" {
		t.Fatalf("details = %q", entries[0].Details)
	}
}

func TestDebitExactBalanceToZero(t *testing.T) {
	db := setupLicenseTestDB(t)
	svc := newLicenseService(t, db)
	insertLicense(t, db, &licensedomain.License{Key: "KEY-1", MacID: strPtr("aa:bb:cc"), Credit: 50, Active: true})

	result, err := svc.Debit(context.Background(), licensedomain.DebitRequest{
		Key: "KEY-1", MacID: "aa:bb:cc", Count: 50,
	})
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if result.Credit != 0 {
		t.Fatalf("credit = %d, want 0", result.Credit)
	}
}

func TestDebitInsufficientCreditReportsBalance(t *testing.T) {
	db := setupLicenseTestDB(t)
	svc := newLicenseService(t, db)
	insertLicense(t, db, &licensedomain.License{Key: "KEY-1", MacID: strPtr("aa:bb:cc"), Credit: 20, Active: true})

	_, err := svc.Debit(context.Background(), licensedomain.DebitRequest{
		Key: "KEY-1", MacID: "aa:bb:cc", Count: 21,
	})
	var insufficient *licensedomain.InsufficientCreditError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected insufficient credit, got %v", err)
	}
	if insufficient.Credit != 20 {
		t.Fatalf("reported balance = %d, want 20", insufficient.Credit)
	}

	// Rejection leaves the balance and the log untouched.
	var stored licensedomain.License
	if err := db.Where("key = ?", "KEY-1").First(&stored).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Credit != 20 {
		t.Fatalf("balance mutated to %d", stored.Credit)
	}
	var count int64
	if err := db.Model(&activitydomain.ActivityLog{}).Count(&count).Error; err != nil {
		t.Fatalf("count logs: %v", err)
	}
	if count != 0 {
		t.Fatalf("log rows = %d, want 0", count)
	}
}

func TestDebitUnboundLicenseRejectsNonEmptyMac(t *testing.T) {
	db := setupLicenseTestDB(t)
	svc := newLicenseService(t, db)
	insertLicense(t, db, &licensedomain.License{Key: "KEY-1", Credit: 100, Active: true})

	// A debit never claims the device lock the way Check does.
	_, err := svc.Debit(context.Background(), licensedomain.DebitRequest{
		Key: "KEY-1", MacID: "aa:bb:cc", Count: 10,
	})
	if !errors.Is(err, licensedomain.ErrDeviceMismatch) {
		t.Fatalf("expected device mismatch, got %v", err)
	}
}

func TestDebitIgnoresActiveFlag(t *testing.T) {
	db := setupLicenseTestDB(t)
	svc := newLicenseService(t, db)
	insertLicense(t, db, &licensedomain.License{Key: "KEY-1", MacID: strPtr("aa:bb:cc"), Credit: 100, Active: false})

	result, err := svc.Debit(context.Background(), licensedomain.DebitRequest{
		Key: "KEY-1", MacID: "aa:bb:cc", Count: 10,
	})
	if err != nil {
		t.Fatalf("debit on inactive license: %v", err)
	}
	if result.Credit != 90 {
		t.Fatalf("credit = %d, want 90", result.Credit)
	}
}

func TestRefundRestoresCreditUnconditionally(t *testing.T) {
	db := setupLicenseTestDB(t)
	svc := newLicenseService(t, db)
	insertLicense(t, db, &licensedomain.License{Key: "KEY-1", MacID: strPtr("aa:bb:cc"), Credit: 10, Active: true})

	result, err := svc.Refund(context.Background(), licensedomain.RefundRequest{
		Key: "KEY-1", MacID: "aa:bb:cc", Count: 90, Model: "tts-1", Reason: "synthesis failed",
	})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if result.Refunded != 90 || result.Credit != 100 {
		t.Fatalf("result = %+v, want refunded 90 credit 100", result)
	}

	var entries []activitydomain.ActivityLog
	if err := db.Find(&entries).Error; err != nil {
		t.Fatalf("load logs: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != activitydomain.ActionRefund {
		t.Fatalf("log entries = %+v", entries)
	}
	if entries[0].Details != "model=tts-1, reason=synthesis failed" {
		t.Fatalf("details = %q", entries[0].Details)
	}
}

func TestDebitStampsAuditTime(t *testing.T) {
	db := setupLicenseTestDB(t)
	svc := newLicenseService(t, db)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.clock = clock.Fixed{At: at}
	insertLicense(t, db, &licensedomain.License{Key: "KEY-1", MacID: strPtr("aa:bb:cc"), Credit: 100, Active: true})

	if _, err := svc.Debit(context.Background(), licensedomain.DebitRequest{
		Key: "KEY-1", MacID: "aa:bb:cc", Count: 10,
	}); err != nil {
		t.Fatalf("debit: %v", err)
	}

	var entry activitydomain.ActivityLog
	if err := db.First(&entry).Error; err != nil {
		t.Fatalf("load log: %v", err)
	}
	if !entry.CreatedAt.Equal(at) {
		t.Fatalf("created_at = %v, want %v", entry.CreatedAt, at)
	}
}

func TestRefundDeviceMismatch(t *testing.T) {
	db := setupLicenseTestDB(t)
	svc := newLicenseService(t, db)
	insertLicense(t, db, &licensedomain.License{Key: "KEY-1", MacID: strPtr("aa:bb:cc"), Credit: 10, Active: true})

	_, err := svc.Refund(context.Background(), licensedomain.RefundRequest{
		Key: "KEY-1", MacID: "dd:ee:ff", Count: 5,
	})
	if !errors.Is(err, licensedomain.ErrDeviceMismatch) {
		t.Fatalf("expected device mismatch, got %v", err)
	}
}

// Exercises the full activation lifecycle: bind, spend to exhaustion, refund,
// spend again.
func TestLicenseLifecycle(t *testing.T) {
	db := setupLicenseTestDB(t)
	svc := newLicenseService(t, db)
	insertLicense(t, db, &licensedomain.License{Key: "KEY-1", Credit: 100, Active: true})
	ctx := context.Background()

	if _, err := svc.Check(ctx, "KEY-1", "aa:bb:cc"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if _, err := svc.Debit(ctx, licensedomain.DebitRequest{Key: "KEY-1", MacID: "aa:bb:cc", Count: 100}); err != nil {
		t.Fatalf("drain: %v", err)
	}

	_, err := svc.Debit(ctx, licensedomain.DebitRequest{Key: "KEY-1", MacID: "aa:bb:cc", Count: 1})
	var insufficient *licensedomain.InsufficientCreditError
	if !errors.As(err, &insufficient) || insufficient.Credit != 0 {
		t.Fatalf("expected empty balance rejection, got %v", err)
	}

	if _, err := svc.Refund(ctx, licensedomain.RefundRequest{Key: "KEY-1", MacID: "aa:bb:cc", Count: 40}); err != nil {
		t.Fatalf("refund: %v", err)
	}
	result, err := svc.Debit(ctx, licensedomain.DebitRequest{Key: "KEY-1", MacID: "aa:bb:cc", Count: 40})
	if err != nil {
		t.Fatalf("spend refund: %v", err)
	}
	if result.Credit != 0 {
		t.Fatalf("final credit = %d, want 0", result.Credit)
	}
}

func TestConcurrentDebitsConserveCredit(t *testing.T) {
	db := setupLicenseTestDB(t)
	svc := newLicenseService(t, db)
	insertLicense(t, db, &licensedomain.License{Key: "KEY-1", MacID: strPtr("aa:bb:cc"), Credit: 1000, Active: true})

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Debit(context.Background(), licensedomain.DebitRequest{
				Key: "KEY-1", MacID: "aa:bb:cc", Count: 10,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent debit: %v", err)
		}
	}

	var stored licensedomain.License
	if err := db.Where("key = ?", "KEY-1").First(&stored).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Credit != 1000-workers*10 {
		t.Fatalf("credit = %d, want %d", stored.Credit, 1000-workers*10)
	}

	var count int64
	if err := db.Model(&activitydomain.ActivityLog{}).Count(&count).Error; err != nil {
		t.Fatalf("count logs: %v", err)
	}
	if count != workers {
		t.Fatalf("log rows = %d, want %d", count, workers)
	}
}

func TestCreateRejectsBlankKey(t *testing.T) {
	db := setupLicenseTestDB(t)
	svc := newLicenseService(t, db)

	_, err := svc.Create(context.Background(), licensedomain.CreateRequest{Key: "   "})
	if !errors.Is(err, licensedomain.ErrKeyRequired) {
		t.Fatalf("expected key required, got %v", err)
	}
}

func TestUpdatePartialFields(t *testing.T) {
	db := setupLicenseTestDB(t)
	svc := newLicenseService(t, db)
	insertLicense(t, db, &licensedomain.License{Key: "KEY-1", MacID: strPtr("aa:bb:cc"), Credit: 10, Active: true})

	var stored licensedomain.License
	if err := db.Where("key = ?", "KEY-1").First(&stored).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}

	credit := int64(777)
	updated, err := svc.Update(context.Background(), licensedomain.UpdateRequest{
		ID:     stored.ID,
		Credit: &credit,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Credit != 777 {
		t.Fatalf("credit = %d, want 777", updated.Credit)
	}
	if updated.Key != "KEY-1" || updated.BoundMac() != "aa:bb:cc" {
		t.Fatalf("untouched fields mutated: %+v", updated)
	}

	// An explicit blank mac clears the binding.
	empty := ""
	updated, err = svc.Update(context.Background(), licensedomain.UpdateRequest{
		ID:    stored.ID,
		MacID: &empty,
	})
	if err != nil {
		t.Fatalf("clear mac: %v", err)
	}
	if updated.MacID != nil {
		t.Fatalf("mac not cleared: %v", *updated.MacID)
	}
}

func TestDeleteUnknownLicense(t *testing.T) {
	db := setupLicenseTestDB(t)
	svc := newLicenseService(t, db)

	if err := svc.Delete(context.Background(), snowflake.ID(12345)); !errors.Is(err, licensedomain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	db := setupLicenseTestDB(t)
	svc := newLicenseService(t, db)
	insertLicense(t, db, &licensedomain.License{Key: "alpha-1", Credit: 10, Active: true})
	insertLicense(t, db, &licensedomain.License{Key: "alpha-2", Credit: 500, Active: false})
	insertLicense(t, db, &licensedomain.License{Key: "beta-1", Credit: 900, Active: true})
	ctx := context.Background()

	matches, err := svc.List(ctx, licensedomain.ListRequest{Query: "ALPHA"})
	if err != nil {
		t.Fatalf("list by query: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("query matches = %d, want 2", len(matches))
	}

	minCredit := int64(400)
	active := true
	matches, err = svc.List(ctx, licensedomain.ListRequest{MinCredit: &minCredit, Active: &active})
	if err != nil {
		t.Fatalf("list by filter: %v", err)
	}
	if len(matches) != 1 || matches[0].Key != "beta-1" {
		t.Fatalf("filter matches = %+v", matches)
	}
}
