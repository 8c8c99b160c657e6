package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"techhourse/internal/behavior"
	"techhourse/internal/catalog"
)

// newTestStore opens a fresh database whose clock advances one second per
// read, so ordering by time is deterministic.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func seedPhones(t *testing.T, s *Store, models ...string) []catalog.Phone {
	t.Helper()
	phones := make([]catalog.Phone, len(models))
	for i, m := range models {
		phones[i] = catalog.Phone{Model: m, Brand: "brand-" + m, ImageKey: catalog.ImageKey(m)}
	}
	if err := s.InsertPhones(context.Background(), phones); err != nil {
		t.Fatalf("InsertPhones failed: %v", err)
	}
	return phones
}

func seedAccount(t *testing.T, s *Store, phone string) *Account {
	t.Helper()
	a := &Account{PhoneNumber: phone, PasswordHash: "h", SecurityQuestion: "q", SecurityAnswerHash: "a"}
	if err := s.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	return a
}

func TestOpenAppliesMigrations(t *testing.T) {
	s := newTestStore(t)
	v, err := s.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if v != 7 {
		t.Errorf("schema version = %d, want 7", v)
	}
}

func TestOpenConcurrentStores(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := Open(ctx, filepath.Join(dir, fmt.Sprintf("db%d.db", i)), nil)
			if err != nil {
				errs <- err
				return
			}
			defer s.Close()
			v, err := s.SchemaVersion(ctx)
			if err != nil {
				errs <- err
				return
			}
			if v != 7 {
				errs <- fmt.Errorf("store %d: schema version = %d, want 7", i, v)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()
	s1, err := Open(ctx, path, nil)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	if err := s1.InsertPhones(ctx, []catalog.Phone{{Model: "Pixel 9"}}); err != nil {
		t.Fatal(err)
	}
	s1.Close()

	s2, err := Open(ctx, path, nil)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()
	n, _ := s2.CountPhones(ctx)
	if n != 1 {
		t.Errorf("CountPhones after reopen = %d, want 1", n)
	}
}

func TestPhoneQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seeded := seedPhones(t, s, "Mate 60 Pro", "Xiaomi 14", "Mate X5")

	phones, err := s.ListPhones(ctx)
	if err != nil {
		t.Fatalf("ListPhones failed: %v", err)
	}
	if len(phones) != 3 || phones[0].Model != "Mate 60 Pro" || phones[2].Model != "Mate X5" {
		t.Fatalf("ListPhones order wrong: %+v", phones)
	}

	p, err := s.GetPhone(ctx, seeded[1].ID)
	if err != nil || p.Model != "Xiaomi 14" {
		t.Fatalf("GetPhone = %+v, %v", p, err)
	}
	if _, err := s.GetPhone(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPhone missing err = %v, want ErrNotFound", err)
	}

	found, err := s.SearchPhones(ctx, "mate")
	if err != nil {
		t.Fatalf("SearchPhones failed: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("SearchPhones(mate) = %d results, want 2", len(found))
	}
	if none, _ := s.SearchPhones(ctx, "%"); len(none) != 0 {
		t.Errorf("LIKE wildcard should be escaped, got %d results", len(none))
	}

	byBrand, _ := s.PhonesByBrand(ctx, "brand-Xiaomi 14")
	if len(byBrand) != 1 {
		t.Errorf("PhonesByBrand = %d, want 1", len(byBrand))
	}

	brands, _ := s.Brands(ctx)
	if len(brands) != 3 {
		t.Errorf("Brands = %v", brands)
	}

	got, err := s.GetPhones(ctx, []int64{seeded[2].ID, seeded[0].ID})
	if err != nil || got[0].Model != "Mate X5" || got[1].Model != "Mate 60 Pro" {
		t.Errorf("GetPhones = %+v, %v", got, err)
	}
	if _, err := s.GetPhones(ctx, []int64{seeded[0].ID, 4242}); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPhones with missing id err = %v", err)
	}
}

func TestReplacePhonesKeepsIDsByModel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seeded := seedPhones(t, s, "A", "B", "C")
	user := seedAccount(t, s, "13800000000")

	if err := s.AddFavorite(ctx, user.ID, seeded[1].ID); err != nil {
		t.Fatal(err)
	}
	if err := s.AddFavorite(ctx, user.ID, seeded[2].ID); err != nil {
		t.Fatal(err)
	}

	next := []catalog.Phone{{Model: "D"}, {Model: "B", Price: "999"}, {Model: "A"}}
	if err := s.ReplacePhones(ctx, next); err != nil {
		t.Fatalf("ReplacePhones failed: %v", err)
	}

	phones, _ := s.ListPhones(ctx)
	if len(phones) != 3 {
		t.Fatalf("catalog size = %d, want 3", len(phones))
	}
	order := []string{phones[0].Model, phones[1].Model, phones[2].Model}
	if order[0] != "D" || order[1] != "B" || order[2] != "A" {
		t.Errorf("catalog order = %v, want file order [D B A]", order)
	}
	if phones[1].ID != seeded[1].ID || phones[1].Price != "999" {
		t.Errorf("B should keep id %d and take new fields, got %+v", seeded[1].ID, phones[1])
	}
	if phones[2].ID != seeded[0].ID {
		t.Errorf("A should keep id %d, got %d", seeded[0].ID, phones[2].ID)
	}

	// C was dropped, taking its favorite with it; B's favorite survives.
	favs, _ := s.ListFavorites(ctx, user.ID)
	if len(favs) != 1 || favs[0].Model != "B" {
		t.Errorf("favorites after reload = %+v", favs)
	}
}

func TestUpdateImageKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seeded := seedPhones(t, s, "Note 50")

	if err := s.UpdateImageKey(ctx, seeded[0].ID, "infinix"); err != nil {
		t.Fatal(err)
	}
	p, _ := s.GetPhone(ctx, seeded[0].ID)
	if p.ImageKey != "infinix" {
		t.Errorf("ImageKey = %q", p.ImageKey)
	}
	if err := s.UpdateImageKey(ctx, 999, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteAllPhones(ctx); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.CountPhones(ctx); n != 0 {
		t.Errorf("CountPhones after delete = %d", n)
	}
}

func TestBehaviorLatestAndRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	latest, err := s.LatestBehavior(ctx)
	if err != nil || latest != nil {
		t.Fatalf("empty store LatestBehavior = %v, %v", latest, err)
	}

	pct := 15
	hours := 4.2
	first := behavior.Snapshot{Battery: "15%", GameTime: "4.2小时", RecordedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Signals: &behavior.Signals{Focus: behavior.FocusGaming, BatteryPercent: &pct, GameHours: &hours}}
	second := behavior.Snapshot{Battery: behavior.Unknown, RecordedAt: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)}
	for _, snap := range []*behavior.Snapshot{&first, &second} {
		if err := s.SaveBehavior(ctx, snap); err != nil {
			t.Fatalf("SaveBehavior failed: %v", err)
		}
	}

	latest, err = s.LatestBehavior(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != second.ID {
		t.Errorf("LatestBehavior id = %d, want %d", latest.ID, second.ID)
	}
	if latest.Signals != nil {
		t.Error("snapshot saved without signals should load without signals")
	}

	got, err := s.BehaviorsBetween(ctx, first.RecordedAt, first.RecordedAt.Add(time.Hour))
	if err != nil || len(got) != 1 {
		t.Fatalf("BehaviorsBetween = %v, %v", got, err)
	}
	sig := got[0].Signals
	if sig == nil || sig.Focus != behavior.FocusGaming || *sig.BatteryPercent != 15 || *sig.GameHours != 4.2 {
		t.Errorf("signals not round-tripped: %+v", sig)
	}
	if sig.MemoryRatio != nil {
		t.Error("unset signal should stay nil")
	}
	if !got[0].RecordedAt.Equal(first.RecordedAt) {
		t.Errorf("RecordedAt = %v", got[0].RecordedAt)
	}
	if n, _ := s.CountBehaviors(ctx); n != 2 {
		t.Errorf("CountBehaviors = %d", n)
	}
}

func TestAccounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := seedAccount(t, s, "13800000001")
	b := seedAccount(t, s, "13800000002")

	dup := &Account{PhoneNumber: "13800000001", PasswordHash: "x", SecurityQuestion: "q", SecurityAnswerHash: "y"}
	if err := s.CreateAccount(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate phone err = %v, want ErrDuplicate", err)
	}

	if _, err := s.CurrentAccount(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("CurrentAccount with nobody logged in err = %v", err)
	}

	if err := s.SetCurrentAccount(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.SetCurrentAccount(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	cur, err := s.CurrentAccount(ctx)
	if err != nil || cur.ID != b.ID {
		t.Fatalf("CurrentAccount = %+v, %v", cur, err)
	}
	reA, _ := s.GetAccount(ctx, a.ID)
	if reA.IsCurrent {
		t.Error("setting b current should clear a")
	}
	if err := s.SetCurrentAccount(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetCurrentAccount missing err = %v", err)
	}
	if cur, _ := s.CurrentAccount(ctx); cur == nil || cur.ID != b.ID {
		t.Error("failed SetCurrentAccount must roll back the clear")
	}

	if err := s.ClearCurrentAccount(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CurrentAccount(ctx); !errors.Is(err, ErrNotFound) {
		t.Error("logout should leave no current account")
	}
	if n, _ := s.CountAccounts(ctx); n != 2 {
		t.Errorf("logout must not delete accounts, count = %d", n)
	}

	before, _ := s.GetAccountByPhone(ctx, "13800000001")
	if err := s.UpdatePassword(ctx, a.ID, "new-hash"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateSecurity(ctx, a.ID, "new q", "new a"); err != nil {
		t.Fatal(err)
	}
	after, _ := s.GetAccountByPhone(ctx, "13800000001")
	if after.PasswordHash != "new-hash" || after.SecurityQuestion != "new q" || after.SecurityAnswerHash != "new a" {
		t.Errorf("updates not applied: %+v", after)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Error("UpdatedAt should advance")
	}

	if err := s.DeleteAccount(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetAccount(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted account still present: %v", err)
	}
	if err := s.UpdatePassword(ctx, a.ID, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdatePassword on deleted account err = %v", err)
	}
}

func TestFavorites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	phones := seedPhones(t, s, "A", "B")
	u := seedAccount(t, s, "13800000003")

	for i := 0; i < 2; i++ {
		if err := s.AddFavorite(ctx, u.ID, phones[0].ID); err != nil {
			t.Fatalf("AddFavorite #%d failed: %v", i, err)
		}
	}
	if n, _ := s.CountFavorites(ctx, u.ID); n != 1 {
		t.Errorf("favorite added twice should be stored once, count = %d", n)
	}
	if ok, _ := s.IsFavorite(ctx, u.ID, phones[0].ID); !ok {
		t.Error("IsFavorite should be true")
	}
	if ok, _ := s.IsFavorite(ctx, u.ID, phones[1].ID); ok {
		t.Error("IsFavorite should be false")
	}
	if err := s.AddFavorite(ctx, u.ID, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("favorite of missing phone err = %v", err)
	}

	s.AddFavorite(ctx, u.ID, phones[1].ID)
	favs, _ := s.ListFavorites(ctx, u.ID)
	if len(favs) != 2 || favs[0].Model != "B" {
		t.Errorf("ListFavorites should be newest first: %+v", favs)
	}

	if err := s.RemoveFavorite(ctx, u.ID, phones[0].ID); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveFavorite(ctx, u.ID, phones[0].ID); err != nil {
		t.Errorf("removing an absent favorite should succeed: %v", err)
	}
	if err := s.ClearFavorites(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.CountFavorites(ctx, u.ID); n != 0 {
		t.Errorf("ClearFavorites left %d rows", n)
	}
}

func TestHistoryUpsertAndRetention(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	models := make([]string, 12)
	for i := range models {
		models[i] = string(rune('A' + i))
	}
	phones := seedPhones(t, s, models...)
	u := seedAccount(t, s, "13800000004")

	for _, p := range phones {
		if err := s.RecordView(ctx, u.ID, p.ID, 10); err != nil {
			t.Fatalf("RecordView failed: %v", err)
		}
	}
	if n, _ := s.CountHistory(ctx, u.ID); n != 10 {
		t.Fatalf("history should be capped at 10, got %d", n)
	}

	// viewing C again moves it to the front without duplicating it
	if err := s.RecordView(ctx, u.ID, phones[2].ID, 10); err != nil {
		t.Fatal(err)
	}
	recent, err := s.RecentHistory(ctx, u.ID, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 7 {
		t.Fatalf("RecentHistory len = %d, want 7", len(recent))
	}
	if recent[0].PhoneModel != "C" || recent[1].PhoneModel != "L" {
		t.Errorf("unexpected order: %s, %s", recent[0].PhoneModel, recent[1].PhoneModel)
	}
	if n, _ := s.CountHistory(ctx, u.ID); n != 10 {
		t.Errorf("repeat view should not grow history, got %d", n)
	}

	all, _ := s.RecentHistory(ctx, u.ID, 100)
	for _, h := range all {
		if h.PhoneModel == "A" || h.PhoneModel == "B" {
			t.Errorf("oldest entries should be trimmed, found %s", h.PhoneModel)
		}
	}

	if err := s.RecordView(ctx, u.ID, 999, 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("RecordView missing phone err = %v", err)
	}
	if err := s.DeleteHistory(ctx, u.ID, phones[2].ID); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.CountHistory(ctx, u.ID); n != 9 {
		t.Errorf("DeleteHistory count = %d, want 9", n)
	}
	if err := s.DeleteAccount(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.CountHistory(ctx, u.ID); n != 0 {
		t.Errorf("deleting the account should cascade to history, %d left", n)
	}
}

func TestHistoryPerUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	phones := seedPhones(t, s, "A", "B")
	u1 := seedAccount(t, s, "1")
	u2 := seedAccount(t, s, "2")

	s.RecordView(ctx, u1.ID, phones[0].ID, 1)
	s.RecordView(ctx, u1.ID, phones[1].ID, 1)
	s.RecordView(ctx, u2.ID, phones[0].ID, 1)

	h1, _ := s.RecentHistory(ctx, u1.ID, 10)
	h2, _ := s.RecentHistory(ctx, u2.ID, 10)
	if len(h1) != 1 || h1[0].PhoneModel != "B" {
		t.Errorf("u1 history = %+v", h1)
	}
	if len(h2) != 1 || h2[0].PhoneModel != "A" {
		t.Errorf("u2 history = %+v", h2)
	}
	if err := s.ClearHistory(ctx, u1.ID); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.CountHistory(ctx, u2.ID); n != 1 {
		t.Error("clearing one user's history must not touch another's")
	}
}
