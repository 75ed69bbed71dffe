package database_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/AlexTLDR/lesezirkel/internal/database/dbtest"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		url     string
		dialect database.Dialect
		dsn     string
		wantErr bool
	}{
		{"sqlite://data/site.db", database.SQLite, "data/site.db?_foreign_keys=on&_busy_timeout=5000", false},
		{"sqlite://site.db?cache=shared", database.SQLite, "site.db?cache=shared&_foreign_keys=on&_busy_timeout=5000", false},
		{"postgres://u:p@localhost/lesezirkel", database.Postgres, "postgres://u:p@localhost/lesezirkel", false},
		{"postgresql://localhost/lesezirkel", database.Postgres, "postgresql://localhost/lesezirkel", false},
		{"sqlite://", "", "", true},
		{"mysql://localhost", "", "", true},
	}

	for _, tt := range tests {
		dialect, dsn, err := database.ParseURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			continue
		}
		if dialect != tt.dialect || dsn != tt.dsn {
			t.Errorf("ParseURL(%q) = %q, %q", tt.url, dialect, dsn)
		}
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := dbtest.New(t)
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestPaginate(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)

	for i := 1; i <= 25; i++ {
		item := &database.GalleryItem{Title: fmt.Sprintf("Bild %02d", i), Image: fmt.Sprintf("gallery/%02d.jpg", i)}
		if err := database.Create(ctx, db, item); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		page      int
		wantPage  int
		wantItems int
	}{
		{1, 1, 12},
		{3, 3, 1},
		{99, 3, 1},
		{0, 1, 12},
	}

	for _, tt := range tests {
		p, err := db.GalleryPage(ctx, tt.page)
		if err != nil {
			t.Fatalf("GalleryPage(%d) error = %v", tt.page, err)
		}
		if p.Number != tt.wantPage || len(p.Items) != tt.wantItems {
			t.Errorf("GalleryPage(%d) = page %d with %d items, want page %d with %d", tt.page, p.Number, len(p.Items), tt.wantPage, tt.wantItems)
		}
		if p.Total != 25 || p.TotalPages != 3 {
			t.Errorf("Total = %d, TotalPages = %d", p.Total, p.TotalPages)
		}
	}

	p, _ := db.GalleryPage(ctx, 1)
	if p.Items[0].Title != "Bild 25" {
		t.Errorf("newest first expected, got %q", p.Items[0].Title)
	}
	if p.HasPrev() || !p.HasNext() || len(p.Pages()) != 3 {
		t.Errorf("navigation wrong: prev=%v next=%v pages=%v", p.HasPrev(), p.HasNext(), p.Pages())
	}
}

func TestPaginateEmpty(t *testing.T) {
	db := dbtest.New(t)

	p, err := db.PublishedNews(context.Background(), time.Now(), 4)
	if err != nil {
		t.Fatal(err)
	}
	if p.Number != 1 || p.TotalPages != 1 || len(p.Items) != 0 {
		t.Errorf("empty page = %+v", p)
	}
}

func TestParsePage(t *testing.T) {
	for input, want := range map[string]int{"": 1, "abc": 1, "-3": 1, "0": 1, "2": 2, " 7 ": 7} {
		if got := database.ParsePage(input); got != want {
			t.Errorf("ParsePage(%q) = %d, want %d", input, got, want)
		}
	}
}

func TestSearchAndDelete(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)

	for _, m := range []database.ContactMessage{
		{Name: "Anna", Email: "anna@example.org", Subject: "Frage zur Lesung", Message: "Hallo"},
		{Name: "Bert", Email: "bert@example.org", Subject: "Mitgliedschaft", Message: "Wie werde ich Mitglied?"},
	} {
		m := m
		if err := db.CreateContactMessage(ctx, &m); err != nil {
			t.Fatal(err)
		}
	}

	found, err := database.List[database.ContactMessage](ctx, db, database.Search("LESUNG", "name", "subject", "message"))
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].Name != "Anna" {
		t.Errorf("Search() = %v", found)
	}

	all, _ := database.List[database.ContactMessage](ctx, db, database.Search("  ", "name"))
	if len(all) != 2 {
		t.Errorf("blank search should match everything, got %d", len(all))
	}

	if err := database.Delete[database.ContactMessage](ctx, db, found[0].ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := database.Delete[database.ContactMessage](ctx, db, found[0].ID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
	if _, err := database.Get[database.ContactMessage](ctx, db, found[0].ID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}

	unread, err := db.UnreadContactCount(ctx)
	if err != nil || unread != 1 {
		t.Errorf("UnreadContactCount() = %d, %v", unread, err)
	}

	n, err := database.UpdateColumn[database.ContactMessage](ctx, db, []uint{all[0].ID, all[1].ID}, "is_read", true)
	if err != nil || n != 1 {
		t.Errorf("UpdateColumn() = %d, %v", n, err)
	}
	unread, _ = db.UnreadContactCount(ctx)
	if unread != 0 {
		t.Errorf("UnreadContactCount() after update = %d", unread)
	}
}

func TestUniqueViolationIsDuplicate(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	event := createEvent(t, db, nil)

	createCode(t, db, event.ID, "SAME", nil)
	err := database.Create(ctx, db, &database.InvitationCode{EventID: event.ID, Code: "SAME", MaxUses: 1})
	if !errors.Is(err, database.ErrDuplicate) {
		t.Errorf("error = %v, want ErrDuplicate", err)
	}
}

func TestDeleteEventCascades(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	event := createEvent(t, db, nil)

	if _, err := db.RegisterForEvent(ctx, event.ID, input("Anna", "Müller", "anna@example.org"), time.Now()); err != nil {
		t.Fatal(err)
	}
	createCode(t, db, event.ID, "GONE", nil)

	if err := database.Delete[database.Event](ctx, db, event.ID); err != nil {
		t.Fatal(err)
	}

	regs, _ := database.Count[database.EventRegistration](ctx, db)
	codes, _ := database.Count[database.InvitationCode](ctx, db)
	if regs != 0 || codes != 0 {
		t.Errorf("after delete: %d registrations, %d codes, want none", regs, codes)
	}
}

func TestDeleteCodeKeepsRegistration(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	event := createEvent(t, db, func(e *database.Event) { e.InvitationOnly = true })
	code := createCode(t, db, event.ID, "KEEP", nil)

	in := input("Anna", "Müller", "anna@example.org")
	in.InvitationCode = "KEEP"
	reg, err := db.RegisterForEvent(ctx, event.ID, in, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	if err := database.Delete[database.InvitationCode](ctx, db, code.ID); err != nil {
		t.Fatal(err)
	}

	got, err := database.Get[database.EventRegistration](ctx, db, reg.ID)
	if err != nil {
		t.Fatalf("registration should survive: %v", err)
	}
	if got.InvitationCodeID != nil {
		t.Errorf("InvitationCodeID = %v, want nil", *got.InvitationCodeID)
	}
}
