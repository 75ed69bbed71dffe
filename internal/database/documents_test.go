package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/AlexTLDR/lesezirkel/internal/database/dbtest"
)

func TestPublicDocuments(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)

	docs := []database.Document{
		{Title: "Satzung", Category: "general", File: "documents/satzung.pdf", IsPublic: true},
		{Title: "Antrag", Category: "forms", File: "documents/antrag.docx", IsPublic: true, IsFeatured: true},
		{Title: "Intern", Category: "forms", File: "documents/intern.pdf", IsPublic: false},
		{Title: "Bericht", Category: "reports", File: "documents/bericht.xlsx", IsPublic: true},
	}
	for i := range docs {
		if err := database.Create(ctx, db, &docs[i]); err != nil {
			t.Fatal(err)
		}
	}

	page, err := db.PublicDocuments(ctx, "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 3 {
		t.Fatalf("public documents = %d, want 3", len(page.Items))
	}
	if page.Items[0].Title != "Antrag" || page.Items[1].Title != "Bericht" {
		t.Errorf("featured first, then newest: got %q, %q", page.Items[0].Title, page.Items[1].Title)
	}

	forms, _ := db.PublicDocuments(ctx, "forms", 1)
	if len(forms.Items) != 1 || forms.Items[0].Title != "Antrag" {
		t.Errorf("forms = %v", forms.Items)
	}

	if _, err := db.PublicDocument(ctx, docs[2].ID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("private document error = %v, want ErrNotFound", err)
	}

	if err := db.IncrementDownloadCount(ctx, docs[0].ID); err != nil {
		t.Fatal(err)
	}
	_ = db.IncrementDownloadCount(ctx, docs[0].ID)
	got, _ := db.PublicDocument(ctx, docs[0].ID)
	if got.DownloadCount != 2 {
		t.Errorf("DownloadCount = %d, want 2", got.DownloadCount)
	}
}

func TestFindCertificate(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)

	cert := &database.Certificate{
		FirstName:         "Jürgen",
		LastName:          "Groß",
		ParticipantNumber: "LZ-2025-017",
		EventTitle:        "Schreibwerkstatt",
		CompletionDate:    time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC),
		File:              "certificates/lz-2025-017.pdf",
	}
	if err := database.Create(ctx, db, cert); err != nil {
		t.Fatal(err)
	}

	found, err := db.FindCertificate(ctx, " JÜRGEN", "groß ", "LZ-2025-017")
	if err != nil {
		t.Fatalf("FindCertificate() error = %v", err)
	}
	if found.ID != cert.ID {
		t.Errorf("found %d, want %d", found.ID, cert.ID)
	}
	if found.DownloadName() != "Jürgen Groß_Zertifikat.pdf" {
		t.Errorf("DownloadName() = %q", found.DownloadName())
	}

	for _, tc := range [][3]string{
		{"Jürgen", "Groß", "LZ-2025-018"},
		{"Anna", "Groß", "LZ-2025-017"},
		{"Jürgen", "", "LZ-2025-017"},
	} {
		if _, err := db.FindCertificate(ctx, tc[0], tc[1], tc[2]); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("FindCertificate(%v) error = %v, want ErrNotFound", tc, err)
		}
	}
}

func TestStaffAuthentication(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)

	u, err := db.UpsertStaff(ctx, "Vorstand@Lesezirkel.de", "Vorstand", "geheim123", true, true)
	if err != nil {
		t.Fatalf("UpsertStaff() error = %v", err)
	}
	if u.Email != "vorstand@lesezirkel.de" || !u.CanAccessAdmin() {
		t.Errorf("staff user = %+v", u)
	}

	if _, err := db.Authenticate(ctx, "vorstand@lesezirkel.de", "falsch"); !errors.Is(err, database.ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v", err)
	}
	if _, err := db.Authenticate(ctx, "niemand@lesezirkel.de", "geheim123"); !errors.Is(err, database.ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v", err)
	}
	got, err := db.Authenticate(ctx, " VORSTAND@lesezirkel.de", "geheim123")
	if err != nil || got.ID != u.ID {
		t.Fatalf("Authenticate() = %v, %v", got, err)
	}

	// empty password keeps the old hash
	updated, err := db.UpsertStaff(ctx, "vorstand@lesezirkel.de", "", "", true, false)
	if err != nil {
		t.Fatal(err)
	}
	if updated.ID != u.ID || updated.Name != "Vorstand" || updated.CanAccessAdmin() {
		t.Errorf("updated = %+v", updated)
	}
	if !updated.CheckPassword("geheim123") {
		t.Error("password should be unchanged")
	}

	if _, err := db.UpsertStaff(ctx, "neu@lesezirkel.de", "", "kurz", true, true); err == nil {
		t.Error("short password should be rejected")
	}

	if err := db.TouchLastLogin(ctx, u.ID, time.Now()); err != nil {
		t.Fatal(err)
	}
	again, _ := db.StaffByID(ctx, u.ID)
	if again.LastLoginAt == nil {
		t.Error("LastLoginAt not set")
	}
}

func TestGenerateUniqueCode(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)

	code, err := db.GenerateUniqueCode(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(code) != 6 || !database.ValidCodeFormat(code) {
		t.Errorf("generated code %q has wrong format", code)
	}
	for _, r := range code {
		if r == 'I' || r == 'O' || r == '0' || r == '1' {
			t.Errorf("code %q contains ambiguous character %q", code, r)
		}
	}

	event := createEvent(t, db, nil)
	c := createCode(t, db, event.ID, "TAKEN", nil)
	exists, err := db.CodeExists(ctx, " taken ", 0)
	if err != nil || !exists {
		t.Errorf("CodeExists() = %v, %v", exists, err)
	}
	exists, _ = db.CodeExists(ctx, "TAKEN", c.ID)
	if exists {
		t.Error("the code itself must be excluded")
	}
}

func TestValidCodeFormat(t *testing.T) {
	tests := map[string]bool{
		"ABC":                    true,
		"SOMMER-2025":            true,
		"AB":                     false,
		"abc":                    false,
		"ÄBC":                    false,
		"A B C":                  false,
		"":                       false,
		"ABCDEFGHIJKLMNOPQRSTUVWXYZABCDEFGHIJKLMNOPQRSTUVWXY": false,
	}
	for code, want := range tests {
		if got := database.ValidCodeFormat(code); got != want {
			t.Errorf("ValidCodeFormat(%q) = %v, want %v", code, got, want)
		}
	}
	if database.NormalizeCode("  sommer-2025 ") != "SOMMER-2025" {
		t.Error("NormalizeCode should trim and upper-case")
	}
}
