package i18n

type text struct {
	de string
	en string
}

var messages = map[string]text{
	// Registration
	"registration.success": {
		"Ihre Anmeldung wurde erfolgreich eingereicht! Sie erhalten eine Bestätigung per E-Mail.",
		"Your registration has been submitted! You will receive a confirmation by e-mail.",
	},
	"registration.duplicate": {
		"Sie sind bereits für diese Veranstaltung angemeldet.",
		"You are already registered for this event.",
	},
	"registration.full": {
		"Diese Veranstaltung ist bereits ausgebucht.",
		"This event is fully booked.",
	},
	"registration.closed": {
		"Für diese Veranstaltung ist keine Anmeldung möglich.",
		"Registration is not possible for this event.",
	},
	"registration.invalid": {
		"Bitte füllen Sie alle erforderlichen Felder aus und stimmen Sie der Datenschutzerklärung zu.",
		"Please fill in all required fields and accept the privacy policy.",
	},
	"error.generic": {
		"Ein Fehler ist aufgetreten. Bitte versuchen Sie es erneut.",
		"An error occurred. Please try again.",
	},

	// Invitation codes
	"invitation.missing": {
		"Für diese Veranstaltung ist ein Einladungscode erforderlich.",
		"An invitation code is required for this event.",
	},
	"invitation.unknown": {
		"Ungültiger Einladungscode.",
		"Invalid invitation code.",
	},
	"invitation.inactive": {
		"Dieser Einladungscode wurde deaktiviert.",
		"This invitation code has been deactivated.",
	},
	"invitation.exhausted": {
		"Dieser Einladungscode wurde bereits vollständig verwendet.",
		"This invitation code has already been used up.",
	},
	"invitation.expired": {
		"Dieser Einladungscode ist abgelaufen.",
		"This invitation code has expired.",
	},
	"invitation.event_past": {
		"Diese Veranstaltung hat bereits stattgefunden.",
		"This event has already taken place.",
	},
	"invitation.name_mismatch": {
		"Der angegebene Name stimmt nicht mit der Einladung überein.",
		"The name does not match the invitation.",
	},

	// Contact
	"contact.success": {
		"Ihre Nachricht wurde erfolgreich gesendet! Wir werden uns so schnell wie möglich bei Ihnen melden.",
		"Your message has been sent! We will get back to you as soon as possible.",
	},
	"contact.invalid": {
		"Bitte korrigieren Sie die markierten Felder.",
		"Please correct the highlighted fields.",
	},

	// Certificates
	"certificate.incomplete": {
		"Bitte füllen Sie alle Felder aus.",
		"Please fill in all fields.",
	},
	"certificate.not_found": {
		"Kein Zertifikat mit diesen Daten gefunden. Bitte überprüfen Sie Ihre Eingaben.",
		"No certificate found for these details. Please check your input.",
	},

	// Staff
	"login.invalid": {
		"E-Mail-Adresse oder Passwort ist falsch.",
		"E-mail address or password is incorrect.",
	},
	"login.denied": {
		"Dieses Konto hat keinen Zugang zum Verwaltungsbereich.",
		"This account has no access to the staff area.",
	},
	"login.google_failed": {
		"Die Anmeldung mit Google ist fehlgeschlagen.",
		"Signing in with Google failed.",
	},
	"logout.done": {
		"Sie wurden abgemeldet.",
		"You have been signed out.",
	},
	"admin.saved": {
		"„%s“ wurde gespeichert.",
		"\"%s\" has been saved.",
	},
	"admin.deleted": {
		"„%s“ wurde gelöscht.",
		"\"%s\" has been deleted.",
	},
	"admin.no_selection": {
		"Bitte wählen Sie mindestens einen Eintrag aus.",
		"Please select at least one entry.",
	},
	"admin.unknown_action": {
		"Unbekannte Aktion.",
		"Unknown action.",
	},
	"admin.updated": {
		"%d Einträge wurden aktualisiert.",
		"%d entries have been updated.",
	},
	"admin.capacity": {
		"%d Anmeldungen konnten wegen der maximalen Teilnehmerzahl nicht bestätigt werden.",
		"%d registrations could not be confirmed because the event is full.",
	},
	"admin.form_invalid": {
		"Bitte korrigieren Sie die unten aufgeführten Fehler.",
		"Please correct the errors below.",
	},

	// Navigation
	"nav.home":         {"Startseite", "Home"},
	"nav.about":        {"Über uns", "About us"},
	"nav.events":       {"Veranstaltungen", "Events"},
	"nav.news":         {"Nachrichten", "News"},
	"nav.gallery":      {"Galerie", "Gallery"},
	"nav.documents":    {"Dokumente", "Documents"},
	"nav.certificates": {"Zertifikate", "Certificates"},
	"nav.contact":      {"Kontakt", "Contact"},
	"nav.imprint":      {"Impressum", "Legal notice"},
	"nav.privacy":      {"Datenschutz", "Privacy"},
	"nav.staff":        {"Verwaltung", "Staff area"},
	"page.not_found": {
		"Die angeforderte Seite wurde nicht gefunden.",
		"The requested page could not be found.",
	},
	"page.forbidden": {
		"Sie haben keinen Zugriff auf diese Seite.",
		"You do not have access to this page.",
	},
}
