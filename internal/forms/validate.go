package forms

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/go-playground/validator/v10"
)

const (
	msgInvalid  = "Ungültige Eingabe."
	msgRequired = "Dieses Feld ist erforderlich."
)

// NewValidator returns a validator that reports fields by their form name
// and knows the site's custom tags.
func NewValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("schema"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	v.RegisterValidation("invitecode", validateInviteCode)

	return v
}

func validateInviteCode(fl validator.FieldLevel) bool {
	return database.ValidCodeFormat(database.NormalizeCode(fl.Field().String()))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "email":
		return "Bitte geben Sie eine gültige E-Mail-Adresse ein."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Höchstens %s Zeichen erlaubt.", fe.Param())
		}
		return fmt.Sprintf("Der Wert darf höchstens %s sein.", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Mindestens %s Zeichen erforderlich.", fe.Param())
		}
		return fmt.Sprintf("Der Wert muss mindestens %s sein.", fe.Param())
	case "gte":
		return fmt.Sprintf("Der Wert muss mindestens %s sein.", fe.Param())
	case "oneof":
		return "Bitte wählen Sie einen gültigen Eintrag."
	case "eq":
		if fe.Kind() == reflect.Bool {
			return "Bitte stimmen Sie der Datenschutzerklärung zu."
		}
		return msgInvalid
	case "hexcolor":
		return "Bitte geben Sie eine Farbe im Format #RRGGBB ein."
	case "gtefield":
		return "Das Enddatum muss nach dem Startdatum liegen."
	case "url":
		return "Bitte geben Sie eine gültige URL ein."
	case "invitecode":
		code := database.NormalizeCode(fmt.Sprint(fe.Value()))
		if len(code) < database.MinCodeLength {
			return fmt.Sprintf("Der Code muss mindestens %d Zeichen lang sein.", database.MinCodeLength)
		}
		return "Der Code darf nur Großbuchstaben (A-Z), Ziffern (0-9) und Bindestriche (-) enthalten."
	default:
		return msgInvalid
	}
}
