package database

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

const (
	codeAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength     = 6
	MinCodeLength  = 3
	MaxCodeLength  = 50
	codeMaxRetries = 5
)

var codePattern = regexp.MustCompile(`^[A-Z0-9-]+$`)

// NormalizeCode trims and upper-cases an invitation code as entered.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCodeFormat reports whether an already normalized code has an
// acceptable length and only uses A-Z, 0-9 and hyphens.
func ValidCodeFormat(code string) bool {
	return len(code) >= MinCodeLength && len(code) <= MaxCodeLength && codePattern.MatchString(code)
}

// GenerateCode returns a random code without easily confused characters
// (no I, O, 0 or 1).
func GenerateCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, codeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}

// GenerateUniqueCode generates a code that is not in use yet.
func (db *DB) GenerateUniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < codeMaxRetries; i++ {
		code, err := GenerateCode()
		if err != nil {
			return "", err
		}

		exists, err := db.CodeExists(ctx, code, 0)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique code after %d retries", codeMaxRetries)
}

// CodeExists reports whether code is used by an invitation other than
// excludeID.
func (db *DB) CodeExists(ctx context.Context, code string, excludeID uint) (bool, error) {
	query := db.WithContext(ctx).Model(&InvitationCode{}).Where("code = ?", NormalizeCode(code))
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var n int64
	if err := query.Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check code uniqueness: %w", err)
	}
	return n > 0, nil
}

func (db *DB) InvitationCodesForEvent(ctx context.Context, eventID uint) ([]InvitationCode, error) {
	return List[InvitationCode](ctx, db, Where("event_id = ?", eventID), OrderBy("created_at DESC"))
}
