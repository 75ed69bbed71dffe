package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// SetPassword replaces the stored password hash.
func (u *StaffUser) SetPassword(password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *StaffUser) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (db *DB) StaffByEmail(ctx context.Context, email string) (*StaffUser, error) {
	var u StaffUser
	err := db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if err != nil {
		return nil, wrap(err, "get staff user")
	}
	return &u, nil
}

func (db *DB) StaffByID(ctx context.Context, id uint) (*StaffUser, error) {
	return Get[StaffUser](ctx, db, id)
}

// Authenticate checks email and password. Unknown accounts and wrong
// passwords both return ErrInvalidCredentials.
func (db *DB) Authenticate(ctx context.Context, email, password string) (*StaffUser, error) {
	u, err := db.StaffByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// UpsertStaff creates the account for email or updates its name, password
// and flags. An empty password keeps the existing one.
func (db *DB) UpsertStaff(ctx context.Context, email, name, password string, isStaff, isActive bool) (*StaffUser, error) {
	u, err := db.StaffByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		u = &StaffUser{Email: strings.ToLower(strings.TrimSpace(email))}
	case err != nil:
		return nil, err
	}

	if name != "" {
		u.Name = name
	}
	u.IsStaff = isStaff
	u.IsActive = isActive
	if password != "" {
		if err := u.SetPassword(password); err != nil {
			return nil, err
		}
	}

	if u.ID == 0 {
		err = Create(ctx, db, u)
	} else {
		err = Save(ctx, db, u)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (db *DB) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	err := db.WithContext(ctx).Model(&StaffUser{}).Where("id = ?", id).UpdateColumn("last_login_at", at.UTC()).Error
	return wrap(err, "update last login")
}
