// Package domain defines the coupon bot's entities and their MongoDB repositories.
package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by repositories when no document matches a lookup.
	ErrNotFound = errors.New("not found")
	// ErrInvalid wraps input validation failures.
	ErrInvalid = errors.New("invalid input")
)

// Category groups coupons into a navigable tree. IDs are stable slugs such as
// "pw_batches" so menu code can address them directly.
type Category struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Emoji     string    `bson:"emoji" json:"emoji"`
	ParentID  *string   `bson:"parent_id" json:"parent_id"`
	SortOrder int       `bson:"sort_order" json:"sort_order"`
	IsActive  bool      `bson:"is_active" json:"is_active"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Label returns the button text for the category.
func (c Category) Label() string {
	return strings.TrimSpace(c.Emoji + " " + c.Name)
}

// Coupon is a discount code shown to users.
type Coupon struct {
	ID          string    `bson:"_id" json:"id"`
	CategoryID  string    `bson:"category_id" json:"category_id"`
	Code        string    `bson:"code" json:"code"`
	Discount    string    `bson:"discount" json:"discount"`
	Description string    `bson:"description" json:"description"`
	Validity    string    `bson:"validity" json:"validity"`
	IsActive    bool      `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// Referral is an app referral offer.
type Referral struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Emoji        string    `bson:"emoji" json:"emoji"`
	AppName      string    `bson:"app_name" json:"app_name"`
	ReferralCode string    `bson:"referral_code" json:"referral_code"`
	Instructions string    `bson:"instructions" json:"instructions"`
	Link         string    `bson:"link,omitempty" json:"link,omitempty"`
	IsActive     bool      `bson:"is_active" json:"is_active"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// Interaction is one append-only analytics record.
type Interaction struct {
	TelegramID int64     `bson:"telegram_id" json:"telegram_id"`
	Username   string    `bson:"username,omitempty" json:"username,omitempty"`
	FirstName  string    `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName   string    `bson:"last_name,omitempty" json:"last_name,omitempty"`
	Action     string    `bson:"action" json:"action"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// ActionCount is one row of the top-actions ranking.
type ActionCount struct {
	Action string `bson:"_id" json:"action"`
	Count  int64  `bson:"count" json:"count"`
}

// AdminUser is an account allowed into the management API.
type AdminUser struct {
	Username     string    `bson:"username" json:"username"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	IsActive     bool      `bson:"is_active" json:"is_active"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// AdminSession binds an opaque cookie token to an admin account.
type AdminSession struct {
	Token     string    `bson:"token"`
	Username  string    `bson:"username"`
	ExpiresAt time.Time `bson:"expires_at"`
}
