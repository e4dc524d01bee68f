package db

import (
	"time"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"

	SubscriptionFree    = "free"
	SubscriptionPremium = "premium"
)

// User table. Account and profile columns are written by the auth and
// profile collaborators; the engine only reads them.
//
// Bool columns deliberately carry no gorm default: gorm skips zero values
// for fields with defaults, which would turn an explicit false into true.
type User struct {
	ID                  uint64 `gorm:"primaryKey;autoIncrement"`
	Username            string `gorm:"uniqueIndex;size:64;not null"`
	Email               string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash        string `gorm:"size:255;not null"`
	Gender              string `gorm:"size:16;not null;index"`
	BirthDate           *time.Time
	IsActive            bool   `gorm:"not null;index"`
	IsVerified          bool   `gorm:"not null"`
	PhoneVerified       bool   `gorm:"not null"`
	EmailVerified       bool   `gorm:"not null"`
	SubscriptionType    string `gorm:"size:16;not null"`
	ProfileCompleteness int    `gorm:"not null"`
	Latitude            *float64
	Longitude           *float64
	LocationSharing     bool `gorm:"not null"`
	LastActivityAt      *time.Time
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
}

// IsPremium reports whether the user has the premium subscription.
func (u *User) IsPremium() bool {
	return u.SubscriptionType == SubscriptionPremium
}

// Coordinates returns the user's position when it is known and shared.
func (u *User) Coordinates() (lat, lon float64, ok bool) {
	if u.Latitude == nil || u.Longitude == nil || !u.LocationSharing {
		return 0, 0, false
	}
	return *u.Latitude, *u.Longitude, true
}

// Like is one user's like of another ("match" row).
//
// Unique index idx_likes_pair(liker_id, liked_id)
//   - At most one row per ordered pair. A failed insert on this index is
//     the authoritative "already liked" signal.
//
// Indexes:
//   - idx_likes_liker_created(liker_id, created_at)
//     cooldown, daily quota and outgoing listings.
//   - idx_likes_liked_created(liked_id, created_at)
//     "likes received" listings and counts.
//
// IsMutual is true on both rows of a pair once both sides liked each other.
type Like struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	LikerID   uint64    `gorm:"not null;uniqueIndex:idx_likes_pair,priority:1;index:idx_likes_liker_created,priority:1"`
	LikedID   uint64    `gorm:"not null;uniqueIndex:idx_likes_pair,priority:2;index:idx_likes_liked_created,priority:1"`
	IsMutual  bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_likes_liker_created,priority:2;index:idx_likes_liked_created,priority:2"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

const EventSpamDetected = "spam_detected"

// SecurityEvent is an append-only abuse history entry consumed by moderation.
type SecurityEvent struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"not null;index"`
	EventType string    `gorm:"size:32;not null"`
	Score     int       `gorm:"not null"`
	Details   string    `gorm:"size:255"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Models lists every table the engine migrates.
func Models() []any {
	return []any{&User{}, &Like{}, &SecurityEvent{}}
}
