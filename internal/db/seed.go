package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// London, the centre of the demo population.
const (
	seedLat = 51.5074
	seedLon = -0.1278

	seedRandSeed = 20240601
)

// SeedTestData resets the database and populates it with demo users and likes.
//
// Behavior:
//  1. Clears existing data in `security_events`, `likes` and `users`.
//  2. Creates 20 users (10 male, 10 female) with hashed passwords, birth
//     dates, verification attributes and locations within ~30km of London.
//  3. Generates opposite-gender likes; every 3rd pair is made mutual with both
//     rows flagged, the same shape the ledger produces.
//
// Compatible with both MySQL and SQLite (AUTO_INCREMENT reset skipped for SQLite).
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(seedRandSeed))
	now := time.Now().UTC().Truncate(time.Second)

	// --- Fresh start ---
	for _, table := range []string{"security_events", "likes", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Reset auto-increment sequences
	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE likes AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name IN ('likes', 'users', 'security_events')")
	}

	log.Println("Cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// --- Seed Users (10 male, 10 female) ---
	users := make([]User, 0, 20)
	for i := 1; i <= 20; i++ {
		gender := GenderMale
		if i > 10 {
			gender = GenderFemale
		}

		birth := now.AddDate(-(20 + r.Intn(20)), -r.Intn(12), -r.Intn(28))
		lat := seedLat + (r.Float64()-0.5)*0.5
		lon := seedLon + (r.Float64()-0.5)*0.8
		lastActive := now.Add(-time.Duration(r.Intn(500)) * time.Hour)

		sub := SubscriptionFree
		if i%5 == 0 {
			sub = SubscriptionPremium
		}

		users = append(users, User{
			Username:            fmt.Sprintf("user%d", i),
			Email:               fmt.Sprintf("user%d@example.com", i),
			PasswordHash:        string(hash),
			Gender:              gender,
			BirthDate:           &birth,
			IsActive:            i != 7,
			IsVerified:          i%3 == 0,
			PhoneVerified:       i%2 == 0,
			EmailVerified:       true,
			SubscriptionType:    sub,
			ProfileCompleteness: 40 + r.Intn(61),
			Latitude:            &lat,
			Longitude:           &lon,
			LocationSharing:     i%4 != 0,
			LastActivityAt:      &lastActive,
			CreatedAt:           now.AddDate(0, 0, -r.Intn(120)),
		})
	}
	if err := db.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	log.Printf("Seeded %d users.", len(users))

	// --- Seed Likes ---
	counter := 0
	for _, actor := range users {
		for j := 0; j < 6; j++ {
			recipient := users[r.Intn(len(users))]
			if actor.ID == recipient.ID || actor.Gender == recipient.Gender {
				continue
			}

			createdAt := now.Add(-time.Duration(2+r.Intn(200)) * time.Hour)
			forceMutual := counter%3 == 0

			if err := seedPair(db, actor.ID, recipient.ID, createdAt, forceMutual); err != nil {
				return fmt.Errorf("failed to seed like: %w", err)
			}

			counter++
		}
	}
	log.Printf("Seeded %d like pairs.", counter)

	return nil
}

// seedPair inserts liker → liked (and liked → liker when forceMutual) and keeps
// the pair consistent: if both rows exist afterwards, both are flagged mutual.
func seedPair(db *gorm.DB, likerID, likedID uint64, createdAt time.Time, forceMutual bool) error {
	return db.Transaction(func(tx *gorm.DB) error {
		rows := []Like{{LikerID: likerID, LikedID: likedID, CreatedAt: createdAt, UpdatedAt: createdAt}}
		if forceMutual {
			earlier := createdAt.Add(-time.Hour)
			rows = append(rows, Like{LikerID: likedID, LikedID: likerID, CreatedAt: earlier, UpdatedAt: earlier})
		}
		for i := range rows {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows[i]).Error; err != nil {
				return err
			}
		}

		var n int64
		if err := tx.Model(&Like{}).
			Where("(liker_id = ? AND liked_id = ?) OR (liker_id = ? AND liked_id = ?)", likerID, likedID, likedID, likerID).
			Count(&n).Error; err != nil {
			return err
		}
		if n < 2 {
			return nil
		}
		return tx.Model(&Like{}).
			Where("(liker_id = ? AND liked_id = ?) OR (liker_id = ? AND liked_id = ?)", likerID, likedID, likedID, likerID).
			Updates(map[string]any{"is_mutual": true, "updated_at": createdAt}).Error
	})
}

// SeedMinimalTestData inserts a small deterministic dataset anchored at now.
//
// Dataset:
//   - user1 male, user2 female, user3 female, user4 male (inactive)
//   - user1 ↔ user2 mutual
//   - user3 → user1 one-way (pending for user1)
func SeedMinimalTestData(db *gorm.DB, now time.Time) error {
	if err := db.Exec("DELETE FROM likes").Error; err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM users").Error; err != nil {
		return err
	}

	now = now.UTC().Truncate(time.Millisecond)
	old := now.AddDate(0, -6, 0)
	birth := time.Date(now.Year()-30, time.January, 15, 0, 0, 0, 0, time.UTC)
	lat, lon := seedLat, seedLon

	users := []User{
		{ID: 1, Username: "user1", Email: "u1@test.com", PasswordHash: "x", Gender: GenderMale, IsActive: true, BirthDate: &birth, Latitude: &lat, Longitude: &lon, LocationSharing: true, SubscriptionType: SubscriptionFree, CreatedAt: old},
		{ID: 2, Username: "user2", Email: "u2@test.com", PasswordHash: "x", Gender: GenderFemale, IsActive: true, BirthDate: &birth, SubscriptionType: SubscriptionFree, CreatedAt: old},
		{ID: 3, Username: "user3", Email: "u3@test.com", PasswordHash: "x", Gender: GenderFemale, IsActive: true, BirthDate: &birth, SubscriptionType: SubscriptionPremium, CreatedAt: old},
		{ID: 4, Username: "user4", Email: "u4@test.com", PasswordHash: "x", Gender: GenderMale, IsActive: false, BirthDate: &birth, SubscriptionType: SubscriptionFree, CreatedAt: old},
	}
	if err := db.Create(&users).Error; err != nil {
		return err
	}

	likes := []Like{
		{LikerID: 1, LikedID: 2, IsMutual: true, CreatedAt: now.Add(-5 * time.Hour), UpdatedAt: now.Add(-4 * time.Hour)},
		{LikerID: 2, LikedID: 1, IsMutual: true, CreatedAt: now.Add(-4 * time.Hour), UpdatedAt: now.Add(-4 * time.Hour)},
		{LikerID: 3, LikedID: 1, IsMutual: false, CreatedAt: now.Add(-3 * time.Hour), UpdatedAt: now.Add(-3 * time.Hour)},
	}
	return db.Create(&likes).Error
}
