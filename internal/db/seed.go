package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SeedTestData resets the database and populates it with demo users and
// a few historical pairs.
//
// Behavior:
//  1. Clears existing data in every engine-owned table.
//  2. Creates 20 users spanning all genders and languages.
//  3. Creates a handful of ended pairs with message history so report
//     and stats queries have something to chew on.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(database *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"messages", "reports", "admin_logs", "referrals", "pairs", "users"} {
		if err := database.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch database.Dialector.Name() {
	case "mysql":
		database.Exec("ALTER TABLE messages AUTO_INCREMENT = 1")
		database.Exec("ALTER TABLE referrals AUTO_INCREMENT = 1")
	case "sqlite":
		database.Exec("DELETE FROM sqlite_sequence WHERE name IN ('messages', 'referrals', 'reports', 'admin_logs')")
	}

	log.Println("Cleared existing data")

	// --- Seed Users ---
	languages := []Language{LanguageEnglish, LanguageHindi, LanguageMalayalam, LanguageAny}
	genders := []Gender{GenderMale, GenderFemale, GenderOther, GenderPreferNotSay}

	for i := 1; i <= 20; i++ {
		user := User{
			ID:                 int64(1000 + i),
			Username:           fmt.Sprintf("user%d", i),
			DisplayName:        fmt.Sprintf("Stranger %d", i),
			Gender:             genders[i%len(genders)],
			LanguagePreference: languages[i%len(languages)],
			UnlockedFeatures:   FeatureSet{},
			BlockedUsers:       IDSet{},
			LastActive:         time.Now().Add(-time.Duration(r.Intn(500)) * time.Hour),
		}
		if err := database.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
	}
	log.Println("Seeded 20 users.")

	// --- Seed a few ended pairs with messages ---
	for i := 0; i < 5; i++ {
		a := int64(1001 + r.Intn(20))
		b := int64(1001 + r.Intn(20))
		if a == b {
			continue
		}
		started := time.Now().Add(-time.Duration(2+r.Intn(48)) * time.Hour)
		pair := Pair{
			PairID:        uuid.NewString(),
			UserA:         a,
			UserB:         b,
			StartedAt:     started,
			LastMessageAt: started.Add(10 * time.Minute),
			IsActive:      false,
			LanguageUsed:  LanguageEnglish,
		}
		if err := database.Create(&pair).Error; err != nil {
			return fmt.Errorf("failed to seed pair: %w", err)
		}

		for j := 0; j < 4; j++ {
			from := a
			if j%2 == 1 {
				from = b
			}
			msg := Message{
				PairID:  pair.PairID,
				FromID:  from,
				Content: fmt.Sprintf("demo message %d", j+1),
			}
			if err := database.Create(&msg).Error; err != nil {
				return fmt.Errorf("failed to seed message: %w", err)
			}
		}
	}

	return nil
}
