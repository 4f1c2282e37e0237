package main

import (
	"log"
	"os"

	"well-bot-be/internal/model"
	"well-bot-be/pkg/database"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: Extensions
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.Conversation{},
		&model.Message{},
		&model.Journal{},
		&model.TodoItem{},
		&model.GratitudeItem{},
		&model.Quote{},
		&model.QuoteSeen{},
		&model.MeditationVideo{},
		&model.MeditationLog{},
		&model.UserPreference{},
		&model.ActivityEvent{},
		&model.MemoryEmbedding{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: vector index
	log.Println("Step 3: Creating Indexes...")

	postMigrationSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_wb_embeddings_hnsw ON wb_embeddings USING hnsw (embedding_value vector_cosine_ops);`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	// 6. Seed catalog data
	log.Println("Step 4: Seeding quotes and meditation videos...")
	if err := seed(db); err != nil {
		log.Fatalf("Error: Seeding failed: %v", err)
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}

func seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Quote{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		quotes := []model.Quote{
			{Category: "general", Text: "The present moment is filled with joy and happiness. If you are attentive, you will see it.", Source: "Thich Nhat Hanh"},
			{Category: "general", Text: "You don't have to control your thoughts. You just have to stop letting them control you.", Source: "Dan Millman"},
			{Category: "general", Text: "Almost everything will work again if you unplug it for a few minutes, including you.", Source: "Anne Lamott"},
			{Category: "christianity", Text: "Cast all your anxiety on him because he cares for you.", Source: "1 Peter 5:7"},
			{Category: "islam", Text: "Verily, with hardship comes ease.", Source: "Quran 94:6"},
			{Category: "buddhism", Text: "Peace comes from within. Do not seek it without.", Source: "Buddha"},
			{Category: "hinduism", Text: "You have the right to work, but never to the fruit of work.", Source: "Bhagavad Gita 2:47"},
		}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&quotes).Error; err != nil {
			return err
		}
	}

	if err := db.Model(&model.MeditationVideo{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		videos := []model.MeditationVideo{
			{Title: "Three Minute Breathing Space", Uri: "media/meditation/breathing-space.mp4", DurationSeconds: 180},
			{Title: "Body Scan", Uri: "media/meditation/body-scan.mp4", DurationSeconds: 600},
			{Title: "Loving Kindness", Uri: "media/meditation/loving-kindness.mp4", DurationSeconds: 420},
		}
		if err := db.Create(&videos).Error; err != nil {
			return err
		}
	}
	return nil
}
