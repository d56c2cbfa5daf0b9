package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bookmarkd/bookmarkd/internal/config"
)

type (
	Model struct {
		ID        uint64    `gorm:"primarykey" json:"id"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	User struct {
		Model
		Email     string     `gorm:"unique;not null" json:"email"`
		Password  string     `gorm:"not null" json:"-"`
		FirstName *string    `json:"firstName,omitempty"`
		LastName  *string    `json:"lastName,omitempty"`
		Bookmarks []Bookmark `json:"-"`
	}

	Bookmark struct {
		Model
		Title       string  `gorm:"not null" json:"title"`
		Link        string  `gorm:"not null" json:"link"`
		Description *string `json:"description,omitempty"`
		UserID      uint64  `gorm:"not null" json:"userId"`
		User        User    `json:"-"`
	}
)

func NewGormClient(cfg *config.Config) (*gorm.DB, error) {
	newLogger := logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Info,
		Colorful:                  true,
		IgnoreRecordNotFoundError: false,
	})

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}); err != nil {
		return errors.Wrap(err, "migrate user")
	}
	if err := db.AutoMigrate(&Bookmark{}); err != nil {
		return errors.Wrap(err, "migrate bookmark")
	}
	return nil
}
