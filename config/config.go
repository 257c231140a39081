package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/intellectualintimacy/backend/internal/models"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
}

func LoadConfig() (*Config, error) {
	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
	}, nil
}

type PaystackConfig struct {
	SecretKey string
	PublicKey string
}

func LoadPaystackConfig() (*PaystackConfig, error) {
	cfg := &PaystackConfig{
		SecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		PublicKey: os.Getenv("PAYSTACK_PUBLIC_KEY"),
	}
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("PAYSTACK_SECRET_KEY is not set")
	}
	return cfg, nil
}

func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := enableUUIDExtension(db); err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Event{},
		&models.Reservation{},
		&models.ReservationNote{},
		&models.PaymentReconciliation{},
		&models.Subscriber{},
		&models.Post{},
		&models.Comment{},
		&models.Testimonial{},
		&models.Donation{},
	)
	if err != nil {
		return nil, err
	}

	seedRoles(db)
	seedAdmin(db)

	return db, nil
}

func seedRoles(db *gorm.DB) {
	roles := []models.Role{
		{Name: models.RoleAdmin},
		{Name: models.RoleEditor},
	}

	for _, role := range roles {
		var existingRole models.Role
		result := db.Where("name = ?", role.Name).First(&existingRole)
		if result.Error != nil {
			db.Create(&role)
		}
	}
}

// seedAdmin bootstraps the first admin account from the environment so the
// console is reachable on a fresh database. No-op once any user exists or
// when the variables are unset.
func seedAdmin(db *gorm.DB) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count > 0 {
		return
	}

	var role models.Role
	if err := db.Where("name = ?", models.RoleAdmin).First(&role).Error; err != nil {
		logrus.WithError(err).Warn("admin role missing, skipping admin seed")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Warn("could not hash seed admin password")
		return
	}

	admin := models.User{
		Name:     "Administrator",
		Email:    email,
		Password: string(hashed),
		RoleID:   role.ID,
	}
	if err := db.Create(&admin).Error; err != nil {
		logrus.WithError(err).Warn("could not seed admin user")
		return
	}
	logrus.WithField("email", email).Info("seeded admin user")
}
