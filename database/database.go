package database

import (
	"checkin/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(dsn string) error {
	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
		// Surfaces the (user_id, date) unique-index violation as
		// gorm.ErrDuplicatedKey, which backs the check-in race.
		TranslateError: true,
	})
	if err != nil {
		return err
	}

	// Auto migrate the schema
	return DB.AutoMigrate(&models.User{}, &models.AttendanceRecord{})
}

func GetDB() *gorm.DB {
	return DB
}
