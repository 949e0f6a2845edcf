package store

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// InitMySQL opens the database and migrates the project table.
func InitMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Project{}); err != nil {
		return nil, err
	}
	return db, nil
}
