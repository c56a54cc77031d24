package database

import "gorm.io/gorm"

var DB *gorm.DB

func GetDB() *gorm.DB {
	return DB
}

// SetDB replaces the global handle. Used by the worker binaries and tests.
func SetDB(db *gorm.DB) {
	DB = db
}
