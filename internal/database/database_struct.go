package database

import "gorm.io/gorm"

// Database wraps the gorm handle behind the gateway's persistence surface
type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}
