package database

import (
	"database/sql"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// Repository reads and writes the fee engine's tables.
type Repository struct {
	DB *sql.DB
}

// NewRepository wraps db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}
