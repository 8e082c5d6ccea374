package entity

import (
	"github.com/google/uuid"
)

type Franchise struct {
	BaseNoDelete
	Name   string           `db:"name"`
	Admins []FranchiseAdmin `db:"-"`
	Stores []Store          `db:"-"`
}

type FranchiseAdmin struct {
	UserID uuid.UUID `db:"user_id"`
	Name   string    `db:"name"`
	Email  string    `db:"email"`
}

type Store struct {
	BaseSimple
	FranchiseID uuid.UUID `db:"franchise_id"`
	Name        string    `db:"name"`
}
