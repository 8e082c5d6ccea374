package utils

import (
	"errors"

	"github.com/google/uuid"
)

var ErrNilUUID = errors.New("nil uuid")

// ParseUUID parses an id taken from a URL or body, rejecting the nil UUID.
func ParseUUID(uuidStr string) (uuid.UUID, error) {
	id, err := uuid.Parse(uuidStr)
	if err != nil {
		return uuid.Nil, err
	}
	if id == uuid.Nil {
		return uuid.Nil, ErrNilUUID
	}
	return id, nil
}
