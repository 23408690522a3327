package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Sentinel errors shared by every store implementation.
var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("document violates a unique index")
	// ErrNoMatch means a guarded update found the document in a state the guard excludes,
	// e.g. the student is already on the roster.
	ErrNoMatch = errors.New("no document matched the update guard")
)

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}
