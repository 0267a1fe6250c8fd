// Package uuid wraps id generation so services can be tested with fixed ids
package uuid

//go:generate mockgen -destination=mock/mock_uuid.go -package=mockuuid -source=uuid.go

import (
	"github.com/google/uuid"
)

// Generator produces new identifiers
type Generator interface {
	New() string
}

// GoogleUUIDGenerator implements Generator with random v4 UUIDs
type GoogleUUIDGenerator struct{}

// New generates a new UUID string
func (g *GoogleUUIDGenerator) New() string {
	return uuid.New().String()
}

// NewGoogleUUIDGenerator creates a new GoogleUUIDGenerator
func NewGoogleUUIDGenerator() *GoogleUUIDGenerator {
	return &GoogleUUIDGenerator{}
}
