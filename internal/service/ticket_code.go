package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// ticketCodeBytes 16 bytes = 128 bits
const ticketCodeBytes = 16

type TicketCodeGenerator interface {
	Generate() (string, error)
}

type RandomTicketCodeGenerator struct{}

func NewTicketCodeGenerator() TicketCodeGenerator {
	return RandomTicketCodeGenerator{}
}

func (RandomTicketCodeGenerator) Generate() (string, error) {
	buf := make([]byte, ticketCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate ticket code: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
