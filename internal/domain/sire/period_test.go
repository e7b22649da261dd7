package sire_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/sire-reportes/internal/domain"
	"github.com/jhoicas/sire-reportes/internal/domain/sire"
)

func TestValidatePeriod_Valido(t *testing.T) {
	for _, p := range []string{"202512", "202401", "000000"} {
		assert.NoError(t, sire.ValidatePeriod(p), p)
	}
}

func TestValidatePeriod_Invalido(t *testing.T) {
	casos := []string{"", "2025", "2025-12", "2025120", "20251a", " 202512", "202512\n", "２０２５１２"}
	for _, p := range casos {
		err := sire.ValidatePeriod(p)
		assert.ErrorIs(t, err, domain.ErrValidation, "periodo %q debe rechazarse", p)
	}
}
