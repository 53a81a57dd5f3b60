package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBandForScore(t *testing.T) {
	assert.Equal(t, ScoreBandHot, BandForScore(80))
	assert.Equal(t, ScoreBandHot, BandForScore(100))
	assert.Equal(t, ScoreBandWarm, BandForScore(60))
	assert.Equal(t, ScoreBandWarm, BandForScore(79))
	assert.Equal(t, ScoreBandCold, BandForScore(59))
	assert.Equal(t, ScoreBandCold, BandForScore(0))
}

func TestLeadStatusValid(t *testing.T) {
	assert.True(t, LeadStatusNurture.Valid())
	assert.False(t, LeadStatus("all").Valid())
	assert.False(t, LeadStatus("").Valid())
}

func TestPropertyStatusValid(t *testing.T) {
	assert.True(t, PropertyStatusOffMarket.Valid())
	assert.False(t, PropertyStatus("rented").Valid())
}

func TestTransactionStatusActive(t *testing.T) {
	assert.True(t, TransactionStatusUnderContract.Active())
	assert.True(t, TransactionStatusLead.Active())
	assert.False(t, TransactionStatusClosed.Active())
	assert.False(t, TransactionStatusCancelled.Active())
}
