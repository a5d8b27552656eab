// internal/service/recharge_service_test.go
package service

import (
	"context"
	"testing"

	"rewardvault/internal/domain"
	"rewardvault/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRecharge_Validation(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t, 0)

	cases := []struct {
		name   string
		amount decimal.Decimal
		txnID  string
		wallet string
	}{
		{"ZeroAmount", decimal.Zero, "12345678901", "0241234567"},
		{"SubCentAmount", decimal.RequireFromString("20.005"), "12345678901", "0241234567"},
		{"ShortTransactionID", decimal.NewFromInt(50), "123456", "0241234567"},
		{"TwelveDigits", decimal.NewFromInt(50), "123456789012", "0241234567"},
		{"NonNumeric", decimal.NewFromInt(50), "1234567890a", "0241234567"},
		{"MissingWallet", decimal.NewFromInt(50), "1234567890123456", " "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.recharges.RequestRecharge(context.Background(), userID, tc.amount, tc.txnID, tc.wallet)
			assert.ErrorIs(t, err, util.ErrInvalidInput)
		})
	}
	assert.Empty(t, f.store.snapshot().recharges)
}

func TestApproveRecharge_CreditsExactlyOnce(t *testing.T) {
	f := newFixture(t)
	admin := f.seedUser(t, 0)
	userID := f.seedUser(t, 20)

	rec, err := f.recharges.RequestRecharge(context.Background(), userID, decimal.NewFromInt(50), "12345678901", "0241234567")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, rec.Status)
	assertBalance(t, f, userID, 20)

	approved, err := f.recharges.ApproveRecharge(context.Background(), admin, rec.ID, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccessful, approved.Status)
	assert.True(t, approved.PreviousBalance.Equal(decimal.NewFromInt(20)))
	assert.True(t, approved.NewBalance.Equal(decimal.NewFromInt(70)))
	assertBalance(t, f, userID, 70)

	_, err = f.recharges.ApproveRecharge(context.Background(), admin, rec.ID, decimal.Zero)
	assert.ErrorIs(t, err, util.ErrAlreadyProcessed)
	_, err = f.recharges.DeclineRecharge(context.Background(), admin, rec.ID)
	assert.ErrorIs(t, err, util.ErrAlreadyProcessed)
	assertBalance(t, f, userID, 70)

	credits := 0
	for _, e := range f.store.snapshot().entries {
		if e.Kind == domain.EntryRecharge {
			credits++
		}
	}
	assert.Equal(t, 1, credits)
}

func TestApproveRecharge_AdjustedAmount(t *testing.T) {
	f := newFixture(t)
	admin := f.seedUser(t, 0)
	userID := f.seedUser(t, 0)

	rec, err := f.recharges.RequestRecharge(context.Background(), userID, decimal.NewFromInt(50), "1234567890123456", "0241234567")
	require.NoError(t, err)

	approved, err := f.recharges.ApproveRecharge(context.Background(), admin, rec.ID, decimal.NewFromInt(40))
	require.NoError(t, err)
	assert.True(t, approved.Amount.Equal(decimal.NewFromInt(40)))
	assertBalance(t, f, userID, 40)

	_, err = f.recharges.ApproveRecharge(context.Background(), admin, rec.ID, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, util.ErrInvalidInput)
	_, err = f.recharges.ApproveRecharge(context.Background(), admin, uuid.New(), decimal.Zero)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestApproveRecharge_RejectsSubCentAdjustment(t *testing.T) {
	f := newFixture(t)
	admin := f.seedUser(t, 0)
	userID := f.seedUser(t, 0)

	rec, err := f.recharges.RequestRecharge(context.Background(), userID, decimal.NewFromInt(50), "12345678901", "0241234567")
	require.NoError(t, err)

	_, err = f.recharges.ApproveRecharge(context.Background(), admin, rec.ID, decimal.RequireFromString("49.995"))
	assert.ErrorIs(t, err, util.ErrInvalidInput)
	assert.Equal(t, domain.StatusPending, f.store.snapshot().recharges[rec.ID].Status)
	assertBalance(t, f, userID, 0)
}

func TestDeclineRecharge(t *testing.T) {
	f := newFixture(t)
	admin := f.seedUser(t, 0)
	userID := f.seedUser(t, 20)

	rec, err := f.recharges.RequestRecharge(context.Background(), userID, decimal.NewFromInt(50), "12345678901", "0241234567")
	require.NoError(t, err)

	declined, err := f.recharges.DeclineRecharge(context.Background(), admin, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, declined.Status)
	assert.Equal(t, admin, *declined.ReviewedBy)
	assertBalance(t, f, userID, 20)

	pending, total, err := f.recharges.ListRechargesByStatus(context.Background(), domain.StatusPending, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, pending)

	_, _, err = f.recharges.ListRechargesByStatus(context.Background(), domain.RecordStatus("bogus"), 10, 0)
	assert.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestRequestRecharge_BlockedUser(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t, 0)
	require.NoError(t, f.store.SetBlocked(context.Background(), f.store, userID, true))

	_, err := f.recharges.RequestRecharge(context.Background(), userID, decimal.NewFromInt(50), "12345678901", "0241234567")
	assert.ErrorIs(t, err, util.ErrUserBlocked)
}

func TestCreditUser(t *testing.T) {
	f := newFixture(t)
	admin := f.seedUser(t, 0)
	userID := f.seedUser(t, 10)

	res, err := f.recharges.CreditUser(context.Background(), admin, userID, decimal.NewFromInt(15))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.NewBalance.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, domain.EntryAdminCredit, res.Entry.Kind)
	assert.Equal(t, admin, *res.Entry.ActorID)
	assert.Equal(t, domain.StatusSuccessful, res.Record.Status)
	assertBalance(t, f, userID, 25)

	records, total, err := f.recharges.ListRecharges(context.Background(), userID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "N/A", records[0].EWalletNumber)

	_, err = f.recharges.CreditUser(context.Background(), admin, userID, decimal.Zero)
	assert.ErrorIs(t, err, util.ErrInvalidInput)
	_, err = f.recharges.CreditUser(context.Background(), admin, userID, decimal.RequireFromString("0.005"))
	assert.ErrorIs(t, err, util.ErrInvalidInput)
	_, err = f.recharges.CreditUser(context.Background(), admin, uuid.New(), decimal.NewFromInt(5))
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}
