package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/tiffinbox/internal/models"
)

func int64Ptr(v int64) *int64 { return &v }

func TestComputeBreakdown_GSTScenario(t *testing.T) {
	// subtotal 500, delivery 40, 5% on both.
	b := ComputeBreakdown(Input{
		CartSubtotal:    500,
		BaseDeliveryFee: 40,
		GSTEnabled:      true,
	})

	assert.Equal(t, int64(25), b.FoodGSTAmount)
	assert.Equal(t, int64(2), b.DeliveryGSTAmount)
	assert.Equal(t, int64(27), b.TotalGSTAmount)
	assert.Equal(t, int64(42), b.DeliveryFeeAfterGST)
	assert.Equal(t, int64(569), b.GrandTotal)
	assert.Equal(t, int64(569), b.AmountToPay)
}

func TestComputeBreakdown_FreeDeliveryThreshold(t *testing.T) {
	b := ComputeBreakdown(Input{
		CartSubtotal:          500,
		BaseDeliveryFee:       40,
		FreeDeliveryThreshold: int64Ptr(500),
		GSTEnabled:            true,
	})

	assert.Equal(t, int64(0), b.DeliveryFeeAfterGST)
	assert.Equal(t, int64(0), b.DeliveryGSTAmount)
	assert.Equal(t, int64(525), b.GrandTotal)

	// Below the threshold the fee applies again.
	b = ComputeBreakdown(Input{
		CartSubtotal:          499,
		BaseDeliveryFee:       40,
		FreeDeliveryThreshold: int64Ptr(500),
		GSTEnabled:            true,
	})
	assert.Equal(t, int64(42), b.DeliveryFeeAfterGST)
}

func TestComputeBreakdown_WalletOffset(t *testing.T) {
	b := ComputeBreakdown(Input{
		CartSubtotal:    500,
		BaseDeliveryFee: 40,
		WalletBalance:   1000,
		UseWallet:       true,
		GSTEnabled:      true,
	})

	assert.Equal(t, int64(569), b.GrandTotal)
	assert.Equal(t, int64(569), b.WalletDeduction)
	assert.Equal(t, int64(0), b.AmountToPay)

	// Wallet smaller than the total covers only part of it.
	b = ComputeBreakdown(Input{
		CartSubtotal:    500,
		BaseDeliveryFee: 40,
		WalletBalance:   100,
		UseWallet:       true,
		GSTEnabled:      true,
	})
	assert.Equal(t, int64(100), b.WalletDeduction)
	assert.Equal(t, int64(469), b.AmountToPay)

	// UseWallet false ignores the balance entirely.
	b = ComputeBreakdown(Input{
		CartSubtotal:    500,
		BaseDeliveryFee: 40,
		WalletBalance:   1000,
		GSTEnabled:      true,
	})
	assert.Equal(t, int64(0), b.WalletDeduction)
	assert.Equal(t, int64(569), b.AmountToPay)
}

func TestComputeBreakdown_GSTDisabled(t *testing.T) {
	b := ComputeBreakdown(Input{
		CartSubtotal:    500,
		BaseDeliveryFee: 40,
	})

	assert.Equal(t, int64(0), b.TotalGSTAmount)
	assert.Equal(t, int64(0), b.CGSTAmount)
	assert.Equal(t, int64(0), b.SGSTAmount)
	assert.Equal(t, int64(40), b.DeliveryFeeAfterGST)
	assert.Equal(t, int64(540), b.GrandTotal)
}

func TestComputeBreakdown_DiscountClampsAtZero(t *testing.T) {
	b := ComputeBreakdown(Input{
		CartSubtotal:    100,
		BaseDeliveryFee: 0,
		DiscountAmount:  500,
		GSTEnabled:      true,
	})

	assert.Equal(t, int64(0), b.GrandTotal)
	assert.Equal(t, int64(0), b.AmountToPay)
}

func TestComputeBreakdown_Identities(t *testing.T) {
	cases := []Input{
		{CartSubtotal: 0, BaseDeliveryFee: 0, GSTEnabled: true},
		{CartSubtotal: 1, BaseDeliveryFee: 1, GSTEnabled: true},
		{CartSubtotal: 123, BaseDeliveryFee: 37, DiscountAmount: 50, GSTEnabled: true},
		{CartSubtotal: 999, BaseDeliveryFee: 55, DiscountAmount: 10, WalletBalance: 400, UseWallet: true, GSTEnabled: true},
		{CartSubtotal: 2500, BaseDeliveryFee: 60, FreeDeliveryThreshold: int64Ptr(1000), GSTEnabled: true},
		{CartSubtotal: 750, BaseDeliveryFee: 45, DiscountAmount: 2000, WalletBalance: 10, UseWallet: true, GSTEnabled: true},
		{CartSubtotal: 333, BaseDeliveryFee: 21, GSTEnabled: false, WalletBalance: 100, UseWallet: true},
	}

	for _, in := range cases {
		b := ComputeBreakdown(in)

		// Tax identity.
		assert.Equal(t, b.TotalGSTAmount, b.CGSTAmount+b.SGSTAmount)
		assert.Equal(t, b.TotalGSTAmount, b.FoodGSTAmount+b.DeliveryGSTAmount)

		// Grand total identity with clamp.
		want := b.SubtotalBeforeGST + b.TotalGSTAmount + b.DeliveryFeeAfterGST - b.DiscountAmount
		if want < 0 {
			want = 0
		}
		assert.Equal(t, want, b.GrandTotal)

		// Wallet bound.
		if in.UseWallet {
			wantDeduction := in.WalletBalance
			if wantDeduction > b.GrandTotal {
				wantDeduction = b.GrandTotal
			}
			assert.Equal(t, wantDeduction, b.WalletDeduction)
		} else {
			assert.Zero(t, b.WalletDeduction)
		}
		assert.Equal(t, b.GrandTotal-b.WalletDeduction, b.AmountToPay)
		assert.GreaterOrEqual(t, b.AmountToPay, int64(0))
	}
}

func TestCouponDiscount(t *testing.T) {
	coupon := &models.Coupon{
		Code:           "TIFFIN50",
		DiscountAmount: 50,
		MinOrderValue:  300,
		IsActive:       true,
	}

	assert.Equal(t, int64(50), CouponDiscount(coupon, 300))
	assert.Equal(t, int64(50), CouponDiscount(coupon, 1000))
	assert.Equal(t, int64(0), CouponDiscount(coupon, 299))

	coupon.IsActive = false
	assert.Equal(t, int64(0), CouponDiscount(coupon, 1000))

	assert.Equal(t, int64(0), CouponDiscount(nil, 1000))
}
