package pricing

import (
	"github.com/example/tiffinbox/internal/models"
)

// GST rates in percent. Delivery is taxed at the same rate as food.
const (
	FoodGSTRatePercent     = 5
	DeliveryGSTRatePercent = 5
)

// Input carries everything the breakdown computation needs. All amounts are
// whole rupees; callers validate non-negativity before calling.
type Input struct {
	CartSubtotal          int64
	BaseDeliveryFee       int64
	DiscountAmount        int64
	WalletBalance         int64
	UseWallet             bool
	FreeDeliveryThreshold *int64
	GSTEnabled            bool
}

// Breakdown is the fully itemized result. GrandTotal is what the order is
// worth; AmountToPay is what is actually collectable after the wallet offset.
type Breakdown struct {
	SubtotalBeforeGST   int64 `json:"subtotal_before_gst"`
	FoodGSTAmount       int64 `json:"food_gst_amount"`
	DeliveryGSTAmount   int64 `json:"delivery_gst_amount"`
	TotalGSTAmount      int64 `json:"total_gst_amount"`
	CGSTAmount          int64 `json:"cgst_amount"`
	SGSTAmount          int64 `json:"sgst_amount"`
	DeliveryFeeAfterGST int64 `json:"delivery_fee_after_gst"`
	DiscountAmount      int64 `json:"discount_amount"`
	GrandTotal          int64 `json:"grand_total"`
	WalletDeduction     int64 `json:"wallet_deduction"`
	AmountToPay         int64 `json:"amount_to_pay"`
}

// ComputeBreakdown maps a cart to its monetary breakdown. It is total over
// its input domain: no errors, no I/O. The checkout preview and the order
// creation path must both go through this function so the quoted and charged
// amounts can never diverge.
func ComputeBreakdown(in Input) Breakdown {
	deliveryFee := in.BaseDeliveryFee
	if in.FreeDeliveryThreshold != nil && in.CartSubtotal >= *in.FreeDeliveryThreshold {
		deliveryFee = 0
	}

	b := Breakdown{
		SubtotalBeforeGST:   in.CartSubtotal,
		DeliveryFeeAfterGST: deliveryFee,
		DiscountAmount:      in.DiscountAmount,
	}

	if in.GSTEnabled {
		b.FoodGSTAmount = in.CartSubtotal * FoodGSTRatePercent / 100
		b.DeliveryGSTAmount = deliveryFee * DeliveryGSTRatePercent / 100
		b.TotalGSTAmount = b.FoodGSTAmount + b.DeliveryGSTAmount
		// Split so the halves always sum back to the total.
		b.CGSTAmount = b.TotalGSTAmount / 2
		b.SGSTAmount = b.TotalGSTAmount - b.CGSTAmount
		b.DeliveryFeeAfterGST = deliveryFee + b.DeliveryGSTAmount
	}

	b.GrandTotal = b.SubtotalBeforeGST + b.TotalGSTAmount + b.DeliveryFeeAfterGST - b.DiscountAmount
	if b.GrandTotal < 0 {
		b.GrandTotal = 0
	}

	if in.UseWallet {
		b.WalletDeduction = in.WalletBalance
		if b.WalletDeduction > b.GrandTotal {
			b.WalletDeduction = b.GrandTotal
		}
	}
	b.AmountToPay = b.GrandTotal - b.WalletDeduction

	return b
}

// CouponDiscount returns the flat discount a coupon grants for the given cart
// subtotal, or 0 if the coupon is inactive or the cart is below its minimum.
func CouponDiscount(coupon *models.Coupon, cartSubtotal int64) int64 {
	if coupon == nil || !coupon.IsActive {
		return 0
	}
	if cartSubtotal < coupon.MinOrderValue {
		return 0
	}
	return coupon.DiscountAmount
}
