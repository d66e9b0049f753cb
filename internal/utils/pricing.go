package utils

import (
	"math"
	"math/big"
	"time"

	"nftrental-backend/internal/domain"
)

const (
	// BasisPointsDenominator is 100% expressed in basis points
	BasisPointsDenominator = 10000
	day                    = 24 * time.Hour
)

// RentalCost is the fee breakdown of one rental. All amounts are minor units
// of the settlement token.
type RentalCost struct {
	BasePrice     int64 `json:"base_price"`
	PlatformFee   int64 `json:"platform_fee"`
	OwnerEarnings int64 `json:"owner_earnings"`
	TotalPrice    int64 `json:"total_price"`
}

// SettlementPolicy holds the configured financial rules applied at return.
type SettlementPolicy struct {
	LatePenaltyMultiplierBps int64
}

// ReturnOutcome is the pure result of settling a rental at a given time.
type ReturnOutcome struct {
	OnTime      bool
	DaysLate    int32
	Penalty     int64
	Refund      int64
	Outstanding int64
	Transfers   []domain.Transfer
}

// CalculateRentalCost computes basePrice = dailyPrice * rentalDays and splits it
// into platform fee and owner earnings. The fee is the only rounded value
// (half up, once); owner earnings take the remainder so the split is exact.
func CalculateRentalCost(dailyPrice int64, rentalDays int32, feeBasisPoints int32) (RentalCost, error) {
	if dailyPrice <= 0 {
		return RentalCost{}, domain.NewValidationError("daily_price", "must be greater than zero")
	}
	if rentalDays <= 0 {
		return RentalCost{}, domain.NewValidationError("rental_days", "must be greater than zero")
	}
	if feeBasisPoints < 0 || feeBasisPoints > BasisPointsDenominator {
		return RentalCost{}, domain.NewValidationError("fee_basis_points", "must be between 0 and 10000")
	}
	if dailyPrice > math.MaxInt64/int64(rentalDays) {
		return RentalCost{}, domain.NewValidationError("daily_price", "total price overflows")
	}

	base := dailyPrice * int64(rentalDays)
	fee := MulDivRoundHalfUp(base, int64(feeBasisPoints), BasisPointsDenominator)

	return RentalCost{
		BasePrice:     base,
		PlatformFee:   fee,
		OwnerEarnings: base - fee,
		TotalPrice:    base,
	}, nil
}

// MulDivRoundHalfUp returns a*b/d rounded half up, computed exactly. Inputs
// must be non-negative and d positive. Results beyond int64 saturate.
func MulDivRoundHalfUp(a, b, d int64) int64 {
	prod := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	q, r := new(big.Int).QuoRem(prod, big.NewInt(d), new(big.Int))
	if new(big.Int).Lsh(r, 1).Cmp(big.NewInt(d)) >= 0 {
		q.Add(q, big.NewInt(1))
	}
	if !q.IsInt64() {
		return math.MaxInt64
	}
	return q.Int64()
}

// EndDate returns start plus rentalDays whole days.
func EndDate(start time.Time, rentalDays int32) time.Time {
	return start.Add(time.Duration(rentalDays) * day)
}

// DaysLate counts started days past endDate. Returning at or before endDate
// is zero; one second late is one day.
func DaysLate(endDate, returnedAt time.Time) int32 {
	if !returnedAt.After(endDate) {
		return 0
	}
	late := returnedAt.Sub(endDate)
	days := late / day
	if late%day != 0 {
		days++
	}
	if days > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(days)
}

// LatePenalty is dailyPrice * daysLate * multiplier, capped at totalPrice.
func LatePenalty(dailyPrice int64, daysLate int32, multiplierBps int64, totalPrice int64) int64 {
	if daysLate <= 0 || multiplierBps <= 0 {
		return 0
	}
	raw := new(big.Int).Mul(big.NewInt(dailyPrice), big.NewInt(int64(daysLate)))
	if !raw.IsInt64() {
		return totalPrice
	}
	penalty := MulDivRoundHalfUp(raw.Int64(), multiplierBps, BasisPointsDenominator)
	if penalty > totalPrice {
		return totalPrice
	}
	return penalty
}

// SettleReturn computes the return outcome for rental at returnedAt.
//
// The escrowed deposit pays the platform fee first, then the owner's earnings
// plus any late penalty; what is left is refunded to the renter. Anything the
// deposit cannot cover is charged to the renter and reported as outstanding.
func SettleReturn(rental *domain.Rental, returnedAt time.Time, policy SettlementPolicy) ReturnOutcome {
	daysLate := DaysLate(rental.EndDate, returnedAt)
	out := ReturnOutcome{
		OnTime:   daysLate == 0,
		DaysLate: daysLate,
	}
	if !out.OnTime {
		out.Penalty = LatePenalty(rental.DailyPrice, daysLate, policy.LatePenaltyMultiplierBps, rental.TotalPrice)
	}

	available := rental.Deposit
	platformPaid := min(available, rental.PlatformFee)
	available -= platformPaid

	ownerDue := rental.OwnerEarnings + out.Penalty
	ownerPaid := min(available, ownerDue)
	available -= ownerPaid

	out.Refund = available
	platformShort := rental.PlatformFee - platformPaid
	ownerShort := ownerDue - ownerPaid
	out.Outstanding = platformShort + ownerShort

	add := func(from, to string, amount int64, purpose string) {
		if amount > 0 {
			out.Transfers = append(out.Transfers, domain.Transfer{From: from, To: to, Amount: amount, Purpose: purpose})
		}
	}
	add(domain.AccountEscrow, domain.AccountPlatform, platformPaid, "platform_fee")
	add(domain.AccountEscrow, rental.Owner, ownerPaid, "owner_payout")
	add(domain.AccountEscrow, rental.Renter, out.Refund, "refund")
	add(rental.Renter, domain.AccountPlatform, platformShort, "platform_fee_due")
	add(rental.Renter, rental.Owner, ownerShort, "owner_payout_due")
	return out
}
