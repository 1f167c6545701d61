package fees

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"stash/src/types"
)

// FeeRate is charged symmetrically: the renter pays base+rate on top, the
// host gives up rate out of the base.
const FeeRate = 0.095

// FeeModel tags every charge and cancellation record so ledger consumers can
// pick the right schema for the per-party amounts.
const FeeModel = "symmetric_split_v2"

type Breakdown struct {
	BaseAmount     int64 `json:"base_amount"`
	RenterFee      int64 `json:"renter_fee"`
	HostFee        int64 `json:"host_fee"`
	AmountCharged  int64 `json:"amount_charged"`
	ApplicationFee int64 `json:"application_fee"`
	HostPayout     int64 `json:"host_payout"`
}

// Split computes the platform/host fee split for a base amount in minor
// currency units, rounding half-up.
func Split(baseMinor int64) Breakdown {
	renterFee := roundHalfUp(float64(baseMinor) * FeeRate)
	hostFee := roundHalfUp(float64(baseMinor) * FeeRate)
	return Breakdown{
		BaseAmount:     baseMinor,
		RenterFee:      renterFee,
		HostFee:        hostFee,
		AmountCharged:  baseMinor + renterFee,
		ApplicationFee: renterFee + hostFee,
		HostPayout:     baseMinor - hostFee,
	}
}

// CancellationBase returns the early-termination base amount, tiered by hours
// until the reservation starts: a week or more out is free, two days or more
// costs a quarter of one billing period, anything closer costs half.
func CancellationBase(start, now time.Time, periodPriceMinor int64) int64 {
	hoursUntil := start.Sub(now).Hours()
	switch {
	case hoursUntil >= 168:
		return 0
	case hoursUntil >= 48:
		return roundHalfUp(float64(periodPriceMinor) * 0.25)
	default:
		return roundHalfUp(float64(periodPriceMinor) * 0.50)
	}
}

// NextDueDate advances the billing cursor by one period. Monthly uses
// calendar-month addition; the end-of-month normalization AddDate performs is
// the accepted platform behavior.
func NextDueDate(from time.Time, frequency types.BillingFrequency) time.Time {
	switch frequency {
	case types.BILLING_DAILY:
		return from.AddDate(0, 0, 1)
	case types.BILLING_MONTHLY:
		return from.AddDate(0, 1, 0)
	default:
		return from.AddDate(0, 0, 7)
	}
}

// PriceMinorUnits parses a listing's decimal-as-string price ("50.00",
// "$50.00") into minor currency units.
func PriceMinorUnits(price string) (int64, error) {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(price), "$"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", price, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("invalid price %q: negative amount", price)
	}
	return roundHalfUp(f * 100), nil
}

func roundHalfUp(f float64) int64 {
	return int64(math.Floor(f + 0.5))
}
