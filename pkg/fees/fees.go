// Package fees computes the platform's cut of a subscription transaction.
//
// Rates are expressed in basis points (hundredths of a percent, 100 bps =
// 1%) and amounts in minor currency units (cents). All arithmetic is
// integer-only so the split always conserves the original price.
package fees

import "fmt"

// Platform fee defaults applied when no settings row exists.
const (
	DefaultVerifiedFeeBps   int32 = 1500
	DefaultUnverifiedFeeBps int32 = 2500
)

// MaxBps is the upper bound of a fee rate (100%).
const MaxBps int32 = 10000

// Settings holds the platform-configured fee rates. A nil *Settings means
// no row has been written yet and defaults apply; a non-nil Settings always
// carries both rates, and 0 bps is a valid configured rate.
type Settings struct {
	VerifiedFeeBps   int32
	UnverifiedFeeBps int32
}

// Split is the result of dividing a price between platform and publisher.
type Split struct {
	ApplicationFee int64 // platform's cut, minor units
	PublisherNet   int64 // publisher's proceeds, minor units
}

// ResolveRate returns the fee rate applicable to a publisher given their
// verification flag and the current platform settings. Pure: no I/O, no
// clock. Out-of-range values are rejected when settings are written
// (PercentToBps), never here. Configured rates are taken as-is, including
// 0 bps; only an absent settings row falls back to the tier defaults.
func ResolveRate(verified bool, s *Settings) int32 {
	if s == nil {
		if verified {
			return DefaultVerifiedFeeBps
		}
		return DefaultUnverifiedFeeBps
	}
	if verified {
		return s.VerifiedFeeBps
	}
	return s.UnverifiedFeeBps
}

// ComputeSplit divides priceCents between the platform and the publisher at
// the given rate. The application fee is rounded half-up to the nearest
// minor unit; the publisher net is the remainder, so
// ApplicationFee + PublisherNet == priceCents holds for every input.
func ComputeSplit(priceCents int64, feeBps int32) Split {
	// Half-up rounding in integer arithmetic: add half the divisor before
	// truncating. feeBps is capped at 10000 so the product fits int64 for
	// any realistic price.
	fee := (priceCents*int64(feeBps) + 5000) / 10000
	return Split{
		ApplicationFee: fee,
		PublisherNet:   priceCents - fee,
	}
}

// PercentToBps converts an admin-supplied percentage in [0,100] to basis
// points, rounding to the nearest integer bps. Values outside the range are
// rejected so an out-of-range rate can never be persisted.
func PercentToBps(percent float64) (int32, error) {
	if percent < 0 || percent > 100 {
		return 0, fmt.Errorf("%w: %v", ErrPercentOutOfRange, percent)
	}
	return int32(percent*100 + 0.5), nil
}
