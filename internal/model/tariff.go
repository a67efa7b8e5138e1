package model

import "time"

// TariffTier is one pricing bracket of the parking tariff: stays whose
// duration is below UpperBound (and above the previous tier's bound)
// are charged Fee. Upper bounds are pairwise distinct; uniqueness is
// validated when tiers are written, not when they are read.
//
// Fields:
//  ID         – primary key identifier.
//  UpperBound – duration upper limit of the bracket.
//  Fee        – fee charged for stays in the bracket.
type TariffTier struct {
	ID         uint64        // parking_tariffs.id
	UpperBound time.Duration // parking_tariffs.upper_bound_minutes
	Fee        float64       // parking_tariffs.fee
}

// Setting is a key/value configuration entry, e.g. the maximum payment
// session age. Consumers apply a declared default when a key is absent;
// a present but malformed value is a configuration error.
//
// Fields:
//  Key   – unique configuration key.
//  Value – raw string value; parsing is the consumer's concern.
type Setting struct {
	Key   string // configuration.key
	Value string // configuration.value
}
