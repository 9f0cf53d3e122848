package wiki

import "time"

// CountryEstimate is the outcome of geolocating one anonymous editor IP.
// CountryCode is nil when the address could not be resolved.
type CountryEstimate struct {
	IP          string    `json:"ip"`
	CountryCode *string   `json:"country_code"`
	Reason      string    `json:"reason,omitempty"` // why it is unresolved
	ResolvedAt  time.Time `json:"-"`
}

// Unresolved reasons
const (
	ReasonReserved = "reserved_range"
	ReasonInvalid  = "invalid_address"
	ReasonUnknown  = "unknown_address"
	ReasonFailed   = "lookup_failed"
	ReasonTimeout  = "timed_out"
)

// Resolved reports whether a country was found
func (c CountryEstimate) Resolved() bool { return c.CountryCode != nil }

// ResolvedCountry builds a successful estimate
func ResolvedCountry(ip, code string) CountryEstimate {
	return CountryEstimate{IP: ip, CountryCode: &code}
}

// UnresolvedCountry builds an explicit unresolved estimate
func UnresolvedCountry(ip, reason string) CountryEstimate {
	return CountryEstimate{IP: ip, Reason: reason}
}

// CountryMap maps anonymous editor IPs to their estimate. Unresolved
// entries are kept rather than omitted.
type CountryMap map[string]CountryEstimate
