package model

import "time"

// SubscriptionEntry is one buyer entitlement: access to a content
// package until ExpiresAt, or forever when ExpiresAt is nil.
type SubscriptionEntry struct {
	AccessID  string     `json:"access_id"`
	StartDate time.Time  `json:"start_date"`
	ExpiresAt *time.Time `json:"expires_at"` // nil = perpetual
}

// Perpetual reports whether the entry never expires.
func (e *SubscriptionEntry) Perpetual() bool { return e.ExpiresAt == nil }

// ExtendEntitlements returns a new entry list with access to accessID
// created or extended. The input slice is never mutated.
//
// Rules:
//   - a perpetual entry is left unchanged, never downgraded;
//   - a forever-duration purchase upgrades the entry to perpetual;
//   - extension starts from the current expiry when it lies in the
//     future, otherwise from now.
func ExtendEntitlements(entries []SubscriptionEntry, accessID string, value int, unit DurationUnit, now time.Time) []SubscriptionEntry {
	out := make([]SubscriptionEntry, len(entries))
	copy(out, entries)

	for i := range out {
		if out[i].AccessID != accessID {
			continue
		}
		if out[i].Perpetual() {
			return out
		}
		if unit == DurationForever {
			out[i].ExpiresAt = nil
			return out
		}
		base := now
		if out[i].ExpiresAt.After(now) {
			base = *out[i].ExpiresAt
		}
		exp := addDuration(base, value, unit)
		out[i].ExpiresAt = &exp
		return out
	}

	entry := SubscriptionEntry{AccessID: accessID, StartDate: now}
	if unit != DurationForever {
		exp := addDuration(now, value, unit)
		entry.ExpiresAt = &exp
	}
	return append(out, entry)
}

func addDuration(t time.Time, value int, unit DurationUnit) time.Time {
	switch unit {
	case DurationDay:
		return t.AddDate(0, 0, value)
	case DurationMonth:
		return t.AddDate(0, value, 0)
	case DurationYear:
		return t.AddDate(value, 0, 0)
	default:
		return t
	}
}
