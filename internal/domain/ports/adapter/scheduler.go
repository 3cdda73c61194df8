package adapter

import "time"

// RevocationScheduler registers one deferred access revocation per user.
// Scheduling again for the same user supersedes the earlier registration, so
// a renewed purchase resets the expiry instead of stacking two revocations.
//
// The in-memory implementation loses all registrations on restart; a durable
// delayed-job store can replace it behind this same contract.
type RevocationScheduler interface {
	Schedule(userID, mac, ip string, after time.Duration)
	// Cancel reports whether a registration existed for the user.
	Cancel(userID string) bool
}
