package adapter

import "context"

// NetworkController flips a client's traffic permission on the external
// network gateway. Both operations are idempotent: they first remove any
// existing address-list entry for the IP and then insert a fresh one, so no
// address is ever on both lists and repeated calls do not accumulate entries.
type NetworkController interface {
	// Grant allows the client's traffic (allow-list).
	Grant(ctx context.Context, mac, ip string) error
	// Revoke denies the client's traffic (deny-list).
	Revoke(ctx context.Context, mac, ip string) error
}
