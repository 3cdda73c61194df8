package model

// User is a captive-portal client provisioned by the registration subsystem.
// MAC and IP are captured at portal login and are what the network gateway
// keys access on.
type User struct {
	ID    string
	Email string
	MAC   string
	IP    string
}
