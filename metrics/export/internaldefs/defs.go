package internaldefs

import (
	"strconv"
	"strings"

	"github.com/MrEthical07/sessauth"
)

// BucketCount is the number of histogram buckets including +Inf.
const BucketCount = len(sessauth.HashLatencyBuckets) + 1

type CounterDef struct {
	ID   sessauth.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   sessauth.MetricID
	Name string
	Help string
}

// AuditDroppedName is exported by every exporter next to the engine counters.
const AuditDroppedName = "sessauth_audit_dropped_total"

var CounterDefs = []CounterDef{
	{ID: sessauth.MetricRegisterSuccess, Name: "sessauth_register_success_total", Help: "Successful registrations."},
	{ID: sessauth.MetricRegisterFailure, Name: "sessauth_register_failure_total", Help: "Rejected or failed registrations."},
	{ID: sessauth.MetricLoginSuccess, Name: "sessauth_login_success_total", Help: "Successful logins."},
	{ID: sessauth.MetricLoginFailure, Name: "sessauth_login_failure_total", Help: "Failed logins."},
	{ID: sessauth.MetricLoginUnknownUser, Name: "sessauth_login_unknown_user_total", Help: "Logins for an unregistered email."},
	{ID: sessauth.MetricAuthAllowed, Name: "sessauth_auth_allowed_total", Help: "Requests with a valid session."},
	{ID: sessauth.MetricAuthDeniedNoToken, Name: "sessauth_auth_denied_no_token_total", Help: "Requests without a session cookie."},
	{ID: sessauth.MetricAuthDeniedMalformed, Name: "sessauth_auth_denied_malformed_total", Help: "Requests with an unparseable session token."},
	{ID: sessauth.MetricAuthDeniedTampered, Name: "sessauth_auth_denied_tampered_total", Help: "Requests with a bad token signature."},
	{ID: sessauth.MetricAuthDeniedExpired, Name: "sessauth_auth_denied_expired_total", Help: "Requests with an expired session token."},
	{ID: sessauth.MetricLogout, Name: "sessauth_logout_total", Help: "Logouts."},
	{ID: sessauth.MetricPasswordRehash, Name: "sessauth_password_rehash_total", Help: "Password hashes upgraded on login."},
}

var HistogramDefs = []HistogramDef{
	{ID: sessauth.MetricHashLatency, Name: "sessauth_password_hash_seconds", Help: "Password hash and verify latency."},
}

// HistogramBounds are the finite upper bounds in seconds.
var HistogramBounds = func() []float64 {
	out := make([]float64, len(sessauth.HashLatencyBuckets))
	for i, d := range sessauth.HashLatencyBuckets {
		out[i] = d.Seconds()
	}
	return out
}()

// HistogramBoundSuffix names each bucket, +Inf last, for exporters without
// native histogram support ("0_01", ..., "1", "inf").
var HistogramBoundSuffix = func() []string {
	out := make([]string, 0, BucketCount)
	for _, b := range HistogramBounds {
		out = append(out, strings.ReplaceAll(strconv.FormatFloat(b, 'f', -1, 64), ".", "_"))
	}
	return append(out, "inf")
}()

// NormalizeBuckets pads or truncates raw to BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	copy(out[:], raw)
	return out
}

func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
