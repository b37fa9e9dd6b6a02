package verify

import "testing"

// Must fails tb immediately if Audit finds any violation.
func Must(tb testing.TB, a Inspector, opts Options) *Report {
	tb.Helper()
	r := Audit(a, opts)
	if !r.OK() {
		tb.Fatalf("arena audit failed: %s", r)
	}
	return r
}

// Cleanup audits a when tb finishes, expecting every block released. A
// non-nil ledger is cross-checked as well and must be empty. Register it
// after any cleanup that closes a, so it runs first.
func Cleanup(tb testing.TB, a Inspector, ledger *Ledger) {
	tb.Helper()
	tb.Cleanup(func() {
		r := Audit(a, Options{ExpectAllReleased: true, Ledger: ledger})
		if !r.OK() {
			tb.Errorf("arena audit at teardown failed: %s", r)
		}
	})
}
