// Package remote provides thin typed clients over the two HTTP services the
// daemon talks to: the R2 worker (object storage behind a custom multipart
// contract) and the queue manager (render job bookkeeping).
package remote

// UserData is the per-request, per-transfer identity attached at Transfer
// creation time: which farm to talk to and which tokens authenticate the
// call. It is immutable once a Transfer is created and is never logged in
// full (only FarmHost, never the tokens).
type UserData struct {
	FarmHost    string
	APIToken    string
	QMAuthToken string
}

// String intentionally omits the tokens.
func (u UserData) String() string {
	return "UserData{FarmHost: " + u.FarmHost + "}"
}
