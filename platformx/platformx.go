// Package platformx contains platform specific code.
package platformx

// WarnIfNotFullySupported emits a warning if the platform does not support
// the TCP_INFO extraction tcpinfox relies on for the download and upload
// measurement messages (spec §4.4/§6): the client still runs, but the
// upload measurement messages it sends carry no kernel TCPInfo fields.
func WarnIfNotFullySupported() {
	maybeEmitWarning()
}
