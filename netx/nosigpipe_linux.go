package netx

// setNoSIGPIPE is a no-op on Linux: the Go runtime already installs
// SIG_IGN for SIGPIPE on every fd except 0/1/2 (see runtime/signal_unix.go),
// so a write to a closed peer surfaces as EPIPE, never a process-killing
// signal. This mirrors the teacher's own EnableBBR split — generic
// behavior in one file, a Linux-specific override in another — except
// here Linux is the platform that needs nothing done.
func setNoSIGPIPE(fd int) {}
