package dispatch

// Notifier fires an OS desktop notification for an inbound message,
// per spec §4.F step 8. It is an external collaborator (spec §1): the
// daemon only decides whether to call it, never how notifications are
// rendered on the host desktop.
type Notifier interface {
	Notify(onionID, text string) error
}

// NoopNotifier discards every notification; useful for headless
// deployments and tests.
type NoopNotifier struct{}

func (NoopNotifier) Notify(string, string) error { return nil }
