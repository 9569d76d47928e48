package realtime

// Named realtime streams.
const (
	StreamNotifications = "notifications"
)

// MemberStreams are the streams every authenticated member may subscribe to.
var MemberStreams = map[string]struct{}{
	StreamNotifications: {},
}
