package surface

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"kave/internal/logging"
)

const (
	notificationsBus   = "org.freedesktop.Notifications"
	notificationsPath  = dbus.ObjectPath("/org/freedesktop/Notifications")
	notificationsIface = "org.freedesktop.Notifications"
)

// caller is the part of dbus.BusObject the notifier uses.
type caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Notifier shows the current string as a desktop notification. Each Show
// replaces the previous notification in place; Hide closes it.
type Notifier struct {
	conn    *dbus.Conn
	obj     caller
	appName string
	logger  *logging.Logger

	mu sync.Mutex
	id uint32
}

// NewNotifier connects to the session bus.
func NewNotifier(appName string, logger *logging.Logger) (*Notifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	n := newNotifier(conn.Object(notificationsBus, notificationsPath), appName, logger)
	n.conn = conn
	return n, nil
}

func newNotifier(obj caller, appName string, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Default().WithComponent("surface")
	}
	return &Notifier{obj: obj, appName: appName, logger: logger}
}

// Show posts or replaces the notification.
func (n *Notifier) Show(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	hints := map[string]dbus.Variant{
		"transient": dbus.MakeVariant(true),
		"urgency":   dbus.MakeVariant(byte(0)),
	}
	call := n.obj.Call(notificationsIface+".Notify", 0,
		n.appName, // app_name
		n.id,      // replaces_id
		"",        // app_icon
		text,      // summary
		"",        // body
		[]string{},
		hints,
		int32(-1), // expire_timeout: server default
	)

	var id uint32
	if err := call.Store(&id); err != nil {
		n.logger.Warn("notify failed", "error", err)
		return
	}
	n.id = id
}

// Hide closes the notification if one is open.
func (n *Notifier) Hide() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.id == 0 {
		return
	}
	if err := n.obj.Call(notificationsIface+".CloseNotification", 0, n.id).Err; err != nil {
		n.logger.Warn("close notification failed", "error", err)
	}
	n.id = 0
}

// Close closes the bus connection.
func (n *Notifier) Close() error {
	n.Hide()
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
