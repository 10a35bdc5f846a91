package envmon

import "log/slog"

// HostnameChangeDetector re-publishes the hostname when the live value
// drifts from the cached one. Set/publish failures propagate to the
// caller; there is no retry here.
type HostnameChangeDetector struct {
	Hostnames HostnameManager
}

// Tick compares the live hostname against st and pushes a change.
func (h *HostnameChangeDetector) Tick(st *monitorState) error {
	current, err := h.Hostnames.Hostname()
	if err != nil {
		return err
	}
	if current == st.hostname {
		return nil
	}

	slog.Info("Hostname change detected.", "from", st.hostname, "to", current)
	if err := h.Hostnames.SetHostname(current); err != nil {
		return err
	}
	if err := h.Hostnames.PublishHostname(current); err != nil {
		return err
	}
	st.hostname = current
	return nil
}
