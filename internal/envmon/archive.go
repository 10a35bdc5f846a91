package envmon

import (
	"context"
	"time"
)

// archiveInterval gates cache archiving to once per day of wall-clock
// time, independent of cache content changes.
const archiveInterval = 24 * time.Hour

// ArchiveScheduler fires the cache purge and snapshot once the archive
// interval has elapsed. Archiver failures propagate to the caller.
type ArchiveScheduler struct {
	Archiver Archiver
	Clock    Clock

	// Interval overrides archiveInterval when non-zero (tests).
	Interval time.Duration
}

func (a *ArchiveScheduler) interval() time.Duration {
	if a.Interval != 0 {
		return a.Interval
	}
	return archiveInterval
}

// Tick runs purge+archive when due. A zero lastArchive means archiving
// never ran and is eligible immediately. The run time is recorded on
// success so the gate re-arms for a full interval.
func (a *ArchiveScheduler) Tick(ctx context.Context, st *monitorState) error {
	now := a.Clock.Now()
	if !st.lastArchive.IsZero() && now.Sub(st.lastArchive) < a.interval() {
		return nil
	}

	if err := a.Archiver.Purge(ctx); err != nil {
		return err
	}
	if err := a.Archiver.Archive(ctx, now); err != nil {
		return err
	}
	st.lastArchive = now
	return nil
}
