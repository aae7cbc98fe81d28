package store

import (
	"fmt"
	"io"

	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/schema"
)

// PrintStoreStatus prints reading store status information.
func PrintStoreStatus(w io.Writer, status schema.StoreStatus) {
	_, _ = fmt.Fprintf(w, "Store Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Readings: %d\n", status.TotalReadings)
	_, _ = fmt.Fprintf(w, "Devices: %d\n", status.DeviceCount)
	if status.TotalReadings > 0 {
		_, _ = fmt.Fprintf(w, "Last Reading ID: %d\n", status.LastReadingID)
		_, _ = fmt.Fprintf(w, "Last Entry: %s\n", status.LastEntryTime.Format(contract.DateTimeFormat))
		_, _ = fmt.Fprintf(w, "Oldest Entry: %s\n", status.OldestEntryTime.Format(contract.DateTimeFormat))
	}
	if status.SchemaVersion > 0 {
		dirty := ""
		if status.Dirty {
			dirty = " (dirty)"
		}
		_, _ = fmt.Fprintf(w, "Schema Version: %d%s\n", status.SchemaVersion, dirty)
	}
}

// PrintStateStatus prints gatekeeper state backend status information.
func PrintStateStatus(w io.Writer, status schema.StateStatus) {
	_, _ = fmt.Fprintf(w, "State Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Tracked Devices: %d\n", status.Devices)
}
