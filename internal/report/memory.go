// Package report prints diagnostic summaries of a simulator's memory
// footprint: signal arenas (deduplicated by base buffer, so views are
// not double-counted) and accumulated probe series.
package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/kamenik/sigflow/internal/engine"
)

func Memory(w io.Writer, sim *engine.Simulator) {
	store := sim.Store()

	for _, sig := range store.Signals() {
		kind := "base"
		if sig.IsView() {
			kind = "view of " + sig.Base().Name()
		}
		fmt.Fprintf(w, "%-24s %-20s %s\n", sig.Name(), kind,
			humanize.Bytes(uint64(8*sig.Len())))
	}

	signalBytes := store.Bytes()
	probeBytes := sim.Recorder().Bytes()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "signal arenas: %s\n", humanize.Bytes(uint64(signalBytes)))
	fmt.Fprintf(w, "probe series:  %s\n", humanize.Bytes(uint64(probeBytes)))
	fmt.Fprintf(w, "total:         %s\n", humanize.Bytes(uint64(signalBytes+probeBytes)))
}
