package core

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const reportRule = "----------------------------------------"

// WriteStatus writes the status block for the current tick: elapsed time
// followed by one line per subsystem.
func (s *Spacecraft) WriteStatus(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n  Time: %s\n", FormatElapsed(s.elapsed))
	for _, sub := range s.subsystems {
		fmt.Fprintf(&b, "%-10s%s\n", "["+sub.Name()+"]", sub.Status())
	}
	b.WriteString(reportRule)
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}

// FormatElapsed renders whole seconds as "M min Ss".
func FormatElapsed(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("%d min %ds", secs/60, secs%60)
}
