package archon

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID extracts the calling goroutine's id from its own stack trace
// header ("goroutine 123 [running]:"). The runtime exposes no public API for
// this; parsing runtime.Stack's output is the standard workaround reached
// for anywhere goroutine identity matters outside the scheduler itself.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]

	const prefix = "goroutine "
	b = bytes.TrimPrefix(b, []byte(prefix))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
