package log

import (
	"io"
	"os"

	hclog "github.com/hashicorp/go-hclog"
)

func EnableDebug() {
	if str := os.Getenv("TRACE"); str != "" {
		L.SetLevel(hclog.Trace)
	} else {
		L.SetLevel(hclog.Debug)
	}
}

// Redirect rebuilds L on top of w. The host binary uses it to move logging off
// the terminal the kernel draws on.
func Redirect(w io.Writer) {
	level := L.GetLevel()

	L = hclog.New(&hclog.LoggerOptions{
		Name:   "llos",
		Output: w,
		Level:  level,
	})
}
