// ottovoice-ctl controls a running ottovoice.
//
// Usage:
//
//	ottovoice-ctl listen            start a listening session
//	ottovoice-ctl run <command...>  submit a typed command
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/hammamikhairi/ottovoice/internal/ipc"
)

func main() {
	socket := pflag.StringP("socket", "s", "/tmp/ottovoice.sock", "ottovoice control socket")
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: ottovoice-ctl [--socket path] listen | run <command...>")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	args := pflag.Args()
	if len(args) == 0 {
		pflag.Usage()
		os.Exit(2)
	}

	var msg ipc.ControlMessage
	switch args[0] {
	case ipc.CmdListen:
		msg = ipc.ControlMessage{Cmd: ipc.CmdListen}
	case ipc.CmdRun:
		text := strings.TrimSpace(strings.Join(args[1:], " "))
		if text == "" {
			fmt.Fprintln(os.Stderr, "run: missing command text")
			os.Exit(2)
		}
		msg = ipc.ControlMessage{Cmd: ipc.CmdRun, Text: text}
	default:
		pflag.Usage()
		os.Exit(2)
	}

	if err := ipc.SendCommand(*socket, msg); err != nil {
		fmt.Fprintln(os.Stderr, "ottovoice not running:", err)
		os.Exit(1)
	}
}
