package main

import (
	"yota-selfcare/cmd/yota/commands"
	"yota-selfcare/lib/serviceutil"
)

func main() {
	ctx, cancel := serviceutil.SignalContext()
	defer cancel()
	commands.ExecuteContext(ctx)
}
