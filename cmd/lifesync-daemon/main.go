package main

import "github.com/work-piyush006/lifesync-ai/cmd/lifesync-daemon/cmd"

func main() {
	cmd.Execute()
}
