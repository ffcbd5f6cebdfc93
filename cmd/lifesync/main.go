package main

import "github.com/work-piyush006/lifesync-ai/cmd/lifesync/cmd"

func main() {
	cmd.Execute()
}
