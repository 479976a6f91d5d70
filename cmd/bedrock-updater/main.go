package main

import "github.com/rgigli/bedrock-server-updater/cmd/bedrock-updater/cmd"

func main() {
	cmd.Execute()
}
