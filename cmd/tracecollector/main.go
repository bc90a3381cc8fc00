package main

import "github.com/thirdweb-dev/tracecollector/cmd"

func main() {
	cmd.Execute()
}
