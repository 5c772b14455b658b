package main

import (
	"github.com/knxdoc-io/knxdoc-exporter/cmd/knxdoc-exporter/cli"
)

func main() {
	cli.InitAndExecute()
}
