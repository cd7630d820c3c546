// Command xlnd is the CLI entry point: it delegates entirely to
// internal/cli, which wires cobra's command tree.
package main

import "github.com/xln-finance/xln/internal/cli"

func main() {
	cli.Execute()
}
