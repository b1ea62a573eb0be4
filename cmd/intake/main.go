// Command intake runs a conversational candidate intake interview.
package main

import "github.com/berth-dev/intake/internal/cli"

func main() {
	cli.Execute()
}
