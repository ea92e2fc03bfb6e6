// Command fraudlens runs the market anomaly scoring server and provides a
// CLI client for its API, plus offline aggregation and scoring tools.
package main

import "github.com/secondhand-labs/fraudlens/cmd/fraudlens/cmd"

func main() {
	cmd.Execute()
}
