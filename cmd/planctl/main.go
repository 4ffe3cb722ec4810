// Command planctl runs the planning engine over exported planning documents
// without a server: totals, month splits, distributions and what-if scenarios.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
