// Command tinyframe loads tabular files and answers inspection, filtering,
// sorting and aggregation questions about them.
//
// Usage:
//
//	tinyframe inspect students.csv
//	tinyframe query students.csv --where gender:eq:female --where 'mark:gt:mean(mark)' --sort mark --desc
//	tinyframe counts students.csv gender
//	tinyframe agg workouts.csv calories mean
//	tinyframe convert students.xlsx students.json --pretty
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
