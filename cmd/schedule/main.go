package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/shiftline/emergency/pkg/game"
	"github.com/shiftline/emergency/pkg/game/types"
)

// Generates a 24-hour arrivals schedule and prints it as JSON. The output
// can be loaded into a session document to run a pregenerated day instead
// of sampling arrivals live.
func main() {
	seed := flag.Int64("seed", 0, "RNG seed (0 seeds from the current time)")
	paramsPath := flag.String("params", "", "Path to a game parameters JSON file (defaults to the standard configuration)")
	flag.Parse()

	params := types.DefaultGameParameters()
	if *paramsPath != "" {
		data, err := os.ReadFile(*paramsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read params file: %v\n", err)
			os.Exit(1)
		}
		if err := json.Unmarshal(data, params); err != nil {
			fmt.Fprintf(os.Stderr, "failed to parse params file: %v\n", err)
			os.Exit(1)
		}
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	generator := game.NewScheduleGenerator(params, rand.New(rand.NewSource(*seed)))
	schedule := generator.Schedule()

	out, err := json.MarshalIndent(schedule, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode schedule: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
