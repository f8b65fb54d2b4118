// Command witnessrepsim drives a population of simulated participants
// through repeated witnessed transactions and prints the resulting
// payload table for external analysis.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/kianfay/witnessrep/pkg/channel/memchannel"
	"github.com/kianfay/witnessrep/pkg/config"
	"github.com/kianfay/witnessrep/pkg/identity/memregistry"
	"github.com/kianfay/witnessrep/pkg/metrics"
	"github.com/kianfay/witnessrep/pkg/orchestrator"
	"github.com/kianfay/witnessrep/pkg/simulator"
)

func main() {
	configPath := flag.String("config", "", "path to a simulation config YAML file (required)")
	seed := flag.Int64("seed", 1, "seed for the injected honesty model")
	verbose := flag.Bool("verbose", false, "log every state-machine step to stderr")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -config is required")
		os.Exit(1)
	}

	logger := zerolog.Nop()
	if *verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	if err := run(*configPath, *seed, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, seed int64, logger zerolog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	simCfg := simulator.Config{
		NumParticipants:  cfg.NumParticipants,
		AverageProximity: cfg.AverageProximity,
		WitnessFloor:     cfg.WitnessFloor,
		Runs:             cfg.Runs,
		Reliability:      cfg.Reliability,
		LazySchedule:     cfg.LazySchedule,
		MaxWitnesses:     cfg.MaxWitnesses,
	}

	dialer := memchannel.NewDialer()
	sim := simulator.New(dialer, metrics.Default, simulator.WithLogger(logger))

	report, err := sim.Simulate(
		context.Background(),
		simCfg,
		memregistry.New(),
		orchestrator.NewDefaultHonestyModel(seed),
	)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	return writeReport(os.Stdout, report)
}

func writeReport(out *os.File, report simulator.Report) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write([]string{"run_index", "run_id", "message_index", "announcement", "sender_did", "sender_reliability", "error"}); err != nil {
		return err
	}
	for _, res := range report.Runs {
		if res.Err != nil {
			if err := w.Write([]string{strconv.Itoa(res.RunIndex), res.RunID.String(), "", "", "", "", res.Err.Error()}); err != nil {
				return err
			}
			continue
		}
		for _, row := range res.Rows {
			record := []string{
				strconv.Itoa(row.RunIndex),
				row.RunID.String(),
				strconv.Itoa(row.MessageIndex),
				row.AnnouncementAddr,
				row.SenderDID,
				strconv.FormatFloat(row.SenderReliability, 'f', -1, 64),
				"",
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
	}
	return w.Error()
}
