package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/QuangTung97/heappool"
	"github.com/QuangTung97/heappool/heap"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"
)

func main() {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage: "path to a YAML config file. Defaults to " +
			"$HEAPPOOL_CONFIG_FILE",
	}

	app := cli.App{
		Name:  "heappool",
		Usage: "drive and inspect a suballocating heap pool",
		Commands: []*cli.Command{{
			Name:  "simulate",
			Usage: "run a random allocate/free workload and print pool stats",
			Flags: []cli.Flag{
				configFlag,
				&cli.IntFlag{
					Name:  "ops",
					Usage: "number of allocate/free operations",
					Value: 10000,
				},
				&cli.Int64Flag{
					Name:  "seed",
					Usage: "random seed for the workload",
					Value: 1,
				},
				&cli.Uint64Flag{
					Name:  "max-size",
					Usage: "largest allocation in bytes",
					Value: 1 << 20,
				},
				&cli.Uint64Flag{
					Name: "limit",
					Usage: "memory budget in bytes. Zero uses the system " +
						"memory size",
				},
				&cli.BoolFlag{
					Name:  "in-memory",
					Usage: "account heaps without mapping memory",
				},
				&cli.BoolFlag{
					Name:    "verbose",
					Aliases: []string{"v"},
					Usage:   "log heap creation and destruction",
				},
			},
			Action: func(ctx *cli.Context) error {
				conf, err := heappool.LoadConfig(ctx.String("config"))
				if err != nil {
					return err
				}
				conf.Logger = newLogger(ctx.Bool("verbose"))

				factory, err := newFactory(ctx.Bool("in-memory"), ctx.Uint64("limit"))
				if err != nil {
					return err
				}

				m, err := heappool.New(conf, factory, nil)
				if err != nil {
					return fmt.Errorf("creating pool: %w", err)
				}
				defer m.Close()

				result, err := simulate(m, workload{
					Operations:    ctx.Int("ops"),
					Seed:          ctx.Int64("seed"),
					MaxByteLength: ctx.Uint64("max-size"),
				})
				if err != nil {
					return err
				}
				return printYAML(result)
			},
		}, {
			Name:  "config",
			Usage: "print the effective configuration",
			Flags: []cli.Flag{configFlag},
			Action: func(ctx *cli.Context) error {
				conf, err := heappool.LoadConfig(ctx.String("config"))
				if err != nil {
					return err
				}
				data, err := conf.YAML()
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(data)
				return err
			},
		}},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

type factory interface {
	heap.Factory
	heap.BudgetSource
}

func newFactory(inMemory bool, limit uint64) (factory, error) {
	if inMemory {
		if limit == 0 {
			total, err := heap.SystemMemory()
			if err != nil {
				return nil, fmt.Errorf("reading system memory: %w", err)
			}
			limit = total
		}
		return heap.NewMemoryFactory(heap.MemoryFactoryOptions{Limit: limit}), nil
	}
	return heap.NewMmapFactory(limit)
}

func printYAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling yaml: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}
