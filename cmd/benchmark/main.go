package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pf12345/vue-source/reactive"
	"github.com/urfave/cli/v3"
)

const (
	profileKey    = "profile"
	iterationsKey = "iterations"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Benchmark reactive change propagation",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Time propagation through computed chains of varying width and depth",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  profileKey,
						Usage: "Write a CPU profile to the given file",
					},
					&cli.UintFlag{
						Name:  iterationsKey,
						Usage: "Timed iterations per grid size",
						Value: 100,
					},
				},
				Action: runBenchmark,
			},
			{
				Name:   "stats",
				Usage:  "Run scripted scenarios and report engine counters",
				Action: runStats,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

var (
	ww = []int{1, 10, 100}
	hh = []int{1, 10, 100}
)

func runBenchmark(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String(profileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}
	iters := int(cmd.Uint(iterationsKey))

	log.Printf("warming up")

	tbl := table.NewWriter()
	tbl.SetTitle("Propagation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rs := reactive.New(reactive.SystemConfig{
				OnError: func(_ *reactive.Watcher, err error) {
					log.Panic(err)
				},
			})
			src := rs.NewMap(map[string]any{"value": 1})

			for i := 0; i < w; i++ {
				var last *reactive.Watcher
				for j := 0; j < h; j++ {
					prev := last
					last = rs.WatchFn(src, func(scope *reactive.Map) any {
						if prev == nil {
							return scope.Get("value").(int) + 1
						}
						v := prev.Evaluate().(int) + 1
						prev.Depend()
						return v
					}, nil, reactive.WatcherOptions{Lazy: true})
				}
				tail := last
				rs.WatchFn(src, func(scope *reactive.Map) any {
					v := tail.Evaluate()
					tail.Depend()
					return v
				}, nil, reactive.WatcherOptions{})
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Set("value", src.Get("value").(int)+1)
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	tbl.Render()
	return nil
}
