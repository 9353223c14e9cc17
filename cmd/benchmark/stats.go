package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/pf12345/vue-source/reactive"
	"github.com/urfave/cli/v3"
)

type statsScenario struct {
	name       string // friendly name for the scenario, should be unique
	width      int    // independent chains hanging off the root
	depth      int    // nested maps per chain
	iterations int    // batched mutation rounds
}

func runStats(ctx context.Context, cmd *cli.Command) error {
	log.Print("Starting stats scenarios, please wait...")
	defer log.Print("Finished stats scenarios")

	scenarios := []statsScenario{
		{name: "small tree", width: 10, depth: 3, iterations: 1_000},
		{name: "wide tree", width: 1_000, depth: 2, iterations: 100},
		{name: "deep tree", width: 5, depth: 50, iterations: 100},
	}

	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader([]string{
		"scenario", "size", "mutations", "deps", "watchers", "runs", "flushes", "time", "runs/ms",
	})

	for _, sc := range scenarios {
		log.Printf("Running '%s' scenario", sc.name)
		rs := reactive.New(reactive.SystemConfig{
			OnError: func(_ *reactive.Watcher, err error) {
				log.Panic(err)
			},
		})

		root, leaves := buildTree(rs, sc.width, sc.depth)
		for i := 0; i < sc.width; i++ {
			expr := leafPath(i, sc.depth)
			if _, err := rs.Watch(root, expr, func(newV, oldV any) {}, reactive.WatcherOptions{}); err != nil {
				return err
			}
		}

		start := time.Now()
		for i := 0; i < sc.iterations; i++ {
			rs.Batch(func() {
				for _, leaf := range leaves {
					leaf.Set("leaf", i+1)
				}
			})
		}
		duration := time.Since(start)

		stats := rs.Stats()
		rate := float64(stats.WatcherRuns) / (float64(duration) / float64(time.Millisecond))
		tbl.Append([]string{
			sc.name,
			fmt.Sprintf("%dx%d", sc.width, sc.depth),
			humanize.Comma(int64(sc.iterations * sc.width)),
			humanize.Comma(int64(stats.DepsCreated)),
			humanize.Comma(int64(stats.WatchersCreated)),
			humanize.Comma(int64(stats.WatcherRuns)),
			humanize.Comma(int64(stats.Flushes)),
			fmt.Sprint(duration),
			humanize.Comma(int64(rate)),
		})
	}

	tbl.Render()
	return nil
}

// buildTree hangs width chains of depth nested maps off a fresh root and
// returns the root plus the leaf map of every chain.
func buildTree(rs *reactive.ReactiveSystem, width, depth int) (*reactive.Map, []*reactive.Map) {
	root := rs.NewMap(nil)
	leaves := make([]*reactive.Map, 0, width)
	for i := 0; i < width; i++ {
		node := rs.NewMap(map[string]any{"leaf": 0})
		leaves = append(leaves, node)
		for j := 1; j < depth; j++ {
			node = rs.NewMap(map[string]any{"n": node})
		}
		root.Set(fmt.Sprintf("c%d", i), node)
	}
	return root, leaves
}

func leafPath(i, depth int) string {
	return fmt.Sprintf("c%d%s.leaf", i, strings.Repeat(".n", depth-1))
}
