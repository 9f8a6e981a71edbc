// sectordump prints the generated contents of sectors around an address.
//
// Usage:
//
//	go run ./cmd/sectordump [-config path] [-generator name/version] x,y,z[,system] [radius]
//
// With a system index the full star system is printed as well.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/stellarcache/galaxy/internal/config"
	"github.com/stellarcache/galaxy/internal/syspath"
	"github.com/stellarcache/galaxy/internal/world"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "", "config file (default: built-in settings)")
	generator := flag.String("generator", "", "generator as name/version")
	verbose := flag.Bool("v", false, "log generation")
	flag.Parse()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		fmt.Fprintln(os.Stderr, "usage: sectordump [-config path] [-generator name/version] x,y,z[,system] [radius]")
		os.Exit(2)
	}
	if err := run(*cfgPath, *generator, *verbose, flag.Arg(0), flag.Arg(1)); err != nil {
		fmt.Fprintf(os.Stderr, "sectordump: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath, generator string, verbose bool, addr, radiusArg string) error {
	p, err := syspath.Parse(addr)
	if err != nil {
		return err
	}
	radius := int32(0)
	if radiusArg != "" {
		r, err := strconv.ParseInt(radiusArg, 10, 32)
		if err != nil || r < 0 {
			return fmt.Errorf("bad radius %q", radiusArg)
		}
		radius = int32(r)
	}

	_ = godotenv.Load()
	if cfgPath == "" {
		cfgPath = os.Getenv("GALAXY_CONFIG")
	}
	cfg := config.Default()
	if cfgPath != "" {
		if cfg, err = config.Load(cfgPath); err != nil {
			return err
		}
	}
	log := zap.NewNop()
	if verbose {
		if log, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}

	st, err := world.Build(context.Background(), cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	if generator != "" {
		name, ver, ok := strings.Cut(generator, "/")
		v, err := strconv.Atoi(ver)
		if !ok || err != nil {
			return fmt.Errorf("bad generator %q, want name/version", generator)
		}
		if err := st.Galaxy.UseGenerator(name, v); err != nil {
			return err
		}
	}

	// Fill through a slave so sectors generate on the worker pool.
	start := time.Now()
	slave := st.Galaxy.NewSectorSlave()
	defer slave.Close()
	var paths []syspath.Path
	for x := p.SectorX - radius; x <= p.SectorX+radius; x++ {
		for y := p.SectorY - radius; y <= p.SectorY+radius; y++ {
			for z := p.SectorZ - radius; z <= p.SectorZ+radius; z++ {
				paths = append(paths, syspath.Sector(x, y, z))
			}
		}
	}
	slave.FillCache(paths, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := st.Jobs.Flush(ctx); err != nil {
		return err
	}

	total := 0
	for _, sp := range paths {
		sec := slave.GetIfCached(sp)
		if sec == nil {
			return fmt.Errorf("sector %s not generated", sp)
		}
		sec.Dump(os.Stdout)
		total += sec.Len()
	}
	fmt.Printf("\n%s sectors, %s systems, in %s (%s)\n",
		humanize.Comma(int64(len(paths))), humanize.Comma(int64(total)),
		time.Since(start).Round(time.Millisecond), st.Galaxy.Generator())

	if p.HasValidSystem() {
		sys, err := st.Galaxy.GetStarSystem(p)
		if err != nil {
			return err
		}
		fmt.Println()
		sys.Dump(os.Stdout)
	}
	return nil
}
