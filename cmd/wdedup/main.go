// Command wdedup finds the first word in FILE that occurs exactly once,
// using WORKDIR for bounded-memory spill files and a recovery log that
// makes an interrupted run restartable.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"wdedup/engine"
	"wdedup/fio"
	"wdedup/platform"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("wdedup", pflag.ContinueOnError)
	flags.SetOutput(os.Stderr)
	flags.Usage = func() { usage(os.Stderr, flags) }

	var (
		help       = flags.BoolP("help", "h", false, "print this help and exit")
		memSize    = flags.StringP("memory-size", "m", "1g", "working memory size (k/m/g/t suffixes, optional trailing b)")
		pagePinned = flags.BoolP("page-pinned", "p", false, "pin the working memory so it is never swapped")
		wprofOnly  = flags.Bool("wprof-only", false, "exit after the profiling stage")
		wmergeOnly = flags.Bool("wmerge-only", false, "exit after the merge stage")
		disableGC  = flags.Bool("disable-gc", false, "keep merge inputs instead of deleting them")
		plannerArg = flags.String("planner", "dp", "merge planner: dp (minimum I/O) or simple (balanced tree)")
		verbose    = flags.BoolP("verbose", "v", false, "log stage progress at debug level")
	)

	if err := flags.Parse(args); err != nil {
		usage(os.Stderr, flags)
		return -1
	}
	if *help {
		usage(os.Stdout, flags)
		return 0
	}
	if flags.NArg() != 2 {
		usage(os.Stderr, flags)
		return -1
	}
	inputPath, workdir := flags.Arg(0), flags.Arg(1)

	var mem datasize.ByteSize
	if err := mem.UnmarshalText([]byte(*memSize)); err != nil {
		fmt.Fprintf(os.Stderr, "bad --memory-size %q: %v\n", *memSize, err)
		usage(os.Stderr, flags)
		return -1
	}
	if *plannerArg != "dp" && *plannerArg != "simple" {
		fmt.Fprintf(os.Stderr, "bad --planner %q: want dp or simple\n", *plannerArg)
		usage(os.Stderr, flags)
		return -1
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()

	if *pagePinned && platform.IsWindows {
		logger.Warn().Msg("--page-pinned is not supported on this platform")
		*pagePinned = false
	}

	if err := os.MkdirAll(workdir, 0755); err != nil {
		return report(logger, &fio.Error{Path: workdir, Role: "workdir", Err: err})
	}

	env, err := engine.OpenEnv(workdir, int(mem.Bytes()), *pagePinned, logger)
	if err != nil {
		return report(logger, err)
	}
	defer env.Close()

	start := time.Now()
	segs, err := engine.Profile(env, inputPath)
	if err != nil {
		return report(logger, err)
	}
	logger.Info().Int("segments", len(segs)).Dur("elapsed", time.Since(start)).Msg("wprof finished")
	if *wprofOnly {
		return 0
	}
	if len(segs) == 0 {
		// Pure-whitespace or empty input: no words at all.
		fmt.Println()
		return 0
	}

	var planner engine.Planner
	if *plannerArg == "simple" {
		planner = engine.NewSimplePlanner(segs)
	} else {
		planner = engine.NewDPPlanner(segs)
	}

	start = time.Now()
	root, err := engine.Merge(env, segs, planner, !*disableGC)
	if err != nil {
		return report(logger, err)
	}
	logger.Info().Uint64("root", root).Dur("elapsed", time.Since(start)).Msg("wmerge finished")
	if *wmergeOnly {
		return 0
	}

	result, err := engine.FindFirst(env, root)
	if err != nil {
		return report(logger, err)
	}
	fmt.Println(string(result))
	return 0
}

// report prints the failure the way operators expect and maps it to the
// exit code: negated errno for I/O failures, 1 for everything else.
func report(logger zerolog.Logger, err error) int {
	var fe *fio.Error
	if errors.As(err, &fe) {
		fmt.Fprintf(os.Stderr, "Error: %s (%s): %v\n", fe.Path, fe.Role, fe.Err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	if errno, ok := fio.Errno(err); ok {
		return -int(errno)
	}
	return 1
}

func usage(w *os.File, flags *pflag.FlagSet) {
	fmt.Fprintf(w, "usage: wdedup [flags] FILE WORKDIR\n\n"+
		"Finds the first word in FILE occurring exactly once, spilling\n"+
		"intermediate state to WORKDIR so an interrupted run can resume.\n\nflags:\n")
	flags.SetOutput(w)
	flags.PrintDefaults()
}
