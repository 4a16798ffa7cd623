// Command mlogcat is the operator tool for inspecting an mlog file: it
// loads a log by logical name, filters and prints matching records, and
// optionally tails the file for new ones.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/yanet-platform/mlog"
	"github.com/yanet-platform/mlog/internal/bitset"
	"github.com/yanet-platform/mlog/internal/logging"
)

// Cmd is the command line arguments.
type Cmd struct {
	Name string

	Record   int
	Level    uint
	HasLevel bool
	Category []uint
	PID      []uint
	Thread   []uint
	Order    []uint
	Date     []string
	Clear    bool
	Follow   bool

	ShowCategory bool
	ShowLevel    bool
	ShowPID      bool
	ShowThread   bool
	ShowSource   bool
	MiniFormat   string
	DateFormat   string

	Verbose    bool
	ConfigPath string
}

// applyConfigDefaults loads --config (if set) and fills in any flag the
// operator did not pass explicitly, so a pinned config file's values never
// clobber an override given on the command line.
func applyConfigDefaults(c *Cmd, flags *pflag.FlagSet) {
	if c.ConfigPath == "" {
		return
	}
	cfg, err := LoadConfig(c.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mlogcat: %v (using flag defaults)\n", err)
		return
	}
	if !flags.Changed("mini") {
		c.MiniFormat = cfg.MiniFormat
	}
	if !flags.Changed("date-format") {
		c.DateFormat = cfg.DateFormat
	}
	if !flags.Changed("show-level") {
		c.ShowLevel = cfg.ShowLevel
	}
	if !flags.Changed("show-source") {
		c.ShowSource = cfg.ShowSource
	}
	if !flags.Changed("verbose") && cfg.Level <= zap.DebugLevel {
		c.Verbose = true
	}
}

// newRootCmd builds a fresh cobra command bound to its own Cmd and flag
// set. Kept as a constructor (rather than a package-level var plus
// init()) so tests can parse a synthetic argv, including the
// space-separated multi-value syntax splitMultiValueArgs rewrites,
// without disturbing any other test's flag state.
func newRootCmd() (*cobra.Command, *Cmd) {
	c := &Cmd{}
	root := &cobra.Command{
		Use:   "mlogcat NAME",
		Short: "Print and filter records from an mlog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(rawCmd *cobra.Command, args []string) error {
			c.Name = args[0]
			c.HasLevel = rawCmd.Flags().Changed("level")
			applyConfigDefaults(c, rawCmd.Flags())
			return run(*c)
		},
	}

	f := root.Flags()
	f.IntVarP(&c.Record, "record", "r", 0, "cap the number of records printed (0 = unlimited)")
	f.UintVarP(&c.Level, "level", "g", 0, "only records with level <= L")
	f.UintSliceVarP(&c.Category, "category", "c", nil, "allow-list of category ids (repeatable, or several bare values after one -c/--category)")
	f.UintSliceVarP(&c.PID, "pid", "p", nil, "allow-list of process ids (repeatable, or several bare values after one -p/--pid)")
	f.UintSliceVarP(&c.Thread, "thread", "t", nil, "allow-list of thread ids (repeatable, or several bare values after one -t/--thread)")
	f.UintSliceVarP(&c.Order, "order", "s", nil, "inclusive order range: BEG [END]")
	f.StringSliceVarP(&c.Date, "date", "d", nil, "inclusive wall-clock range: BEG [END], in the --date-format layout")
	f.BoolVar(&c.Clear, "clear", false, "reset cnt after printing")
	f.BoolVar(&c.Follow, "follow", false, "keep polling the file for new records")

	f.BoolVar(&c.ShowCategory, "show-category", false, "print each record's category")
	f.BoolVar(&c.ShowLevel, "show-level", false, "print each record's level")
	f.BoolVar(&c.ShowPID, "show-pid", false, "print each record's pid")
	f.BoolVar(&c.ShowThread, "show-thread", false, "print each record's thread id and name")
	f.BoolVar(&c.ShowSource, "show-source", false, "print each record's source file and line")
	f.StringVar(&c.MiniFormat, "mini", "(%04x)", "fmt verb used to render minidata")
	f.StringVar(&c.DateFormat, "date-format", "2006-01-02T15:04:05.000000Z07:00", "Go reference-time layout for the date column")
	f.BoolVarP(&c.Verbose, "verbose", "v", false, "enable debug logging of discarded tail segments")
	f.StringVar(&c.ConfigPath, "config", "", "YAML file of defaults for mini/date-format/show-level/show-source/verbose (flags always win)")

	return root, c
}

func main() {
	rootCmd, _ := newRootCmd()
	rootCmd.SetArgs(splitMultiValueArgs(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func buildLogger(verbose bool) *zap.SugaredLogger {
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}
	log, _, err := logging.Init(&logging.Config{Level: level})
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return log
}

func categoryBitset(ids []uint) *bitset.TinyBitset {
	if len(ids) == 0 {
		return nil
	}
	var b bitset.TinyBitset
	for _, id := range ids {
		b.Insert(uint32(id))
	}
	return &b
}

func allowSet(ids []uint) map[uint32]bool {
	if len(ids) == 0 {
		return nil
	}
	m := make(map[uint32]bool, len(ids))
	for _, id := range ids {
		m[uint32(id)] = true
	}
	return m
}

// Info is the decoded record type passed to matches and recordPrinter.print.
type Info = mlog.Info

func run(c Cmd) error {
	if len(c.Order) > 2 {
		return fmt.Errorf("mlogcat: --order takes at most 2 values, got %d", len(c.Order))
	}
	if len(c.Date) > 2 {
		return fmt.Errorf("mlogcat: --date takes at most 2 values, got %d", len(c.Date))
	}

	log := buildLogger(c.Verbose)
	defer log.Sync()

	orderMin, orderMax, hasOrderMax, err := parseOrderRange(c.Order)
	if err != nil {
		return err
	}
	timeMin, timeMax, hasTimeMax, err := parseDateRange(c.Date, c.DateFormat)
	if err != nil {
		return err
	}

	categories := categoryBitset(c.Category)
	pids := allowSet(c.PID)
	threads := allowSet(c.Thread)

	printer := &recordPrinter{cmd: c}

	if c.Follow {
		return followAndPrint(c.Name, log, c.Record, orderMin, timeMin, func(info Info) bool {
			return matches(info, c, categories, pids, threads, orderMax, hasOrderMax, timeMax, hasTimeMax)
		}, printer.print)
	}

	return loadAndPrint(c.Name, log, c.Record, orderMin, timeMin, func(info Info) bool {
		return matches(info, c, categories, pids, threads, orderMax, hasOrderMax, timeMax, hasTimeMax)
	}, printer.print, c.Clear)
}
