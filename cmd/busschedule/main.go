package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/wilhg/busschedule/pkg/app"
	"github.com/wilhg/busschedule/pkg/config"
	"github.com/wilhg/busschedule/pkg/live"
	"github.com/wilhg/busschedule/pkg/logging"
	"github.com/wilhg/busschedule/pkg/otel"
	"github.com/wilhg/busschedule/pkg/reconcile"
	"github.com/wilhg/busschedule/pkg/schedule"
	"github.com/wilhg/busschedule/pkg/viewmodel"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("busschedule", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		showVersion bool
		watch       bool
		configPath  string
		stopName    string
	)
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.BoolVar(&watch, "watch", false, "keep the screen open and print list edits until interrupted")
	fs.StringVar(&configPath, "config", getEnv("BUSSCHEDULE_CONFIG", ""), "path to a YAML config file")
	fs.StringVar(&stopName, "stop", "", "show the arrivals of one stop (exact name)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	byStop := false
	fs.Visit(func(f *flag.Flag) { byStop = byStop || f.Name == "stop" })

	if showVersion {
		fmt.Fprintf(stdout, "busschedule %s (commit=%s, date=%s)\n", version, commit, date)
		return 0
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return 1
	}
	log, err := logging.New(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "logger error: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	if cfg.Tracing {
		shutdown, err := otel.Init(ctx, otel.Config{ServiceVersion: version, UseStdout: true, Writer: stderr})
		if err != nil {
			fmt.Fprintf(stderr, "tracing error: %v\n", err)
			return 1
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	loc := time.UTC
	if cfg.TimeZone != "" {
		if loc, err = time.LoadLocation(cfg.TimeZone); err != nil {
			fmt.Fprintf(stderr, "config error: %v\n", err)
			return 1
		}
	}

	a := app.New(cfg, log)
	defer func() { _ = a.Close() }()
	scope, err := a.ViewModels(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "schedule store unavailable: %v\n", err)
		return 1
	}
	model, err := viewmodel.BusScheduleOf(scope)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	title := "Full schedule"
	seq := model.FullSchedule()
	if byStop {
		title = fmt.Sprintf("Arrivals at %s", stopName)
		seq = model.ScheduleForStopName(stopName)
	}
	scr := &screen{out: stdout, loc: loc, title: title}

	if !watch {
		snap, err := live.First(ctx, seq)
		if err != nil {
			fmt.Fprintf(stderr, "query failed: %v\n", err)
			return 1
		}
		scr.render(snap)
		return 0
	}

	rec := reconcile.New[schedule.Schedule, int64](reconcile.Callback[schedule.Schedule, int64]{
		Key:         schedule.Key,
		SameContent: schedule.SameContent,
	}, nil)
	sub := seq.Subscribe(ctx)
	defer sub.Cancel()
	log.Debug("screen attached", zap.String("screen", title), zap.String("subscription", sub.ID()))

	first := true
	err = rec.Follow(ctx, sub.C(), func(script reconcile.Script[schedule.Schedule]) {
		if first {
			first = false
			scr.render(rec.Rendered())
			return
		}
		scr.edits(script)
	})
	sub.Cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(stderr, "watch failed: %v\n", err)
		return 1
	}
	if err := sub.Err(); err != nil {
		fmt.Fprintf(stderr, "query failed: %v\n", err)
		return 1
	}
	return 0
}

// screen is the terminal rendering of one schedule list.
type screen struct {
	out   io.Writer
	loc   *time.Location
	title string
}

func (s *screen) render(rows []schedule.Schedule) {
	fmt.Fprintln(s.out, s.title)
	fmt.Fprintf(s.out, "%-20s %s\n", "Stop Name", "Arrival Time")
	if len(rows) == 0 {
		fmt.Fprintln(s.out, "(no arrivals)")
		return
	}
	for _, r := range rows {
		fmt.Fprintln(s.out, s.row(r))
	}
}

func (s *screen) row(r schedule.Schedule) string {
	return fmt.Sprintf("%-20s %s", r.StopName, r.FormatArrival(s.loc))
}

func (s *screen) edits(script reconcile.Script[schedule.Schedule]) {
	for _, op := range script {
		switch op.Kind {
		case reconcile.KindInsert, reconcile.KindUpdate:
			fmt.Fprintf(s.out, "%s %d: %s\n", op.Kind, op.Index, s.row(op.Item))
		default:
			fmt.Fprintln(s.out, op.String())
		}
	}
}

func getEnv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
