// Command webchalk-storyboard validates and plays YAML storyboards against
// in-memory stub targets, using a small built-in effect bank. It exists for
// authoring feedback: check that a storyboard is well formed, then watch its
// event journal without a real rendering host.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	webchalk "github.com/NkemdiAnyiam/webchalk-animate-sub001"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	Verbose bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "webchalk-storyboard",
		Short:         "Validate and play webchalk storyboards",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose playback logging")

	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newPlayCommand(opts))
	return cmd
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <storyboard.yaml>",
		Short: "Check that a storyboard document is well formed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := webchalk.LoadStoryboardFile(args[0])
			if err != nil {
				return err
			}
			clips := 0
			for _, seq := range doc.Sequences {
				clips += len(seq.Clips)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d sequence(s), %d clip(s))\n",
				doc.Name, len(doc.Sequences), clips)
			return nil
		},
	}
}

type playOptions struct {
	*rootOptions
	RealTime    bool
	JournalPath string
}

func newPlayCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &playOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play <storyboard.yaml>",
		Short: "Step a storyboard end to end against stub targets",
		Long: `Play builds the storyboard against in-memory stub targets and the
built-in effect bank, then steps its timeline from start to finish.
Playback is instant by default; pass --real-time to pace against the clock.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, opts, args[0])
		},
	}
	cmd.Flags().BoolVar(&opts.RealTime, "real-time", false, "pace playback against wall time instead of skipping")
	cmd.Flags().StringVar(&opts.JournalPath, "journal", "", "record playback events to a SQLite file")
	return cmd
}

func runPlay(cmd *cobra.Command, opts *playOptions, path string) error {
	doc, err := webchalk.LoadStoryboardFile(path)
	if err != nil {
		return err
	}

	var observers []webchalk.Observer
	if opts.Verbose {
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
		observers = append(observers, webchalk.NewLoggingObserver(logger))
	}
	metrics := &webchalk.BasicMetrics{}
	observers = append(observers, metrics)

	var jnl webchalk.Journal
	if opts.JournalPath != "" {
		db, err := sql.Open("sqlite", opts.JournalPath)
		if err != nil {
			return fmt.Errorf("opening journal database: %w", err)
		}
		defer db.Close()
		jnl, err = webchalk.NewSQLiteJournal(db)
		if err != nil {
			return fmt.Errorf("initializing journal: %w", err)
		}
		defer jnl.Close()
		observers = append(observers, jnl)
	}

	timeline, err := webchalk.BuildStoryboard(doc, demoBank(), stubResolver(doc),
		webchalk.WithObserver(webchalk.NewCompositeObserver(observers...)))
	if err != nil {
		return err
	}
	if !opts.RealTime {
		timeline.ToggleSkipping(true)
	}

	ctx := context.Background()
	for timeline.Cursor() < len(timeline.Sequences()) {
		promise, err := timeline.Step(ctx, webchalk.DirectionForward)
		if err != nil {
			return err
		}
		if err := promise.Await(ctx); err != nil {
			return err
		}
	}

	snap := metrics.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: played %d clip(s) across %d sequence(s)\n",
		doc.Name, snap.ClipsPlayed, snap.SequencesCompleted)
	if opts.JournalPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "journal written to %s\n", opts.JournalPath)
	}
	return nil
}

// stubResolver creates one stub target per distinct identifier. Targets whose
// first appearance is in an entrance-category clip start hidden so the
// entrance precondition holds; connector-category targets get connectors.
func stubResolver(doc webchalk.Storyboard) webchalk.TargetResolver {
	hidden := make(map[string]bool)
	connector := make(map[string]bool)
	seen := make(map[string]bool)
	for _, seq := range doc.Sequences {
		for _, clip := range seq.Clips {
			switch webchalk.Category(clip.Category) {
			case webchalk.CategoryConnectorSetter, webchalk.CategoryConnectorEntrance, webchalk.CategoryConnectorExit:
				connector[clip.Target] = true
			}
			if seen[clip.Target] {
				continue
			}
			seen[clip.Target] = true
			switch webchalk.Category(clip.Category) {
			case webchalk.CategoryEntrance, webchalk.CategoryConnectorEntrance:
				hidden[clip.Target] = true
			}
		}
	}

	targets := make(map[string]webchalk.Target)
	return func(id string) (webchalk.Target, error) {
		if t, ok := targets[id]; ok {
			return t, nil
		}
		var t webchalk.Target
		switch {
		case connector[id]:
			c := webchalk.NewStubConnector(id)
			if hidden[id] {
				c.AddClass(webchalk.HiddenClassName)
			}
			t = c
		case hidden[id]:
			t = webchalk.NewHiddenStubTarget(id)
		default:
			t = webchalk.NewStubTarget(id)
		}
		targets[id] = t
		return t, nil
	}
}

// demoBank registers a handful of built-in effects so storyboards can be
// exercised without writing generators.
func demoBank() webchalk.EffectBank {
	bank := webchalk.NewEffectBank()

	styleTween := func(prop string, from, to float64) webchalk.EffectGenerator {
		return webchalk.EffectGenerator{
			ComposeEffect: func(ctx *webchalk.ComposeContext, _ ...any) (webchalk.ComposedEffect, error) {
				return webchalk.ComposedEffect{
					ForwardMutator: func() (webchalk.FrameFunc, error) {
						return func() error {
							ctx.Target().SetStyle(prop, fmt.Sprintf("%.3f", ctx.ComputeTween(from, to)))
							return nil
						}, nil
					},
				}, nil
			},
		}
	}

	appear := webchalk.EffectGenerator{
		ComposeEffect: func(ctx *webchalk.ComposeContext, _ ...any) (webchalk.ComposedEffect, error) {
			return webchalk.ComposedEffect{
				ForwardKeyframes: func() ([]webchalk.Keyframe, error) {
					return []webchalk.Keyframe{{Offset: 0, Apply: func() error {
						ctx.Target().SetStyle("opacity", "1")
						return nil
					}}}, nil
				},
			}, nil
		},
	}

	for name, gen := range map[string]webchalk.EffectGenerator{
		"appear":    appear,
		"fade-in":   styleTween("opacity", 0, 1),
		"fade-out":  styleTween("opacity", 1, 0),
		"slide":     styleTween("translate-x", 0, 100),
		"pulse":     styleTween("scale", 1, 1.2),
		"highlight": styleTween("highlight", 0, 1),
	} {
		if err := bank.Register(name, gen); err != nil {
			panic(err)
		}
	}
	return bank
}
