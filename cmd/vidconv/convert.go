package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/handiism/vidconv/internal/model"
)

var errCancelled = errors.New("conversion cancelled")

// converter is the part of session.Controller a single CLI conversion uses.
type converter interface {
	Start(url string, creds *model.Credentials) (generation uint64, started bool)
	Cancel() bool
	Subscribe(fn func(model.ConversionState)) (cancel func())
}

func newConvertCmd(flags *globalFlags) *cobra.Command {
	var (
		video    bool
		output   string
		playlist bool
		creds    credentialFlags
	)

	cmd := &cobra.Command{
		Use:   "convert <url>",
		Short: "Convert a video link to MP3 (or MP4 with --video)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(flags)
			if err != nil {
				return err
			}
			if video {
				settings.TargetFormat = string(model.FormatMP4)
			}
			if output != "" {
				settings.DownloadsPath = output
			}
			if playlist {
				settings.AllowPlaylist = true
			}

			a, err := loadApp(flags, settings)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			final, err := convert(ctx, a.Controller, args[0], creds.credentials(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), final.Result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&video, "video", false, "Keep video and produce MP4")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (overrides config)")
	cmd.Flags().BoolVar(&playlist, "playlist", false, "Convert every item of a playlist URL")
	creds.register(cmd)
	return cmd
}

// convert runs one attempt on ctl and renders its progress to w until the
// attempt ends. Cancelling ctx cancels the attempt.
func convert(ctx context.Context, ctl converter, url string, creds *model.Credentials, w io.Writer) (model.Succeeded, error) {
	states := make(chan model.ConversionState, 16)
	done := make(chan struct{})
	defer close(done)

	unsubscribe := ctl.Subscribe(func(s model.ConversionState) {
		select {
		case states <- s:
		case <-done:
		}
	})
	defer unsubscribe()

	gen, started := ctl.Start(url, creds)
	if !started {
		return model.Succeeded{}, fmt.Errorf("a conversion of %s is already running", url)
	}

	bar := newProgressBar(w)

	ctxDone := ctx.Done()
	for {
		select {
		case <-ctxDone:
			ctxDone = nil
			ctl.Cancel()

		case s := <-states:
			if g, ok := s.Generation(); !ok || g != gen {
				continue
			}
			switch s := s.(type) {
			case model.InProgress:
				bar.update(s.Progress)
			case model.Succeeded:
				bar.finish(true)
				return s, nil
			case model.Failed:
				bar.finish(false)
				return model.Succeeded{}, fmt.Errorf("%s (%s)", s.Reason, s.Kind)
			case model.Cancelled:
				bar.finish(false)
				return model.Succeeded{}, errCancelled
			}
		}
	}
}

// progressBar is a single mpb bar labelled with the latest stage message.
type progressBar struct {
	p   *mpb.Progress
	bar *mpb.Bar

	mu      sync.Mutex
	message string
}

func newProgressBar(w io.Writer) *progressBar {
	pb := &progressBar{message: "Preparing"}
	pb.p = mpb.New(mpb.WithOutput(w), mpb.WithWidth(64))
	pb.bar = pb.p.AddBar(100,
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string { return pb.label() }, decor.WC{W: 24, C: decor.DindentRight}),
		),
		mpb.AppendDecorators(decor.Percentage(decor.WC{W: 5})),
	)
	return pb
}

func (pb *progressBar) label() string {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.message
}

func (pb *progressBar) update(ev model.ProgressEvent) {
	if ev.Message != "" {
		pb.mu.Lock()
		pb.message = ev.Message
		pb.mu.Unlock()
	}
	if ev.IsIndeterminate() {
		return
	}
	// 100 would complete the bar before the result is known.
	if pct := int64(ev.Percent()); pct < 100 {
		pb.bar.SetCurrent(pct)
	}
}

// finish completes or aborts the bar and waits for the final render.
func (pb *progressBar) finish(ok bool) {
	if ok {
		pb.mu.Lock()
		pb.message = "Done"
		pb.mu.Unlock()
		pb.bar.SetCurrent(100)
	} else {
		pb.bar.Abort(false)
	}
	pb.p.Wait()
}

func printResult(w io.Writer, r *model.ConversionResult) {
	if r == nil {
		return
	}
	fmt.Fprintf(w, "✨ %s\n", r.Title)
	if r.IsPlaylist() {
		var total int64
		for _, item := range r.Items {
			total += item.FileSizeBytes
			fmt.Fprintf(w, "   %s (%s)\n", item.FilePath, formatSize(item.FileSizeBytes))
		}
		fmt.Fprintf(w, "%d files, %s total\n", len(r.Items), formatSize(total))
		return
	}
	fmt.Fprintf(w, "   %s (%s)\n", r.FilePath, formatSize(r.FileSizeBytes))
}

func formatSize(bytes int64) string {
	return fmt.Sprintf("%.2f MB", float64(bytes)/1024/1024)
}

// discardUnlessVerbose keeps the TUI screen free of log lines.
func discardUnlessVerbose(verbose bool) io.Writer {
	if verbose {
		return os.Stderr
	}
	return io.Discard
}
