package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/mediaget-go/internal/app"
	"github.com/yourusername/mediaget-go/internal/domain"
)

// errTransferFailed means the failures were already printed
var errTransferFailed = errors.New("transfer failed")

type getOptions struct {
	outputDir    string
	outputFile   string
	outputName   string
	regex        []string
	stream       string
	resumeFrom   string
	overwrite    bool
	skipTransfer bool
	exec         []string
	execStdout   bool
	execStderr   bool
	dumpArgv     bool
	userAgent    string
	proxy        string
	quiet        bool
}

var getOpts getOptions

var getCmd = &cobra.Command{
	Use:   "get [url...]",
	Short: "Transfer the media of one or more page URLs",
	Long: `Resolve each URL, select a stream and transfer it to a local file.
URLs are read from standard input, one per line, when none are given or
the only argument is "-".`,
	RunE: runGet,
}

func init() {
	f := getCmd.Flags()
	f.StringVarP(&getOpts.outputDir, "output-dir", "d", "", "Directory the files are written to")
	f.StringVarP(&getOpts.outputFile, "output-file", "o", "", "Write to this file instead of a templated name")
	f.StringVarP(&getOpts.outputName, "output-name", "n", "", "Output name template, e.g. \"%t.%e\"")
	f.StringArrayVarP(&getOpts.regex, "regex", "r", nil, "Rewrite rule for a sequence, e.g. \"%t:s/\\s+/_/g\" (repeatable)")
	f.StringVarP(&getOpts.stream, "stream", "s", "", "Stream selection, e.g. \"hd,best\" or \"^mp4_.*,croak\"")
	f.StringVar(&getOpts.resumeFrom, "resume-from", "", "none, auto, overwrite or a byte offset")
	f.BoolVar(&getOpts.overwrite, "overwrite", false, "Overwrite existing files")
	f.BoolVar(&getOpts.skipTransfer, "skip-transfer", false, "Decide the file but do not transfer it")
	f.StringArrayVarP(&getOpts.exec, "exec", "e", nil, "Command run after each transfer, e.g. \"mpv %f\" (repeatable)")
	f.BoolVar(&getOpts.execStdout, "exec-stdout", false, "Show the standard output of commands")
	f.BoolVar(&getOpts.execStderr, "exec-stderr", false, "Show the standard error of commands")
	f.BoolVar(&getOpts.dumpArgv, "dump-argv", false, "Print the argument vector of commands")
	f.StringVar(&getOpts.userAgent, "user-agent", "", "HTTP user agent")
	f.StringVar(&getOpts.proxy, "proxy", "", "HTTP proxy URL")
	f.BoolVarP(&getOpts.quiet, "quiet", "q", false, "Do not print progress")
}

// applyGetFlags copies the flags set on the command line over the configuration
func applyGetFlags(cmd *cobra.Command, config *domain.Config) {
	f := cmd.Flags()
	if f.Changed("output-dir") {
		config.Output.Dir = getOpts.outputDir
	}
	if f.Changed("output-file") {
		config.Output.File = getOpts.outputFile
	}
	if f.Changed("output-name") {
		config.Output.Name = getOpts.outputName
	}
	if f.Changed("regex") {
		config.Output.Regex = getOpts.regex
	}
	if f.Changed("stream") {
		config.Transfer.Stream = getOpts.stream
	}
	if f.Changed("resume-from") {
		config.Transfer.ResumeFrom = getOpts.resumeFrom
	}
	if f.Changed("overwrite") {
		config.Transfer.Overwrite = getOpts.overwrite
	}
	if f.Changed("skip-transfer") {
		config.Transfer.SkipTransfer = getOpts.skipTransfer
	}
	if f.Changed("exec") {
		config.Exec.External = getOpts.exec
	}
	if f.Changed("exec-stdout") {
		config.Exec.EnableStdout = getOpts.execStdout
	}
	if f.Changed("exec-stderr") {
		config.Exec.EnableStderr = getOpts.execStderr
	}
	if f.Changed("dump-argv") {
		config.Exec.DumpArgv = getOpts.dumpArgv
	}
	if f.Changed("user-agent") {
		config.Transfer.UserAgent = getOpts.userAgent
	}
	if f.Changed("proxy") {
		config.Transfer.Proxy = getOpts.proxy
	}
}

func runGet(cmd *cobra.Command, args []string) error {
	urls := args
	if len(urls) == 0 || (len(urls) == 1 && urls[0] == "-") {
		var err error
		if urls, err = readURLs(os.Stdin); err != nil {
			return err
		}
	}
	if len(urls) == 0 {
		return errors.New("no URLs given")
	}

	config, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	applyGetFlags(cmd, config)

	var progressOut io.Writer = os.Stderr
	if getOpts.quiet {
		progressOut = io.Discard
	}

	engine, err := app.NewEngine(config, log, app.EngineOptions{
		Progress:   progressOut,
		TrackWidth: !getOpts.quiet,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	template := engine.Template
	template.ReportError = func(reason domain.Reason, message string) {
		fmt.Fprintf(os.Stderr, "error: %s\n", message)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batch, err := engine.Manager.PerformBatch(ctx, urls, template)
	log.Debug("Batch finished",
		zap.Int("completed", batch.Completed),
		zap.Int("skipped", batch.Skipped),
		zap.Int("failed", batch.Failed),
		zap.Bool("aborted", batch.Aborted))

	if len(urls) > 1 {
		fmt.Fprintf(os.Stderr, "%d completed, %d skipped, %d failed\n",
			batch.Completed, batch.Skipped, batch.Failed)
	}

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errTransferFailed
	}
	return nil
}

// readURLs reads one URL per line, skipping blank lines and # comments
func readURLs(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URLs: %w", err)
	}
	return urls, nil
}
