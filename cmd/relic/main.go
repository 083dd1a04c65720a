package main

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"os/signal"
	"strings"

	"github.com/polydawn/refmt"
	"github.com/polydawn/refmt/json"
	"github.com/sirupsen/logrus"
	. "github.com/warpfork/go-errcat"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/polydawn/relic/api"
	"github.com/polydawn/relic/config"
	"github.com/polydawn/relic/importer"
)

/*
	Output serialization formats
*/
const (
	FmtJson = "json"
	FmtDumb = "dumb"
)

type baseCLI struct {
	Format    string // Output api format, eg. json
	Quiet     bool   // Raise the stderr log threshold to errors only
	ImportCLI struct {
		Archives         []string // Release archive paths, in commit order
		ReadmePrefixFile string   // Path of a file whose content gets prepended to readmes
		MetaDir          string   // Dir holding <releaseID>-{msg,author,date} override files
		Names            string   // Comma-separated project names for parse disambiguation
	}
}

func configureImport(cli *baseCLI, appImport *kingpin.CmdClause) {
	appImport.Arg("archives", "Release archives, oldest first; their order is the order of history").
		Required().
		StringsVar(&cli.ImportCLI.Archives)
	appImport.Flag("readme-prefix", "File whose content is prepended to each release's readme").
		StringVar(&cli.ImportCLI.ReadmePrefixFile)
	appImport.Flag("meta-dir", "Dir holding '<releaseID>-msg', '-author', and '-date' commit metadata files").
		StringVar(&cli.ImportCLI.MetaDir)
	appImport.Flag("names", "Comma-separated project names, for archives whose filenames defeat the parse heuristic").
		StringVar(&cli.ImportCLI.Names)
}

/*
	Blocks until a sigint is received, then calls cancel.
*/
func CancelOnInterrupt(cancel context.CancelFunc) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)
	<-signalChan
	cancel()
	close(signalChan)
}

func main() {
	ctx := context.Background()
	exitCode := Main(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	os.Exit(int(exitCode))
}

func Main(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) api.ExitCode {
	ctx, cancel := context.WithCancel(ctx)
	go CancelOnInterrupt(cancel)

	cli := baseCLI{}

	app := kingpin.New("relic", "Rebuild linear version control history from a sequence of release archives")
	app.HelpFlag.Short('h')

	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)

	app.Flag("format", "Output api format").
		Default(FmtDumb).
		EnumVar(&cli.Format, FmtJson, FmtDumb)
	app.Flag("quiet", "Log only errors to stderr").
		Short('q').
		BoolVar(&cli.Quiet)
	// `--usage` is a second spelling of `--help`.
	usageRequested := false
	app.Flag("usage", "Show usage and exit (same as --help)").
		PreAction(func(*kingpin.ParseContext) error {
			usageRequested = true
			return nil
		}).
		Bool()

	appImport := app.Command("import", "commit a sequence of release archives, one commit per release")
	configureImport(&cli, appImport)

	// Kingpin wants to end the process itself after printing help or a
	// parse complaint; catching that keeps this function pure enough to
	// test.  A zero status with help among the args is the one
	// termination that's a success, not a usage error.
	terminated, termStatus := false, 0
	app.Terminate(func(status int) {
		terminated, termStatus = true, status
	})
	helpRequested := false
	for _, arg := range args[1:] {
		if arg == "--help" || arg == "-h" {
			helpRequested = true
			break
		}
	}

	cmd, err := app.Parse(args[1:])
	switch {
	case terminated && termStatus == 0 && (helpRequested || usageRequested):
		return api.ExitSuccess
	case usageRequested:
		// Parse got far enough that kingpin never printed anything.
		app.Usage([]string{})
		return api.ExitSuccess
	case err != nil:
		fmt.Fprintln(stderr, err)
		return api.ExitUsage
	case terminated:
		return api.ExitUsage
	}

	logrus.SetOutput(stderr)
	if cli.Quiet {
		logrus.SetLevel(logrus.ErrorLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	switch cmd {
	case appImport.FullCommand():
		result, err := executeImport(ctx, cli, stderr)
		SerializeResult(cli.Format, result, err, stdout, stderr)
		return api.ExitCodeForError(err)
	default:
		fmt.Fprintf(stderr, "unrecognized command %q\n", cmd)
		return api.ExitUsage
	}
}

func executeImport(ctx context.Context, cli baseCLI, stderr io.Writer) (api.ImportResult, error) {
	req, err := resolveImportRequest(cli)
	if err != nil {
		return api.ImportResult{}, err
	}
	eng, err := demuxEngine(config.GetEngineName())
	if err != nil {
		return api.ImportResult{}, err
	}

	// The importer narrates into the channel; render it to stderr as it
	// comes, leaving stdout for nothing but the final result.
	evtChan := make(chan api.Event)
	rendered := make(chan struct{})
	go func() {
		renderEvents(evtChan, stderr, cli.Quiet)
		close(rendered)
	}()
	result, err := importer.Import(ctx, req, eng, api.Monitor{Chan: evtChan})
	<-rendered
	return result, err
}

/*
	resolveImportRequest turns CLI strings into a fully-loaded request:
	the readme prefix file is read here and the metadata dir checked
	here, so nothing in the importer does config-ish work mid-run.
*/
func resolveImportRequest(cli baseCLI) (api.ImportRequest, error) {
	req := api.ImportRequest{Archives: cli.ImportCLI.Archives}
	if cli.ImportCLI.Names != "" {
		for _, name := range strings.Split(cli.ImportCLI.Names, ",") {
			if name = strings.TrimSpace(name); name != "" {
				req.KnownNames = append(req.KnownNames, name)
			}
		}
	}
	if path := cli.ImportCLI.ReadmePrefixFile; path != "" {
		body, err := ioutil.ReadFile(path)
		if err != nil {
			return req, Errorf(api.ErrUsage, "cannot read readme prefix file: %s", err)
		}
		req.ReadmePrefix = string(body)
	}
	if dir := cli.ImportCLI.MetaDir; dir != "" {
		fi, err := os.Stat(dir)
		if err != nil || !fi.IsDir() {
			return req, Errorf(api.ErrUsage, "meta dir %q is not a directory", dir)
		}
		req.MetaDir = dir
	}
	return req, nil
}

/*
	renderEvents prints the import event stream for humans.  Progress
	and log lines all go to stderr; quiet mode drops everything below
	error level.  Runs until the channel closes.
*/
func renderEvents(ch <-chan api.Event, stderr io.Writer, quiet bool) {
	threshold := api.LogInfo
	if quiet {
		threshold = api.LogError
	}
	for evt := range ch {
		switch {
		case evt.Log != nil:
			if evt.Log.Level < threshold {
				continue
			}
			fmt.Fprintf(stderr, "relic: %s\n", evt.Log.Msg)
		case evt.Progress != nil:
			if quiet {
				continue
			}
			if evt.Progress.Phase == "" {
				fmt.Fprintf(stderr, "relic: [%d/%d] %s\n",
					evt.Progress.TotalProg, evt.Progress.TotalWork, evt.Progress.Desc)
				continue
			}
			fmt.Fprintf(stderr, "relic: [%d/%d] release %s: %s\n",
				evt.Progress.TotalProg, evt.Progress.TotalWork, evt.Progress.Phase, evt.Progress.Desc)
		}
	}
}

func SerializeResult(format string, result api.ImportResult, resultErr error, stdout, stderr io.Writer) {
	evtResult := &api.Event_Result{Result: result}
	evtResult.SetError(resultErr)
	ev := api.Event{Result: evtResult}
	switch format {
	case FmtJson:
		marshaller := refmt.NewMarshallerAtlased(json.EncodeOptions{}, stdout, api.Atlas)
		err := marshaller.Marshal(&ev)
		if err != nil {
			panic(err)
		}
	case FmtDumb:
		if resultErr != nil {
			fmt.Fprintln(stderr, resultErr)
			return
		}
		for _, rel := range result.Releases {
			fmt.Fprintf(stdout, "%s %s\n", rel.CommitID, rel.Descriptor.ReleaseID)
		}
		fmt.Fprintln(stdout, result.RepoPath)
	default:
		panic(fmt.Errorf("relic: invalid format %s", format))
	}
}
