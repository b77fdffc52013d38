package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ayusman/proctorvision/internal/app"
	"github.com/ayusman/proctorvision/internal/capture"
)

var (
	analyzeSession  string
	analyzeEvidence bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image|dir>...",
	Short: "Analyze still images and print one JSON result per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd.Context(), args, cmd.OutOrStdout())
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeSession, "session", "s", "", "Session ID to record violations against")
	analyzeCmd.Flags().BoolVar(&analyzeEvidence, "save-evidence", false, "Save flagged frames to the evidence directory")
	rootCmd.AddCommand(analyzeCmd)
}

// analyzeResult is one line of analyze output.
type analyzeResult struct {
	Path   string      `json:"path"`
	Report *app.Report `json:"report,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func runAnalyze(ctx context.Context, args []string, out io.Writer) error {
	files, err := collectImages(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no images found")
	}

	rt, err := buildRuntime(cfg, log, buildOptions{evidence: analyzeEvidence})
	if err != nil {
		return err
	}
	defer rt.Close()

	var bar *progressbar.ProgressBar
	if len(files) > 1 {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Analyzing"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)
	}

	enc := json.NewEncoder(out)
	flagged := 0
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		res := analyzeFile(ctx, rt.app, path)
		if errors.Is(res.err, app.ErrDetectionUnavailable) {
			return errDetectionUnavailable
		}
		if res.Report != nil && res.Report.EvidenceRequired {
			flagged++
		}
		if err := enc.Encode(res.analyzeResult); err != nil {
			return err
		}
		if bar != nil {
			bar.Add(1)
		}
	}

	if bar != nil {
		bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	log.WithFields(map[string]interface{}{"files": len(files), "flagged": flagged}).Info("Analysis complete")
	return nil
}

type fileResult struct {
	analyzeResult
	err error
}

func analyzeFile(ctx context.Context, a *app.App, path string) fileResult {
	res := fileResult{analyzeResult: analyzeResult{Path: path}}

	frame, err := capture.Load(path)
	if err != nil {
		res.err = err
		res.Error = err.Error()
		return res
	}
	defer frame.Close()

	report, err := a.Process(ctx, frame, analyzeSession)
	if err != nil {
		res.err = err
		res.Error = err.Error()
		return res
	}
	res.Report = report
	return res
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".bmp": true}

// collectImages expands directories into their image files, sorted by name.
func collectImages(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		var found []string
		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && imageExts[strings.ToLower(filepath.Ext(path))] {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}
