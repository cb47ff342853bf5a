package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/floudata/pucp-time-series/internal/analysis"
	"github.com/floudata/pucp-time-series/internal/app"
	"github.com/floudata/pucp-time-series/internal/config"
	"github.com/floudata/pucp-time-series/internal/logger"
	"github.com/floudata/pucp-time-series/internal/models"
	"github.com/floudata/pucp-time-series/internal/report"
)

// exit codes per error kind
const (
	exitOK = iota
	exitUsage
	exitNotFound
	exitFetch
	exitMalformed
	exitFailure
)

func main() {
	var (
		recordRef = flag.String("record", "", "Record ID (e.g. 'WFDBRecords/01/010/JS00001') or number from the records catalog")
		leadName  = flag.String("lead", "II", "Lead name (I, II, III, aVR, aVL, aVF, V1..V6) or index")
		pngPath   = flag.String("png", "", "Write a 10 s strip of the cleaned lead to this PNG file")
		rawPath   = flag.String("raw-png", "", "Write a 10 s strip of the unfiltered lead to this PNG file")
		xlsxPath  = flag.String("xlsx", "", "Write the details and beat table to this XLSX file")
		timeout   = flag.Duration("timeout", 2*time.Minute, "Overall timeout, including any download")
	)
	flag.Parse()

	if *recordRef == "" {
		fmt.Fprintln(os.Stderr, "Usage: ecg-analyze -record <id|number> [-lead II] [-png out.png] [-raw-png raw.png] [-xlsx out.xlsx]")
		os.Exit(exitUsage)
	}
	lead, err := models.ParseLead(*leadName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid lead %q: valid leads are %s\n", *leadName, strings.Join(models.Leads, ", "))
		os.Exit(exitUsage)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(exitUsage)
	}
	// keep stdout for the report; logs go to stderr
	log, err := logger.NewLogger(cfg.Log.Level, "console", "ecg-analyze")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(exitFailure)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(exitFailure)
	}
	defer application.Close()

	recordID := *recordRef
	if application.Records != nil {
		recordID = application.Records.Resolve(recordID)
	}

	details, result, err := application.Analyzer.Report(ctx, models.AnalysisRequest{RecordID: recordID, LeadIndex: lead})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Analysis failed: %v\n", err)
		os.Exit(exitCode(err))
	}

	printReport(os.Stdout, details, result)

	if *pngPath != "" {
		if err := writeFile(*pngPath, func(w io.Writer) error {
			return report.RenderPNG(w, result, report.PlotOptions{})
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *pngPath, err)
			os.Exit(exitFailure)
		}
	}
	if *rawPath != "" {
		// the record is in the local cache after Report, so this does not refetch
		rec, err := application.Store.Resolve(ctx, recordID)
		if err == nil {
			var raw models.RawSignal
			if raw, err = rec.Signal(lead); err == nil {
				err = writeFile(*rawPath, func(w io.Writer) error {
					return report.RenderPNG(w, result, report.PlotOptions{Raw: &raw})
				})
			}
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *rawPath, err)
			os.Exit(exitFailure)
		}
	}
	if *xlsxPath != "" {
		if err := writeFile(*xlsxPath, func(w io.Writer) error {
			return report.WriteWorkbook(w, details, result)
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *xlsxPath, err)
			os.Exit(exitFailure)
		}
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return exitNotFound
	case errors.Is(err, models.ErrFetch):
		return exitFetch
	case errors.Is(err, models.ErrMalformedRecord),
		errors.Is(err, analysis.ErrNonFiniteSample),
		errors.Is(err, analysis.ErrInvalidSamplingRate):
		return exitMalformed
	case errors.Is(err, models.ErrInvalidLead):
		return exitUsage
	default:
		return exitFailure
	}
}

func printReport(w io.Writer, details *models.RecordDetails, result *models.AnalysisResult) {
	fmt.Fprintf(w, "Record:         %s\n", details.RecordID)
	fmt.Fprintf(w, "Duration:       %.2f s\n", details.DurationSeconds)
	fmt.Fprintf(w, "Sampling rate:  %g Hz\n", details.SamplingRate)
	fmt.Fprintf(w, "Channels:       %d x %d samples (%s)\n", details.ChannelCount, details.SampleCount, details.Units)

	age := "unknown"
	if details.Metadata.Age != nil {
		age = fmt.Sprint(*details.Metadata.Age)
	}
	sex := details.Metadata.Sex
	if sex == "" {
		sex = "unknown"
	}
	fmt.Fprintf(w, "Age / sex:      %s / %s\n", age, sex)
	if details.DiagnosisSummary != "" {
		fmt.Fprintf(w, "Diagnoses:      %s\n", details.DiagnosisSummary)
	}

	fmt.Fprintf(w, "\nLead %s: %d beats\n", result.LeadName, len(result.Beats))
	if result.MeanHeartRate == nil {
		fmt.Fprintln(w, "Heart rate:     undetermined (fewer than two beats detected)")
		return
	}
	fmt.Fprintf(w, "Heart rate:     %.1f bpm (min %.1f, max %.1f)\n",
		*result.MeanHeartRate, result.Summary.MinHeartRate, result.Summary.MaxHeartRate)
	fmt.Fprintf(w, "SDNN / RMSSD:   %.1f / %.1f ms\n", result.Summary.SDNN, result.Summary.RMSSD)
	fmt.Fprintf(w, "Verdict:        %s, heart rate %s\n", result.Classification, report.Verdict(result.Classification))
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
