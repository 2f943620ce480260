package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"content-optimizer-be/internal/bootstrap"
	"content-optimizer-be/internal/config"
	"content-optimizer-be/internal/dto"
	"content-optimizer-be/internal/pkg/logger"
	"content-optimizer-be/pkg/seo"
	"content-optimizer-be/pkg/seo/optimizer"

	"github.com/fatih/color"
)

func main() {
	in := flag.String("in", "-", "document JSON file, - for stdin")
	out := flag.String("out", "", "write the optimized document JSON here")
	titles := flag.String("titles", "", "comma separated titles already in use")
	maxIterations := flag.Int("max-iterations", 0, "override OPTIMIZER_MAX_ITERATIONS")
	target := flag.Float64("target", 0, "override OPTIMIZER_TARGET_COMPLIANCE_SCORE")
	noCorrect := flag.Bool("no-correct", false, "validate only, no AI corrections")
	asJSON := flag.Bool("json", false, "print the full result as JSON")
	flag.Parse()

	doc, err := readDocument(*in)
	if err != nil {
		color.Red("Failed to read document: %v", err)
		os.Exit(1)
	}

	cfg := config.Load()
	if *maxIterations > 0 {
		cfg.Optimizer.MaxIterations = *maxIterations
	}
	if *target > 0 {
		cfg.Optimizer.TargetComplianceScore = *target
	}
	if *noCorrect {
		cfg.Optimizer.AutoCorrection = false
	}

	engine, err := bootstrap.NewEngine(cfg, bootstrap.CacheOptions(cfg), nil, logger.NewIsolatedLogger(cfg.App.LogFilePath))
	if err != nil {
		color.Red("Failed to start optimizer: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := engine.Optimizer.Optimize(ctx, doc, optimizer.Options{ExistingTitles: splitTitles(*titles)})
	if err != nil {
		color.Red("Optimization rejected: %v", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res)
	} else {
		printReport(res)
	}

	if *out != "" {
		b, _ := json.MarshalIndent(res.Document, "", "  ")
		if err := os.WriteFile(*out, b, 0o644); err != nil {
			color.Red("Failed to write %s: %v", *out, err)
			os.Exit(1)
		}
		color.Green("Optimized document written to %s", *out)
	}

	if !res.Summary.ComplianceAchieved {
		os.Exit(2)
	}
}

func readDocument(path string) (seo.Document, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return seo.Document{}, err
		}
		defer f.Close()
		r = f
	}
	var req dto.DocumentRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return seo.Document{}, err
	}
	return req.ToDocument()
}

func splitTitles(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func printReport(res *optimizer.Result) {
	sum := res.Summary
	color.Cyan("Session %s", res.SessionID)

	scoreColor := color.New(color.FgRed)
	if sum.ComplianceAchieved {
		scoreColor = color.New(color.FgGreen)
	}
	scoreColor.Printf("Score %.2f -> %.2f after %d pass(es)\n", sum.InitialScore, sum.FinalScore, sum.IterationsUsed)
	color.Yellow("Terminated: %s (%s)", sum.TerminationReason, sum.State)

	for _, p := range res.Passes {
		line := fmt.Sprintf("  pass %d [%s] %.2f -> %.2f, resolved %d", p.PassNumber, p.Strategy, p.BeforeScore, p.AfterScore, p.IssuesResolved)
		switch {
		case p.Reverted:
			color.Red("%s (reverted)", line)
		case p.ScoreImprovement > 0:
			color.Green("%s", line)
		default:
			fmt.Println(line)
		}
	}

	if res.FinalValidation != nil && len(res.FinalValidation.Issues) > 0 {
		color.Yellow("Remaining issues:")
		for _, is := range res.FinalValidation.Issues {
			fmt.Printf("  [%s] %s: %s\n", is.Severity, is.Type, is.Message)
		}
	}
	for _, w := range res.Warnings {
		color.Magenta("warning: %s", w)
	}
	if res.Error != "" {
		color.Red("error: %s", res.Error)
	}
}
