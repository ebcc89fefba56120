// Package cmd provides command-line interface commands for Argus.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"argus/bootstrap"
	"argus/core"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// CLI output formatters
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

var (
	noColor     bool
	seedTimeout time.Duration
)

// demoIOC describes one built-in demo indicator.
type demoIOC struct {
	iocType     core.IOCType
	value       string
	severity    core.Severity
	description string
	tags        []string
	techniques  []string
}

var demoIOCs = []demoIOC{
	{core.IOCTypeIP, "185.220.101.34", core.SeverityHigh,
		"Tor exit node seen brute forcing SSH", []string{"tor", "brute-force"}, []string{"T1110"}},
	{core.IOCTypeDomain, "login-microsoft-verify.com", core.SeverityCritical,
		"Credential phishing domain impersonating Microsoft", []string{"phishing"}, []string{"T1566"}},
	{core.IOCTypeHash, "44d88612fea8a8f36de82e1278abb02f", core.SeverityMedium,
		"EICAR test file hash", []string{"test"}, nil},
	{core.IOCTypeURL, "http://malware-delivery.example.net/payload.bin", core.SeverityHigh,
		"Payload staging URL observed in spearphishing campaign", []string{"delivery"}, []string{"T1566", "T1071"}},
}

// demoAnalysis describes one built-in demo AI assessment.
type demoAnalysis struct {
	targetType      string
	analysisType    string
	summary         string
	details         string
	recommendations []string
	severity        core.Severity
	confidence      int
}

var demoAnalyses = []demoAnalysis{
	{"network_traffic", "anomaly_detection",
		"Unusual outbound data transfer detected",
		"Analysis shows 500% increase in outbound traffic during off-hours, indicating potential data exfiltration.",
		[]string{"Investigate source of data transfer", "Review user access logs", "Implement DLP controls"},
		core.SeverityHigh, 89},
	{"user_behavior", "behavioral_analysis",
		"Anomalous user login pattern identified",
		"User account shows login attempts from multiple geographic locations within impossible timeframe.",
		[]string{"Force password reset", "Enable MFA", "Review account permissions"},
		core.SeverityCritical, 96},
}

// buildDemoAnalyses constructs the demo analysis records, flagged so the
// live_only filters exclude them
func buildDemoAnalyses() ([]*core.AIAnalysis, error) {
	analyses := make([]*core.AIAnalysis, 0, len(demoAnalyses))
	for _, d := range demoAnalyses {
		analysis, err := core.NewAIAnalysis(d.targetType, d.analysisType, d.summary, d.details,
			d.recommendations, d.severity, d.confidence)
		if err != nil {
			return nil, fmt.Errorf("failed to build demo analysis %q: %w", d.summary, err)
		}
		analysis.IsDemo = true
		analyses = append(analyses, analysis)
	}
	return analyses, nil
}

// NewSeedCmd creates the seed command, which loads demo data into the
// configured storage backend.
func NewSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load sample security logs, demo IOCs and demo AI analyses",
		Long: `Seed populates the configured storage backend with demonstration data:
sample security logs, a handful of indicators of compromise, demo AI
analyses, a demo threat feed and an unanalyzed threat log. Useful for
local development and demos.`,
		RunE: runSeed,
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().DurationVar(&seedTimeout, "timeout", 30*time.Second, "Timeout for the seed operation")

	return cmd
}

func runSeed(cmd *cobra.Command, args []string) error {
	if noColor {
		color.NoColor = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	// Seeding is a one-shot operation, keep the log output quiet
	sugar := zap.NewNop().Sugar()

	cfg, err := bootstrap.InitConfig(sugar)
	if err != nil {
		errorColor.Fprintln(os.Stderr, "Failed to load configuration")
		return err
	}

	stores, mongoDB, err := bootstrap.InitStores(ctx, cfg, sugar)
	if err != nil {
		errorColor.Fprintln(os.Stderr, "Failed to initialize storage")
		return err
	}
	if mongoDB != nil {
		defer mongoDB.Close(ctx)
	}
	if mongoDB == nil {
		infoColor.Println("MongoDB disabled, seeding the in-memory store has no lasting effect")
	}

	created := 0
	for _, log := range core.SampleLogs() {
		if err := stores.Logs.CreateLog(ctx, log); err != nil {
			return fmt.Errorf("failed to create sample log: %w", err)
		}
		created++
	}
	successColor.Printf("Created %d sample security logs\n", created)

	created = 0
	for _, d := range demoIOCs {
		ioc, err := core.NewIOC(d.iocType, d.value, d.severity, "demo_seed", "system")
		if err != nil {
			return fmt.Errorf("failed to build demo IOC %s: %w", d.value, err)
		}
		ioc.Description = d.description
		ioc.Tags = d.tags
		ioc.MitreTechniques = d.techniques
		if err := stores.IOCs.CreateIOC(ctx, ioc); err != nil {
			return fmt.Errorf("failed to create demo IOC %s: %w", d.value, err)
		}
		created++
	}
	successColor.Printf("Created %d demo IOCs\n", created)

	analyses, err := buildDemoAnalyses()
	if err != nil {
		return err
	}
	for _, analysis := range analyses {
		if err := stores.Analyses.CreateAnalysis(ctx, analysis); err != nil {
			return fmt.Errorf("failed to create demo analysis: %w", err)
		}
	}
	successColor.Printf("Created %d demo AI analyses\n", len(analyses))

	feed, err := core.NewThreatFeed("Demo Open Feed", "https://feeds.example.com/indicators.json", core.FeedTypeJSON, 60, 80)
	if err != nil {
		return fmt.Errorf("failed to build demo feed: %w", err)
	}
	feed.Description = "Built-in demonstration feed"
	feed.Provider = "argus"
	if err := stores.Feeds.CreateFeed(ctx, feed); err != nil {
		return fmt.Errorf("failed to create demo feed: %w", err)
	}
	successColor.Println("Created demo threat feed")

	threatLog, err := core.NewThreatLog(
		`{"src_ip":"185.220.101.34","dst_port":22,"attempts":412,"window":"5m"}`,
		"demo_seed", "ssh_bruteforce")
	if err != nil {
		return fmt.Errorf("failed to build demo threat log: %w", err)
	}
	if err := stores.ThreatLogs.CreateThreatLog(ctx, threatLog); err != nil {
		return fmt.Errorf("failed to create demo threat log: %w", err)
	}
	successColor.Println("Created unanalyzed demo threat log")

	infoColor.Println("Seed complete")
	return nil
}
