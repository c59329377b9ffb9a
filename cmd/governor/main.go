// Package main provides the governor CLI: it loads a capability pack, plans
// a run, renders the plan for human review, and — once the plan is approved —
// executes it against a real browser with gate prompts on the terminal.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"

	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/browser"
	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/pack"
	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/planner"
	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/runner"
)

const version = "0.1.0"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	gateTagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)

// paramFlags collects repeated -param key=value flags.
type paramFlags map[string]string

func (p paramFlags) String() string { return fmt.Sprintf("%v", map[string]string(p)) }

func (p paramFlags) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok {
		return fmt.Errorf("expected key=value, got '%s'", value)
	}
	p[key] = val
	return nil
}

// cliConfig holds command-line configuration.
type cliConfig struct {
	packPath    string
	params      paramFlags
	planOnly    bool
	approve     bool
	autoApprove bool
	headless    bool
	outputFile  string
	showVersion bool
}

func parseFlags() *cliConfig {
	config := &cliConfig{params: make(paramFlags)}

	flag.StringVar(&config.packPath, "pack", "", "Path to the capability pack YAML (required)")
	flag.Var(config.params, "param", "Interpolation parameter as key=value (repeatable)")
	flag.BoolVar(&config.planOnly, "plan-only", false, "Generate and render the plan, then exit")
	flag.BoolVar(&config.approve, "approve", false, "Mark the plan approved and execute it")
	flag.BoolVar(&config.autoApprove, "yes", false, "Approve every gate without prompting (ADVISORY and MANDATORY)")
	flag.BoolVar(&config.headless, "headless", true, "Run the browser headless")
	flag.StringVar(&config.outputFile, "output", "", "Write the execution result JSON to this file")
	flag.BoolVar(&config.showVersion, "version", false, "Show version and exit")
	flag.Parse()

	return config
}

func main() {
	config := parseFlags()

	if config.showVersion {
		fmt.Printf("governor v%s\n", version)
		return
	}
	if config.packPath == "" {
		fmt.Fprintln(os.Stderr, "error: -pack is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, config); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, config *cliConfig) error {
	p, err := pack.Load(config.packPath)
	if err != nil {
		return err
	}

	plan := planner.Generate(p, config.params)
	fmt.Println(renderPlan(p, plan))

	if config.planOnly {
		if !plan.Valid() {
			os.Exit(1)
		}
		return nil
	}

	if !plan.Valid() {
		return fmt.Errorf("plan has validation violations; refusing to execute")
	}
	if !config.approve {
		return fmt.Errorf("plan requires approval; re-run with -approve to execute")
	}
	plan.Approve()

	session, err := browser.NewSession(browser.Options{Headless: config.headless})
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer session.Close()

	r, err := runner.New(p, plan, browser.NewExecutor(session), runner.Options{
		Approve:    gateApprover(config.autoApprove),
		OnProgress: printProgress,
	})
	if err != nil {
		return err
	}

	result := r.Execute(ctx)
	fmt.Println(renderResult(result))

	if config.outputFile != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		if err := os.WriteFile(config.outputFile, data, 0600); err != nil {
			return fmt.Errorf("failed to write result file: %w", err)
		}
		fmt.Printf("Result written to %s\n", config.outputFile)
	}

	if result.Status != runner.StatusCompleted {
		os.Exit(1)
	}
	return nil
}

// gateApprover builds the gate decision callback: either approve
// everything, or prompt on the terminal per gate.
func gateApprover(autoApprove bool) runner.ApprovalFunc {
	if autoApprove {
		return func(ctx context.Context, event runner.GateEvent) (bool, error) {
			fmt.Printf("%s gate for step '%s' auto-approved (-yes)\n",
				gateTagStyle.Render(string(event.GateType)), event.StepID)
			return true, nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	return func(ctx context.Context, event runner.GateEvent) (bool, error) {
		fmt.Printf("\n%s gate — step '%s' (%s)\n", gateTagStyle.Render(string(event.GateType)), event.StepID, event.Action)
		if event.Rationale != "" {
			fmt.Printf("  rationale: %s\n", event.Rationale)
		}
		for _, factor := range event.RiskFactors {
			fmt.Printf("  risk: %s\n", warnStyle.Render(factor))
		}
		fmt.Print("Approve this step? [y/N]: ")

		line, err := reader.ReadString('\n')
		if err != nil {
			return false, fmt.Errorf("failed to read decision: %w", err)
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	}
}

func printProgress(index, total int, step pack.Step, status runner.Status) {
	fmt.Printf("%s\n", subtleStyle.Render(fmt.Sprintf("[%d/%d] %s (%s) — %s", index+1, total, step.ID, step.Action, status)))
}

// renderPlan formats the plan for terminal review: identity, validations
// with every violation, and the per-step classification.
func renderPlan(p *pack.Pack, plan *planner.Plan) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Plan %s — pack %s@%s", plan.ID[:8], plan.PackID, plan.PackVersion)))
	b.WriteString("\n\n")

	b.WriteString(renderValidation("Domain validation", plan.DomainValidation))
	b.WriteString(renderValidation("Action validation", plan.ActionValidation))

	if len(plan.Domains) > 0 {
		b.WriteString(fmt.Sprintf("Domains: %s\n", strings.Join(plan.Domains, ", ")))
	}
	if len(plan.RiskFlags) > 0 {
		b.WriteString(fmt.Sprintf("Risk flags: %s\n", warnStyle.Render(strings.Join(plan.RiskFlags, ", "))))
	}
	b.WriteString("\n")

	for i, planned := range plan.Steps {
		gate := ""
		if planned.RequiresGate {
			gate = gateTagStyle.Render(fmt.Sprintf(" [gate: %s]", planned.GateType))
		}
		b.WriteString(fmt.Sprintf("%2d. %s — %s (%s)%s\n", i+1, planned.Step.ID, planned.Step.Action, planned.Tier, gate))
		if planned.Step.Target.URL != "" {
			b.WriteString(subtleStyle.Render(fmt.Sprintf("      %s\n", planned.Step.Target.URL)))
		}
	}

	b.WriteString(fmt.Sprintf("\nApproval status: %s\n", plan.ApprovalStatus))
	return b.String()
}

func renderValidation(label string, result planner.ValidationResult) string {
	if result.Valid {
		return fmt.Sprintf("%s: %s\n", label, passStyle.Render("PASS"))
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s: %s\n", label, failStyle.Render("FAIL")))
	for _, violation := range result.Violations {
		b.WriteString(fmt.Sprintf("  - %s\n", violation))
	}
	return b.String()
}

// renderResult summarizes a finished run.
func renderResult(result *runner.Result) string {
	var b strings.Builder

	statusStyle := passStyle
	if result.Status != runner.StatusCompleted {
		statusStyle = failStyle
	}
	b.WriteString(fmt.Sprintf("\n%s — %s (%d/%d steps)\n",
		titleStyle.Render("Run "+result.RunID[:8]), statusStyle.Render(string(result.Status)),
		result.StepsCompleted, result.StepsTotal))

	if result.StopCondition != nil {
		b.WriteString(fmt.Sprintf("Stop condition: %s (%s)\n", result.StopCondition.Condition, result.StopCondition.Detail))
	}
	for _, errMsg := range result.Errors {
		b.WriteString(failStyle.Render(fmt.Sprintf("error: %s\n", errMsg)))
	}
	b.WriteString(fmt.Sprintf("Evidence records: %d\n", len(result.Evidence)))
	b.WriteString(subtleStyle.Render(fmt.Sprintf("package hash:  %s\n", result.PackageHash)))
	b.WriteString(subtleStyle.Render(fmt.Sprintf("policy linkage: %s\n", result.PolicyLinkageHash)))
	return b.String()
}
