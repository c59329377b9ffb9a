package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/pack"
	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/runner"
)

// Executor maps governance steps onto one browser session. It implements
// runner.ActionExecutor.
type Executor struct {
	session *Session
}

// NewExecutor wraps a session for use by a runner.
func NewExecutor(session *Session) *Executor {
	return &Executor{session: session}
}

// Execute performs one step's action and reports the resulting page state.
// Unknown action types are an error: the executor acts only on the closed
// action set the pack vocabulary defines.
func (e *Executor) Execute(ctx context.Context, step pack.Step) (*runner.StepOutcome, error) {
	s := e.session

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var downloadName string

	switch step.Action {
	case pack.ActionNavigate:
		if step.Target.URL == "" {
			return nil, fmt.Errorf("step '%s': navigate requires a target URL", step.ID)
		}
		if _, err := s.page.Goto(step.Target.URL, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateLoad,
			Timeout:   &s.timeout,
		}); err != nil {
			return nil, fmt.Errorf("navigation failed: %w", err)
		}

	case pack.ActionClick, pack.ActionSubmit:
		if step.Target.Selector == "" {
			return nil, fmt.Errorf("step '%s': %s requires a target selector", step.ID, step.Action)
		}
		if err := s.page.Click(step.Target.Selector, playwright.PageClickOptions{
			Timeout: &s.timeout,
		}); err != nil {
			return nil, fmt.Errorf("click failed: %w", err)
		}

	case pack.ActionFill, pack.ActionLogin:
		if step.Target.Selector == "" {
			return nil, fmt.Errorf("step '%s': %s requires a target selector", step.ID, step.Action)
		}
		if err := s.page.Fill(step.Target.Selector, step.Value, playwright.PageFillOptions{
			Timeout: &s.timeout,
		}); err != nil {
			return nil, fmt.Errorf("fill failed: %w", err)
		}

	case pack.ActionDownload:
		if step.Target.Selector == "" {
			return nil, fmt.Errorf("step '%s': download requires a target selector", step.ID)
		}
		download, err := s.page.ExpectDownload(func() error {
			return s.page.Click(step.Target.Selector, playwright.PageClickOptions{Timeout: &s.timeout})
		})
		if err != nil {
			return nil, fmt.Errorf("download failed: %w", err)
		}
		downloadName = download.SuggestedFilename()

	case pack.ActionWait:
		if err := e.wait(step); err != nil {
			return nil, err
		}

	case pack.ActionScroll:
		if _, err := s.page.Evaluate("window.scrollBy(0, window.innerHeight)"); err != nil {
			return nil, fmt.Errorf("scroll failed: %w", err)
		}

	case pack.ActionExtract, pack.ActionRead, pack.ActionScreenshot:
		// Read-only actions; the shared capture below does the work.

	default:
		return nil, fmt.Errorf("step '%s': action '%s' is not supported by the browser executor", step.ID, step.Action)
	}

	outcome, err := e.capture(step)
	if err != nil {
		return nil, err
	}
	if downloadName != "" {
		if outcome.Data == nil {
			outcome.Data = make(map[string]string)
		}
		outcome.Data[step.ID+"_file"] = downloadName
	}
	return outcome, nil
}

// wait blocks on the step's wait condition: a selector when the target has
// one, otherwise a fixed duration parsed from the step value.
func (e *Executor) wait(step pack.Step) error {
	if step.Target.Selector != "" {
		if _, err := e.session.page.WaitForSelector(step.Target.Selector, playwright.PageWaitForSelectorOptions{
			Timeout: &e.session.timeout,
		}); err != nil {
			return fmt.Errorf("wait failed: %w", err)
		}
		return nil
	}

	duration, err := time.ParseDuration(step.Value)
	if err != nil {
		return fmt.Errorf("step '%s': wait requires a selector or a duration value: %w", step.ID, err)
	}
	e.session.page.WaitForTimeout(float64(duration.Milliseconds()))
	return nil
}

// capture collects the page state and the artifacts a step may need:
// current URL, full page content for stop-condition scanning and DOM
// snapshots, a screenshot, and extracted text for extract/read steps.
func (e *Executor) capture(step pack.Step) (*runner.StepOutcome, error) {
	s := e.session

	content, err := s.page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}

	outcome := &runner.StepOutcome{
		Page: runner.PageState{
			URL:     s.page.URL(),
			Content: content,
		},
		DOM: content,
	}

	if screenshot, err := s.page.Screenshot(); err == nil {
		outcome.Screenshot = screenshot
	}

	if step.Action == pack.ActionExtract || step.Action == pack.ActionRead {
		text, err := e.extractText(step.Target.Selector)
		if err != nil {
			return nil, err
		}
		outcome.Data = map[string]string{step.ID: text}
	}

	return outcome, nil
}

// extractText returns the text content of the selector, or of the body when
// no selector is given.
func (e *Executor) extractText(selector string) (string, error) {
	if selector == "" {
		selector = "body"
	}
	element, err := e.session.page.QuerySelector(selector)
	if err != nil {
		return "", fmt.Errorf("selector query failed: %w", err)
	}
	if element == nil {
		return "", fmt.Errorf("no element found matching selector: %s", selector)
	}
	text, err := element.TextContent()
	if err != nil {
		return "", fmt.Errorf("text extraction failed: %w", err)
	}
	return text, nil
}
