package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/safeplate/haccp/internal/blob"
	"github.com/safeplate/haccp/internal/docmodel"
	"github.com/safeplate/haccp/internal/docx"
	"github.com/safeplate/haccp/internal/exportcache"
	"github.com/safeplate/haccp/internal/pdf"
	"github.com/safeplate/haccp/internal/plan"
	"github.com/safeplate/haccp/internal/rules"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

type validateFlags struct {
	maxCoolingHours float64
	failOnIssues    bool
}

type renderFlags struct {
	format string
	locale string
	out    string
}

type pruneFlags struct {
	blobDir string
	retain  int
}

type exportFlags struct {
	addr   string
	token  string
	format string
	locale string
	out    string
}

func main() {
	root := newRootCommand(os.Stdout)
	if err := root.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		// cobra already printed the error
		os.Exit(1)
	}
}

func newRootCommand(stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "haccp",
		Short:         "Validate and export HACCP plans",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var vf validateFlags
	validateCmd := &cobra.Command{
		Use:   "validate <plan.json>",
		Short: "Run the rule engine over a plan file and report findings",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(args[0], vf, stdout)
		},
	}
	vfs := validateCmd.Flags()
	vfs.Float64Var(&vf.maxCoolingHours, "max-cooling-hours", rules.DefaultMaxCoolingHours, "Maximum permitted cooling window in hours")
	vfs.BoolVar(&vf.failOnIssues, "fail-on-issues", false, "Exit 2 when critical-limit issues are found")

	var ef exportFlags
	exportCmd := &cobra.Command{
		Use:   "export <plan-id>",
		Short: "Download an export artifact from the gateway",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runExport(args[0], ef, stdout)
		},
	}
	efs := exportCmd.Flags()
	efs.StringVar(&ef.addr, "addr", envOrDefault("HACCP_ADDR", "http://localhost:8080"), "Gateway address")
	efs.StringVar(&ef.token, "token", os.Getenv("HACCP_TOKEN"), "Bearer token")
	efs.StringVar(&ef.format, "format", "pdf", "Artifact format: pdf, docx, or preview")
	efs.StringVar(&ef.locale, "locale", "", "Document locale, e.g. en or de")
	efs.StringVar(&ef.out, "out", "", "Write the artifact to this file instead of stdout")

	var rf renderFlags
	renderCmd := &cobra.Command{
		Use:   "render <plan.json>",
		Short: "Render a plan file to DOCX or PDF locally, without a gateway",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runRender(args[0], rf, stdout)
		},
	}
	rfs := renderCmd.Flags()
	rfs.StringVar(&rf.format, "format", "docx", "Output format: docx or pdf (pdf uses the legacy renderer)")
	rfs.StringVar(&rf.locale, "locale", "", "Document locale, e.g. en or de")
	rfs.StringVar(&rf.out, "out", "", "Write the document to this file instead of stdout")

	var pf pruneFlags
	pruneCmd := &cobra.Command{
		Use:   "prune <plan-id>",
		Short: "Delete all but the most recent export artifacts for a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runPrune(args[0], pf, stdout)
		},
	}
	pfs := pruneCmd.Flags()
	pfs.StringVar(&pf.blobDir, "blob-dir", envOrDefault("HACCP_BLOB_DIR", "data/exports"), "Artifact store root directory")
	pfs.IntVar(&pf.retain, "retain", 3, "Number of most recent artifacts to keep")

	root.AddCommand(validateCmd, exportCmd, renderCmd, pruneCmd)
	return root
}

func runValidate(path string, flags validateFlags, stdout io.Writer) error {
	raw, err := os.ReadFile(path) // #nosec G304 -- operator-provided plan file
	if err != nil {
		return codeError(3, "read plan: %s", err)
	}
	var p plan.Plan
	if err := json.Unmarshal(raw, &p); err != nil {
		return codeError(3, "parse plan: %s", err)
	}

	standards := rules.LimitStandards{MaxCoolingHours: flags.maxCoolingHours}
	report := plan.Evaluate(&p, standards)

	out := struct {
		Report plan.EvaluationReport `json:"report"`
		Plan   plan.Plan             `json:"plan"`
	}{Report: report, Plan: p}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}

	if flags.failOnIssues && len(report.LimitIssues) > 0 {
		return codeError(2, "%d critical-limit issue(s) found", len(report.LimitIssues))
	}
	return nil
}

var artifactRoutes = map[string]string{
	"pdf":     "export.pdf",
	"docx":    "export.docx",
	"preview": "preview.pdf",
}

func runExport(planID string, flags exportFlags, stdout io.Writer) error {
	route, ok := artifactRoutes[flags.format]
	if !ok {
		return codeError(3, "unknown format %q (want pdf, docx, or preview)", flags.format)
	}

	url := flags.addr + "/v1/plans/" + planID + "/" + route
	if flags.locale != "" {
		url += "?locale=" + flags.locale
	}
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if flags.token != "" {
		req.Header.Set("Authorization", "Bearer "+flags.token)
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return codeError(1, "request failed: %s", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return codeError(1, "gateway returned %d: %s", resp.StatusCode, string(body))
	}

	if flags.out == "" {
		_, err = stdout.Write(body)
		return err
	}
	if err := os.WriteFile(flags.out, body, 0o600); err != nil {
		return codeError(1, "write artifact: %s", err)
	}
	fmt.Fprintf(stdout, "wrote %d bytes to %s\n", len(body), flags.out)
	return nil
}

func runRender(path string, flags renderFlags, stdout io.Writer) error {
	raw, err := os.ReadFile(path) // #nosec G304 -- operator-provided plan file
	if err != nil {
		return codeError(3, "read plan: %s", err)
	}
	var p plan.Plan
	if err := json.Unmarshal(raw, &p); err != nil {
		return codeError(3, "parse plan: %s", err)
	}

	// Offline rendering never fetches logos.
	doc := docmodel.Build(p, flags.locale, nil)

	var data []byte
	switch flags.format {
	case "docx":
		data, err = docx.Render(doc)
		if err == nil {
			err = docx.CheckHealth(data)
		}
	case "pdf":
		data, err = pdf.RenderLegacy(doc)
	default:
		return codeError(3, "unknown format %q (want docx or pdf)", flags.format)
	}
	if err != nil {
		return codeError(1, "render: %s", err)
	}

	if flags.out == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(flags.out, data, 0o600); err != nil {
		return codeError(1, "write document: %s", err)
	}
	fmt.Fprintf(stdout, "wrote %d bytes to %s\n", len(data), flags.out)
	return nil
}

func runPrune(planID string, flags pruneFlags, stdout io.Writer) error {
	store, err := blob.NewFSStore(flags.blobDir)
	if err != nil {
		return codeError(1, "open artifact store: %s", err)
	}
	deleted, err := exportcache.PruneArtifacts(context.Background(), store, planID, flags.retain)
	if err != nil {
		return codeError(1, "prune: %s", err)
	}
	fmt.Fprintf(stdout, "deleted %d artifact(s) for plan %s\n", deleted, planID)
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
