package main

import (
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/wizz/internal/contract"
	wizzhttp "github.com/fyrsmithlabs/wizz/internal/http"
	"github.com/fyrsmithlabs/wizz/internal/orchestrator"
	"github.com/fyrsmithlabs/wizz/internal/publish"
	"github.com/fyrsmithlabs/wizz/internal/sanitize"
)

// runCmd submits a default-mode run
var runCmd = &cobra.Command{
	Use:   "run <goal>",
	Short: "Answer a goal with a Senior plan and Junior tasks",
	Long: `Submit a goal in default mode. The Senior plans up to three tasks,
the Junior executes them in order, and the Senior writes the final answer.

Examples:
  # Ask a question
  wizz run "Compare three queueing strategies for a job runner"

  # Pass context from a file
  wizz run "Summarize this design" --context-file design.md`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

// buildCmd submits a build or fast-build run
var buildCmd = &cobra.Command{
	Use:   "build <goal>",
	Short: "Build a set of files for a goal",
	Long: `Submit a goal in build mode. The Junior returns files for each task and
the Senior reviews the merged result. With --fast a single Junior pass
produces the files directly.

Examples:
  # Build and write the files locally
  wizz build "A landing page for a bakery" --out ./site

  # Build in one pass and publish to the content store
  wizz build "A todo app" --fast --publish`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

// planCmd runs the plan phase alone
var planCmd = &cobra.Command{
	Use:   "plan <goal>",
	Short: "Show the Senior's task plan for a goal",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

// publishCmd publishes a local directory
var publishCmd = &cobra.Command{
	Use:   "publish <dir>",
	Short: "Publish the files under a directory to the content store",
	Long: `Publish every regular file under dir, keyed by its path relative to dir.
Hidden files and directories are skipped. Files are written in order and a
failure part way through reports the files already written.

Examples:
  wizz publish ./site`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

// readCmd reads one file from the content store
var readCmd = &cobra.Command{
	Use:   "read <path>",
	Short: "Print a file from the content store",
	Args:  cobra.ExactArgs(1),
	RunE:  runRead,
}

// treeCmd lists the content store
var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "List the files in the content store",
	RunE:  runTree,
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check wizzd server health",
	Long: `Check the health status of the wizzd HTTP server.

Examples:
  # Check health
  wizz health

  # Check health on a different server
  wizz health --server http://localhost:8080`,
	RunE: runHealth,
}

func runRun(cmd *cobra.Command, args []string) error {
	contextText, err := contextFlag(cmd)
	if err != nil {
		return err
	}

	var res orchestrator.Result
	body, err := newClient(serverURL, runTimeout).post(cmd.Context(), "/api/v1/run", wizzhttp.RunRequest{
		Goal:    args[0],
		Context: contextText,
		Mode:    string(orchestrator.ModeDefault),
	}, &res)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeRaw(cmd.OutOrStdout(), body)
	}
	return printText(cmd.OutOrStdout(), &res)
}

func runBuild(cmd *cobra.Command, args []string) error {
	contextText, err := contextFlag(cmd)
	if err != nil {
		return err
	}
	fast, _ := cmd.Flags().GetBool("fast")
	doPublish, _ := cmd.Flags().GetBool("publish")
	out, _ := cmd.Flags().GetString("out")

	mode := orchestrator.ModeBuild
	if fast {
		mode = orchestrator.ModeFastBuild
	}
	req := wizzhttp.RunRequest{
		Goal:     args[0],
		Context:  contextText,
		Mode:     string(mode),
		Publish:  doPublish,
		MaxTasks: maxTasksFlag(cmd),
	}

	var res orchestrator.Result
	body, err := newClient(serverURL, runTimeout).post(cmd.Context(), "/api/v1/run", req, &res)
	if err != nil {
		return err
	}
	if res.BuildResult == nil {
		return fmt.Errorf("server returned no build result")
	}

	if out != "" {
		if err := writeFiles(out, res.Files); err != nil {
			return err
		}
	}
	if jsonOutput {
		return writeRaw(cmd.OutOrStdout(), body)
	}
	return printBuild(cmd.OutOrStdout(), res.BuildResult, out)
}

func runPlan(cmd *cobra.Command, args []string) error {
	contextText, _ := cmd.Flags().GetString("context")
	build, _ := cmd.Flags().GetBool("build")

	var res wizzhttp.PlanResponse
	body, err := newClient(serverURL, requestTimeout).post(cmd.Context(), "/api/v1/plan", wizzhttp.PlanRequest{
		Goal:     args[0],
		Context:  contextText,
		Build:    build,
		MaxTasks: maxTasksFlag(cmd),
	}, &res)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeRaw(cmd.OutOrStdout(), body)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Model: %s\n", res.Model)
	if !res.Parsed {
		fmt.Fprintf(w, "Plan could not be parsed. Raw output:\n%s\n", res.Raw)
		return nil
	}
	for i, t := range res.Tasks {
		fmt.Fprintf(w, "%d. %s\n", i+1, t)
	}
	return nil
}

func runPublish(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args[0])
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files to publish under %s", args[0])
	}

	var receipt publish.Receipt
	body, err := newClient(serverURL, runTimeout).post(cmd.Context(), "/api/v1/publish", wizzhttp.PublishRequest{Files: files}, &receipt)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeRaw(cmd.OutOrStdout(), body)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Published %d file(s) to %s\n", len(receipt.Wrote), receipt.Target)
	return nil
}

func runRead(cmd *cobra.Command, args []string) error {
	var res wizzhttp.FileResponse
	body, err := newClient(serverURL, requestTimeout).get(cmd.Context(), "/api/v1/repo/file", url.Values{"path": {args[0]}}, &res)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeRaw(cmd.OutOrStdout(), body)
	}
	_, err = io.WriteString(cmd.OutOrStdout(), res.Content)
	return err
}

func runTree(cmd *cobra.Command, args []string) error {
	var res wizzhttp.TreeResponse
	body, err := newClient(serverURL, requestTimeout).get(cmd.Context(), "/api/v1/repo/tree", nil, &res)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeRaw(cmd.OutOrStdout(), body)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s (%d files)\n", res.Target, len(res.Files))
	for _, f := range res.Files {
		fmt.Fprintf(w, "%8d  %s\n", f.Size, f.Path)
	}
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	var res wizzhttp.HealthResponse
	body, err := newClient(serverURL, requestTimeout).get(cmd.Context(), "/health", nil, &res)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeRaw(cmd.OutOrStdout(), body)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Server Status: %s\n", res.Status)
	fmt.Fprintf(cmd.OutOrStdout(), "Publish Ready: %t\n", res.PublishReady)
	return nil
}

// contextFlag returns --context, or the contents of --context-file when set.
func contextFlag(cmd *cobra.Command) (string, error) {
	text, _ := cmd.Flags().GetString("context")
	path, _ := cmd.Flags().GetString("context-file")
	if path == "" {
		return text, nil
	}
	if text != "" {
		return "", fmt.Errorf("--context and --context-file are mutually exclusive")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read context file %s: %w", path, err)
	}
	return string(b), nil
}

// maxTasksFlag returns nil when --max-tasks was not given so the server default applies.
func maxTasksFlag(cmd *cobra.Command) *int {
	if !cmd.Flags().Changed("max-tasks") {
		return nil
	}
	n, _ := cmd.Flags().GetInt("max-tasks")
	return &n
}

func printText(w io.Writer, res *orchestrator.Result) error {
	if res.TextResult == nil {
		return fmt.Errorf("server returned no answer")
	}
	log := res.DelegationLog
	if log.Plan != nil && log.Plan.Fallback {
		fmt.Fprintln(w, "(plan unusable, ran the goal as a single task)")
	}
	for i, t := range log.Tasks {
		fmt.Fprintf(w, "Task %d: %s\n", i+1, t)
	}
	if len(log.Tasks) > 0 {
		fmt.Fprintln(w)
	}
	_, err := fmt.Fprintln(w, res.FinalAnswer)
	return err
}

func printBuild(w io.Writer, res *orchestrator.BuildResult, out string) error {
	fmt.Fprintf(w, "Built %d file(s):\n", len(res.FilesBuilt))
	for _, p := range res.FilesBuilt {
		fmt.Fprintf(w, "  %s\n", p)
	}
	if res.FinalSummary != "" {
		fmt.Fprintf(w, "\n%s\n", res.FinalSummary)
	}
	if out != "" {
		fmt.Fprintf(w, "Wrote files under %s\n", out)
	}
	if res.PublishStatus != "" {
		fmt.Fprintln(w, res.PublishStatus)
	}
	return nil
}

// writeFiles writes files under dir. Paths are validated the same way the
// publisher validates them, so a model cannot write outside dir.
func writeFiles(dir string, files []contract.File) error {
	for _, f := range files {
		p, err := sanitize.RepoPath(f.Path)
		if err != nil {
			return fmt.Errorf("refusing to write %q: %w", f.Path, err)
		}
		target := filepath.Join(dir, filepath.FromSlash(sanitize.Clean(p)))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
		if err := os.WriteFile(target, []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", p, err)
		}
	}
	return nil
}

// collectFiles reads every regular, non-hidden file under root.
func collectFiles(root string) ([]contract.File, error) {
	var files []contract.File
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		files = append(files, contract.File{Path: filepath.ToSlash(rel), Content: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func writeRaw(w io.Writer, body []byte) error {
	_, err := w.Write(body)
	return err
}
