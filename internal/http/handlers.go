package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/wizz/internal/failure"
	"github.com/fyrsmithlabs/wizz/internal/orchestrator"
	"github.com/fyrsmithlabs/wizz/internal/sanitize"
)

// bind decodes the request body. Decoding errors are validation failures.
func bind(c echo.Context, op string, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return failure.Validation(op, "invalid request body")
	}
	return nil
}

// handleHealth reports liveness, publish readiness and telemetry health.
// A degraded exporter does not fail the check.
func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{
		Status:       "ok",
		PublishReady: s.deps.Publisher != nil && s.deps.Publisher.Ready() == nil,
	}
	if s.deps.Telemetry != nil {
		h := s.deps.Telemetry()
		resp.Telemetry = &h
	}
	return c.JSON(http.StatusOK, resp)
}

// handleRun runs one orchestration request.
func (s *Server) handleRun(c echo.Context) error {
	var req RunRequest
	if err := bind(c, "http.run", &req); err != nil {
		return err
	}

	res, err := s.deps.Runner.Run(c.Request().Context(), orchestrator.Request{
		Goal:     req.Goal,
		Context:  req.Context,
		Mode:     orchestrator.Mode(req.Mode),
		Publish:  req.Publish,
		MaxTasks: req.MaxTasks,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// handlePlan runs the plan phase alone. No fallback is applied.
func (s *Server) handlePlan(c echo.Context) error {
	const op = "http.plan"
	if s.deps.Planner == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "planner not configured")
	}

	var req PlanRequest
	if err := bind(c, op, &req); err != nil {
		return err
	}
	goal, err := s.deps.Limits.Goal(op, req.Goal)
	if err != nil {
		return err
	}
	contextText, err := s.deps.Limits.Context(op, req.Context)
	if err != nil {
		return err
	}

	mode := orchestrator.ModeDefault
	if req.Build {
		mode = orchestrator.ModeBuild
	}
	limit := orchestrator.EffectiveTaskCap(mode, req.MaxTasks, s.deps.DefaultMaxTasks)

	out, err := s.deps.Planner.Plan(c.Request().Context(), goal, contextText, req.Build, limit)
	if err != nil {
		return err
	}

	tasks := out.Tasks()
	if len(tasks) > limit {
		tasks = tasks[:limit]
	}
	if tasks == nil {
		tasks = []string{}
	}
	return c.JSON(http.StatusOK, PlanResponse{Model: out.Model, Raw: out.Raw, Tasks: tasks, Parsed: len(tasks) > 0})
}

// handleExecute runs a single executor task.
func (s *Server) handleExecute(c echo.Context) error {
	const op = "http.execute"
	if s.deps.Executor == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "executor not configured")
	}

	var req ExecuteRequest
	if err := bind(c, op, &req); err != nil {
		return err
	}
	task, err := s.deps.Limits.Task(op, req.Task)
	if err != nil {
		return err
	}
	contextText, err := s.deps.Limits.Context(op, req.Context)
	if err != nil {
		return err
	}

	res, err := s.deps.Executor.Execute(c.Request().Context(), task, contextText, req.Build)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// handlePublish writes the posted files to the content store.
func (s *Server) handlePublish(c echo.Context) error {
	if s.deps.Publisher == nil {
		return failure.Config("github.token", "GITHUB_TOKEN")
	}

	var req PublishRequest
	if err := c.Bind(&req); err != nil {
		return failure.Validation("http.publish", "Each file must have { path, content }")
	}

	receipt, err := s.deps.Publisher.Publish(c.Request().Context(), req.Files)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, receipt)
}

// handleRepoFile reads one file from the content store.
func (s *Server) handleRepoFile(c echo.Context) error {
	repo, err := s.repository()
	if err != nil {
		return err
	}

	path, err := sanitize.RepoPath(c.QueryParam("path"))
	if err != nil {
		return failure.Wrap(failure.KindValidation, "http.repo_file", err)
	}

	fc, err := repo.ReadFile(c.Request().Context(), sanitize.Clean(path))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, FileResponse{
		OK:      true,
		Target:  repo.Target(),
		Path:    fc.Path,
		SHA:     fc.SHA,
		Size:    fc.Size,
		Content: fc.Content,
	})
}

// handleRepoTree lists every file on the configured branch.
func (s *Server) handleRepoTree(c echo.Context) error {
	repo, err := s.repository()
	if err != nil {
		return err
	}

	entries, err := repo.ListTree(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TreeResponse{OK: true, Target: repo.Target(), Files: entries})
}

// repository returns the content store, or the setting that is missing.
func (s *Server) repository() (Repository, error) {
	if s.deps.Repository != nil {
		return s.deps.Repository, nil
	}
	if s.deps.Publisher != nil {
		if err := s.deps.Publisher.Ready(); err != nil {
			return nil, err
		}
	}
	return nil, failure.Config("github.token", "GITHUB_TOKEN")
}
