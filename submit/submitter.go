// Package submit searches the catalog and queues one compute task per
// matching scene.
package submit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/delange/planetary-computer-batch/catalog"
	"github.com/delange/planetary-computer-batch/compute"
	"github.com/delange/planetary-computer-batch/config"
	"github.com/delange/planetary-computer-batch/logger"
	"github.com/delange/planetary-computer-batch/metrics"
	"github.com/delange/planetary-computer-batch/task"
)

// Searcher finds the scenes matching a filter.
type Searcher interface {
	Search(ctx context.Context, f catalog.Filter) ([]catalog.Scene, error)
}

// Result describes a completed submit run.
type Result struct {
	JobID  string
	Filter catalog.Filter
	Scenes []catalog.Scene
	Tasks  []*task.Task
}

// Submitter runs the search and submission steps against one backend.
// Submission is sequential and stops at the first platform error.
type Submitter struct {
	conf     config.Config
	searcher Searcher
	backend  compute.Backend
	builder  *task.Builder
	metrics  *metrics.Recorder
	log      *logger.Logger
	now      func() time.Time
}

// NewSubmitter returns a new Submitter.
func NewSubmitter(conf config.Config, searcher Searcher, backend compute.Backend, log *logger.Logger) (*Submitter, error) {
	builder, err := task.NewBuilder(conf.Task)
	if err != nil {
		return nil, err
	}
	return &Submitter{
		conf:     conf,
		searcher: searcher,
		backend:  backend,
		builder:  builder,
		metrics:  metrics.NewRecorder(conf.Metrics),
		log:      log,
		now:      time.Now,
	}, nil
}

// Metrics returns the run metrics.
func (s *Submitter) Metrics() *metrics.Recorder {
	return s.metrics
}

// Filter builds the search filter from the configured search input.
// Invalid values fall back to defaults, which is logged.
func (s *Submitter) Filter() (catalog.Filter, error) {
	f, err := catalog.NewFilter(s.conf.Search, s.now())
	if err != nil {
		return f, err
	}
	for _, d := range f.Defaulted {
		s.log.Info("Invalid or missing search input, using default", "field", d)
	}
	s.log.Debug("Search filter",
		"collection", f.Collection,
		"dateRange", f.DateRange(),
		"cloudCover", f.CloudCover,
		"area", f.Area)
	return f, nil
}

// Search returns the scenes matching the filter.
func (s *Submitter) Search(ctx context.Context, f catalog.Filter) ([]catalog.Scene, error) {
	scenes, err := s.searcher.Search(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("searching catalog: %w", err)
	}
	s.metrics.ScenesFound(len(scenes))
	s.log.Info("Found scenes", "count", len(scenes), "collection", f.Collection, "dateRange", f.DateRange())
	return scenes, nil
}

// SubmitJob creates the job tasks are added to. An existing job is not
// checked for: the platform conflict is returned as an error.
func (s *Submitter) SubmitJob(ctx context.Context, jobID, poolID string) error {
	if err := s.backend.CreateJob(ctx, jobID, poolID); err != nil {
		s.logPlatformError("Creating job failed", err)
		return err
	}
	s.log.Info("Created job", "jobID", jobID, "poolID", poolID)
	return nil
}

// EnqueueTasks adds one task per scene to the job, in scene order. It stops
// and returns the error of the first task the platform rejects, along with
// the tasks added so far.
func (s *Submitter) EnqueueTasks(ctx context.Context, jobID string, scenes []catalog.Scene, destination string) ([]*task.Task, error) {
	var tasks []*task.Task

	for _, scene := range scenes {
		if err := ctx.Err(); err != nil {
			return tasks, err
		}

		t, err := s.builder.Build(scene, destination)
		if err != nil {
			return tasks, err
		}

		if dir := s.conf.Task.FootprintDir; dir != "" {
			p, err := task.WriteFootprint(dir, scene)
			if err != nil {
				return tasks, err
			}
			s.log.Debug("Wrote footprint", "sceneID", scene.ID, "path", p)
		}

		if err := s.backend.AddTask(ctx, jobID, t); err != nil {
			s.logPlatformError("Adding task failed", err, "taskID", t.ID, "sceneID", scene.ID)
			return tasks, fmt.Errorf("adding task for scene %s: %w", scene.ID, err)
		}
		s.metrics.TaskSubmitted(s.conf.Compute)
		s.log.Info("Added task", "jobID", jobID, "taskID", t.ID, "sceneID", scene.ID)
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Run searches the catalog, creates the job and adds one task per scene.
// Backends that run tasks in-process are waited for before Run returns.
func (s *Submitter) Run(ctx context.Context) (res *Result, err error) {
	start := s.now()
	defer func() {
		s.metrics.RunFinished(s.now().Sub(start), err == nil)
	}()

	f, err := s.Filter()
	if err != nil {
		return nil, err
	}
	res = &Result{JobID: s.conf.Job.ID, Filter: f}

	res.Scenes, err = s.Search(ctx, f)
	if err != nil {
		return res, err
	}
	if len(res.Scenes) == 0 {
		s.log.Warn("No scenes match the search filter")
	}

	destination, err := Destination(s.conf)
	if err != nil {
		return res, err
	}

	if err = s.SubmitJob(ctx, s.conf.Job.ID, s.conf.Job.PoolID); err != nil {
		return res, err
	}

	res.Tasks, err = s.EnqueueTasks(ctx, s.conf.Job.ID, res.Scenes, destination)
	if err != nil {
		return res, err
	}

	if w, ok := s.backend.(compute.Waiter); ok {
		s.log.Info("Waiting for tasks to finish", "count", len(res.Tasks))
		if err = w.Wait(); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Close releases the backend's resources, if it holds any.
func (s *Submitter) Close() error {
	if c, ok := s.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Submitter) logPlatformError(msg string, err error, args ...interface{}) {
	var perr *compute.PlatformError
	if !errors.As(err, &perr) {
		s.log.Error(msg, append(args, "error", err)...)
		return
	}
	s.metrics.PlatformError(strings.ToLower(perr.Backend), perr.Code)
	s.log.Error(msg, append(args, perr.LogFields()...)...)
}
