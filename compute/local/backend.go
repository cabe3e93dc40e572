// Package local runs scene tasks on the local host, emulating the Azure Batch
// task environment. It is useful for development and small runs.
package local

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/delange/planetary-computer-batch/compute"
	"github.com/delange/planetary-computer-batch/config"
	"github.com/delange/planetary-computer-batch/logger"
	"github.com/delange/planetary-computer-batch/task"
	"github.com/delange/planetary-computer-batch/util/fsutil"
	"github.com/gammazero/workerpool"
	"github.com/hashicorp/go-multierror"
	"github.com/kballard/go-shellquote"
)

// NewBackend returns a new local Backend instance. Tasks run on a pool of
// conf.Concurrency workers until ctx is canceled.
//
// The startup directory is prepared the way a batch pool start task would:
// the running pcbatch binary is copied to <StartupDir>/wd/pcbatch.
func NewBackend(ctx context.Context, conf config.Local, log *logger.Logger) (*Backend, error) {
	if err := fsutil.EnsureDir(conf.WorkDir); err != nil {
		return nil, err
	}
	if err := prepareStartupDir(ctx, conf.StartupDir); err != nil {
		return nil, err
	}

	concurrency := conf.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Backend{
		ctx:  ctx,
		conf: conf,
		log:  log,
		pool: workerpool.New(concurrency),
	}, nil
}

// Backend represents the local backend.
type Backend struct {
	ctx  context.Context
	conf config.Local
	log  *logger.Logger
	pool *workerpool.WorkerPool

	mtx  sync.Mutex
	errs *multierror.Error
}

func prepareStartupDir(ctx context.Context, dir string) error {
	dst := filepath.Join(dir, "wd", "pcbatch")
	if _, err := os.Stat(dst); err == nil {
		return nil
	}
	bin, err := compute.DetectBinaryPath()
	if err != nil {
		return err
	}
	if err := fsutil.CopyFile(ctx, bin, dst); err != nil {
		return err
	}
	return os.Chmod(dst, 0755)
}

func (b *Backend) jobDir(jobID string) string {
	return filepath.Join(b.conf.WorkDir, jobID)
}

// CreateJob creates the job directory. It fails with a conflict if the job
// directory already exists.
func (b *Backend) CreateJob(ctx context.Context, jobID, poolID string) error {
	dir := b.jobDir(jobID)
	if _, err := os.Stat(dir); err == nil {
		return &compute.PlatformError{
			Backend:    config.LocalCompute,
			Op:         "create job",
			StatusCode: 409,
			Code:       "JobExists",
			Message:    "The specified job already exists.",
			Values:     []compute.KeyValue{{Key: "jobDir", Value: dir}},
		}
	}
	if err := fsutil.EnsureDir(dir); err != nil {
		return &compute.PlatformError{Backend: config.LocalCompute, Op: "create job", Err: err}
	}
	b.log.Info("Created job", "jobID", jobID, "jobDir", dir)
	return nil
}

// AddTask queues the task on the worker pool. The task runs once a worker
// is free.
func (b *Backend) AddTask(ctx context.Context, jobID string, t *task.Task) error {
	args, err := shellquote.Split(t.CommandLine)
	if err != nil || len(args) == 0 {
		return &compute.PlatformError{
			Backend: config.LocalCompute,
			Op:      "add task",
			Code:    "InvalidCommandLine",
			Message: fmt.Sprintf("invalid command line %q", t.CommandLine),
			Err:     err,
		}
	}

	workdir := filepath.Join(b.jobDir(jobID), t.ID)
	if _, err := os.Stat(workdir); err == nil {
		return &compute.PlatformError{
			Backend:    config.LocalCompute,
			Op:         "add task",
			StatusCode: 409,
			Code:       "TaskExists",
			Message:    "The specified task already exists.",
			Values:     []compute.KeyValue{{Key: "taskID", Value: t.ID}},
		}
	}
	if err := fsutil.EnsureDir(workdir); err != nil {
		return &compute.PlatformError{Backend: config.LocalCompute, Op: "add task", Err: err}
	}

	b.pool.Submit(func() {
		if err := b.run(jobID, t, args, workdir); err != nil {
			b.log.Error("Task failed", "jobID", jobID, "taskID", t.ID, "error", err)
			b.mtx.Lock()
			b.errs = multierror.Append(b.errs, fmt.Errorf("task %s: %w", t.ID, err))
			b.mtx.Unlock()
			return
		}
		b.log.Info("Task complete", "jobID", jobID, "taskID", t.ID)
	})
	return nil
}

// Wait blocks until every queued task has finished and returns the
// aggregated task failures.
func (b *Backend) Wait() error {
	b.pool.StopWait()
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.errs.ErrorOrNil()
}

func (b *Backend) run(jobID string, t *task.Task, args []string, workdir string) error {
	stdout, err := os.Create(filepath.Join(workdir, "stdout.txt"))
	if err != nil {
		return err
	}
	defer stdout.Close()
	stderr, err := os.Create(filepath.Join(workdir, "stderr.txt"))
	if err != nil {
		return err
	}
	defer stderr.Close()

	if t.Image != "" {
		b.log.Debug("Running task on the host, ignoring container image", "taskID", t.ID, "image", t.Image)
	}

	cmd := exec.CommandContext(b.ctx, args[0], args[1:]...)
	cmd.Dir = workdir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = append(os.Environ(),
		"AZ_BATCH_NODE_STARTUP_DIR="+b.conf.StartupDir,
		"AZ_BATCH_TASK_WORKING_DIR="+workdir,
		"AZ_BATCH_JOB_ID="+jobID,
		"AZ_BATCH_TASK_ID="+t.ID,
	)

	runErr := cmd.Run()
	if runErr != nil {
		runErr = fmt.Errorf("running command: %w", runErr)
	}

	var errs *multierror.Error
	errs = multierror.Append(errs, runErr)
	for _, o := range t.OutputFiles {
		if !shouldUpload(o.Condition, runErr == nil) {
			continue
		}
		errs = multierror.Append(errs, b.upload(jobID, workdir, o))
	}
	return errs.ErrorOrNil()
}

func shouldUpload(c task.UploadCondition, success bool) bool {
	switch c {
	case task.TaskSuccess:
		return success
	case task.TaskFailure:
		return !success
	default:
		return true
	}
}

// upload copies files matching the output pattern to the destination
// directory, <WorkDir>/<jobID>/output by default.
func (b *Backend) upload(jobID, workdir string, o task.OutputFile) error {
	dest := o.Destination
	if dest == "" {
		dest = filepath.Join(b.jobDir(jobID), "output")
	}

	files, err := fsutil.Glob(workdir, o.FilePattern)
	if err != nil {
		return fmt.Errorf("matching %s: %w", o.FilePattern, err)
	}
	for _, f := range files {
		if err := fsutil.CopyFile(b.ctx, f.Abs, filepath.Join(dest, f.Rel)); err != nil {
			return err
		}
		b.log.Debug("Uploaded output file", "file", f.Rel, "destination", dest, "size", f.Size)
	}
	return nil
}
