// Package aws_batch contains code for running scene tasks on AWS Batch.
package aws_batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/batch"
	"github.com/aws/aws-sdk-go/service/batch/batchiface"
	"github.com/delange/planetary-computer-batch/compute"
	"github.com/delange/planetary-computer-batch/config"
	"github.com/delange/planetary-computer-batch/logger"
	"github.com/delange/planetary-computer-batch/task"
	"github.com/delange/planetary-computer-batch/util"
	awsutil "github.com/delange/planetary-computer-batch/util/aws"
	"github.com/kballard/go-shellquote"
)

// Presigner creates URLs which accept an upload of a single object.
type Presigner interface {
	PresignPut(rawurl, name string) (string, error)
}

// NewBackend returns a new AWS Batch Backend instance.
func NewBackend(conf config.AWSBatch, presigner Presigner, log *logger.Logger) (*Backend, error) {
	sess, err := awsutil.NewAWSSession(&conf.AWSConfig)
	if err != nil {
		return nil, fmt.Errorf("error occurred creating batch client: %v", err)
	}

	return &Backend{
		client:    batch.New(sess),
		conf:      conf,
		presigner: presigner,
		log:       log,
		queues:    map[string]string{},
	}, nil
}

// Backend submits one AWS Batch job per task. AWS Batch has no job
// container, so the pcbatch job ID is attached to every submitted job as
// a parameter and a tag.
type Backend struct {
	client    batchiface.BatchAPI
	conf      config.AWSBatch
	presigner Presigner
	log       *logger.Logger

	mtx    sync.Mutex
	queues map[string]string
}

// queue returns the job queue for a pool: the pool ID when set, otherwise the
// configured queue.
func (b *Backend) queue(poolID string) string {
	if poolID != "" {
		return poolID
	}
	return b.conf.JobQueue
}

func (b *Backend) jobQueue(jobID string) string {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if q, ok := b.queues[jobID]; ok {
		return q
	}
	return b.conf.JobQueue
}

// CreateJob checks that the job queue exists and remembers it for the
// tasks of the job.
func (b *Backend) CreateJob(ctx context.Context, jobID, poolID string) error {
	queue := b.queue(poolID)

	resp, err := b.client.DescribeJobQueuesWithContext(ctx, &batch.DescribeJobQueuesInput{
		JobQueues: []*string{aws.String(queue)},
	})
	if err != nil {
		return platformError("create job", err)
	}
	if len(resp.JobQueues) == 0 {
		return &compute.PlatformError{
			Backend: config.AWSBatchCompute,
			Op:      "create job",
			Code:    "JobQueueNotFound",
			Message: fmt.Sprintf("job queue %q does not exist", queue),
			Values:  []compute.KeyValue{{Key: "jobQueue", Value: queue}},
		}
	}

	b.mtx.Lock()
	b.queues[jobID] = queue
	b.mtx.Unlock()

	b.log.Info("Using job queue", "jobID", jobID, "jobQueue", queue, "state", aws.StringValue(resp.JobQueues[0].State))
	return nil
}

// AddTask submits the task as an AWS Batch job.
func (b *Backend) AddTask(ctx context.Context, jobID string, t *task.Task) error {
	cmd, err := b.command(t)
	if err != nil {
		return err
	}

	req := &batch.SubmitJobInput{
		JobDefinition: aws.String(b.conf.JobDefinition),
		JobName:       aws.String(safeJobName(t.ID)),
		JobQueue:      aws.String(b.jobQueue(jobID)),
		Parameters: map[string]*string{
			"jobID":   aws.String(jobID),
			"taskID":  aws.String(t.ID),
			"sceneID": aws.String(t.SceneID),
		},
		Tags: map[string]*string{
			"pcbatch-job": aws.String(jobID),
		},
		ContainerOverrides: &batch.ContainerOverrides{
			Command: aws.StringSlice([]string{"/bin/bash", "-c", cmd}),
			Environment: []*batch.KeyValuePair{
				{Name: aws.String("PCBATCH_JOB_ID"), Value: aws.String(jobID)},
				{Name: aws.String("PCBATCH_TASK_ID"), Value: aws.String(t.ID)},
			},
		},
	}
	reqctx, cancel := context.WithTimeout(ctx, time.Second*60)
	defer cancel()

	resp, err := b.client.SubmitJobWithContext(reqctx, req)
	if err != nil {
		return platformError("add task", err)
	}

	b.log.Debug("Submitted task to AWS Batch", "jobID", jobID, "taskID", t.ID, "awsbatch_id", aws.StringValue(resp.JobId))
	return nil
}

// command appends an upload of each output file to the task command, since
// AWS Batch has no output-file rules of its own.
func (b *Backend) command(t *task.Task) (string, error) {
	cmd := t.CommandLine
	for _, o := range t.OutputFiles {
		signed, err := b.presigner.PresignPut(o.Destination, o.FilePattern)
		if err != nil {
			return "", err
		}
		upload := shellquote.Join("curl", "-sSf", "-X", "PUT", "-T", o.FilePattern, signed)
		file := shellquote.Join(o.FilePattern)

		switch o.Condition {
		case task.TaskSuccess:
			cmd = fmt.Sprintf("(%s) && %s", cmd, upload)
		case task.TaskFailure:
			cmd = fmt.Sprintf("(%s) || { rc=$?; [ -f %s ] && %s; exit $rc; }", cmd, file, upload)
		default:
			cmd = fmt.Sprintf("(%s); rc=$?; if [ -f %s ]; then %s || rc=1; fi; exit $rc", cmd, file, upload)
		}
	}
	return cmd, nil
}

func platformError(op string, err error) error {
	perr := &compute.PlatformError{Backend: config.AWSBatchCompute, Op: op, Err: err}

	var rf awserr.RequestFailure
	if errors.As(err, &rf) {
		perr.StatusCode = rf.StatusCode()
		perr.Values = append(perr.Values, compute.KeyValue{Key: "RequestId", Value: rf.RequestID()})
	}
	var ae awserr.Error
	if errors.As(err, &ae) {
		perr.Code = ae.Code()
		perr.Message = ae.Message()
	}
	return perr
}

// AWS limits the characters allowed in job names,
// so replace invalid characters with underscores.
func safeJobName(s string) string {
	s = util.SafeID(s)
	if len(s) > 128 {
		s = s[:128]
	}
	return s
}
