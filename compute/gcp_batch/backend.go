// Package gcp_batch contains code for running scene tasks via Google Batch.
// ref: https://cloud.google.com/batch/docs
// ref: https://cloud.google.com/batch/docs/reference/rest
package gcp_batch

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	batch "cloud.google.com/go/batch/apiv1"
	"cloud.google.com/go/batch/apiv1/batchpb"
	"github.com/delange/planetary-computer-batch/compute"
	"github.com/delange/planetary-computer-batch/config"
	"github.com/delange/planetary-computer-batch/logger"
	"github.com/delange/planetary-computer-batch/storage"
	"github.com/delange/planetary-computer-batch/task"
	"github.com/kballard/go-shellquote"
	"google.golang.org/grpc/status"
)

// jobLabel groups the Google Batch jobs of one pcbatch job.
const jobLabel = "pcbatch-job"

// Backend submits one Google Batch job per task.
type Backend struct {
	client client
	conf   config.GCPBatch
	log    *logger.Logger
}

// NewBackend returns a new Google Batch Backend instance.
func NewBackend(ctx context.Context, conf config.GCPBatch, log *logger.Logger) (*Backend, error) {
	client, err := batch.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating gcp batch client: %v", err)
	}
	return &Backend{client: client, conf: conf, log: log}, nil
}

// Close closes the underlying client connection.
func (b *Backend) Close() error {
	return b.client.Close()
}

func (b *Backend) parent() string {
	return fmt.Sprintf("projects/%s/locations/%s", b.conf.Project, b.conf.Location)
}

// CreateJob is a no-op: Google Batch has no job container. Tasks carry the
// job ID as a label instead.
func (b *Backend) CreateJob(ctx context.Context, jobID, poolID string) error {
	b.log.Info("Tasks will be labeled with job", "jobID", jobID, "label", jobLabel+"="+labelValue(jobID), "parent", b.parent())
	return nil
}

// AddTask creates a Google Batch job running the task.
func (b *Backend) AddTask(ctx context.Context, jobID string, t *task.Task) error {
	cmd := t.CommandLine

	// Mount each output bucket to /mnt/disks/<bucket> and copy outputs there.
	buckets := map[string]bool{}
	var volumes []*batchpb.Volume
	for _, o := range t.OutputFiles {
		bucket, prefix, err := storage.ParseGoogleCloudURL(o.Destination)
		if err != nil {
			return fmt.Errorf("task %s: %w", t.ID, err)
		}
		mount := fmt.Sprintf("/mnt/disks/%s", bucket)
		if !buckets[bucket] {
			buckets[bucket] = true
			volumes = append(volumes, &batchpb.Volume{
				Source:    &batchpb.Volume_Gcs{Gcs: &batchpb.GCS{RemotePath: bucket}},
				MountPath: mount,
			})
		}
		cmd = withCopy(cmd, o, path.Join(mount, prefix))
	}

	container := &batchpb.Runnable_Container{
		ImageUri:   t.Image,
		Entrypoint: "/bin/bash",
		Commands:   []string{"-c", cmd},
		Options:    t.ContainerRunOptions,
	}
	for _, v := range volumes {
		container.Volumes = append(container.Volumes, v.MountPath+":"+v.MountPath)
	}

	taskSpec := &batchpb.TaskSpec{
		Runnables: []*batchpb.Runnable{{
			Executable: &batchpb.Runnable_Container_{Container: container},
		}},
		Environment: &batchpb.Environment{
			Variables: map[string]string{
				"PCBATCH_JOB_ID":  jobID,
				"PCBATCH_TASK_ID": t.ID,
			},
		},
		Volumes: volumes,
	}

	req := &batchpb.CreateJobRequest{
		Parent: b.parent(),
		JobId:  safeJobID(t.ID),
		Job: &batchpb.Job{
			TaskGroups: []*batchpb.TaskGroup{{
				TaskCount: 1,
				TaskSpec:  taskSpec,
			}},
			AllocationPolicy: &batchpb.AllocationPolicy{
				Instances: []*batchpb.AllocationPolicy_InstancePolicyOrTemplate{{
					PolicyTemplate: &batchpb.AllocationPolicy_InstancePolicyOrTemplate_Policy{
						Policy: &batchpb.AllocationPolicy_InstancePolicy{MachineType: b.conf.MachineType},
					},
				}},
			},
			Labels: map[string]string{
				jobLabel:        labelValue(jobID),
				"pcbatch-scene": labelValue(t.SceneID),
			},
			LogsPolicy: &batchpb.LogsPolicy{
				Destination: batchpb.LogsPolicy_CLOUD_LOGGING,
			},
		},
	}

	b.log.Debug("GCP Batch Job Request", "taskID", t.ID, "jobId", req.JobId)

	resp, err := b.client.CreateJob(ctx, req)
	if err != nil {
		return platformError("add task", err)
	}

	b.log.Debug("Submitted task to GCP Batch",
		"taskID", t.ID,
		"gcpbatch_uid", resp.GetUid(),
		"gcpbatch_name", resp.GetName())
	return nil
}

func withCopy(cmd string, o task.OutputFile, dir string) string {
	cp := fmt.Sprintf("mkdir -p %s && cp %s %s",
		shellquote.Join(dir), shellquote.Join(o.FilePattern), shellquote.Join(dir+"/"))
	file := shellquote.Join(o.FilePattern)

	switch o.Condition {
	case task.TaskSuccess:
		return fmt.Sprintf("(%s) && %s", cmd, cp)
	case task.TaskFailure:
		return fmt.Sprintf("(%s) || { rc=$?; [ -f %s ] && %s; exit $rc; }", cmd, file, cp)
	default:
		return fmt.Sprintf("(%s); rc=$?; if [ -f %s ]; then %s || rc=1; fi; exit $rc", cmd, file, cp)
	}
}

func platformError(op string, err error) error {
	perr := &compute.PlatformError{Backend: config.GCPBatchCompute, Op: op, Err: err}
	if st, ok := status.FromError(err); ok {
		perr.Code = st.Code().String()
		perr.Message = st.Message()
		for _, d := range st.Details() {
			perr.Values = append(perr.Values, compute.KeyValue{Key: "detail", Value: fmt.Sprint(d)})
		}
	}
	return perr
}

var invalidIDChars = regexp.MustCompile(`[^a-z0-9-]+`)

// safeJobID converts s to a valid Google Batch job ID:
// ^[a-z]([a-z0-9-]{0,61}[a-z0-9])?$
func safeJobID(s string) string {
	id := invalidIDChars.ReplaceAllString(strings.ToLower(s), "-")
	id = strings.Trim(id, "-")
	if id == "" || id[0] < 'a' || id[0] > 'z' {
		id = "j-" + id
	}
	if len(id) > 63 {
		id = id[len(id)-63:]
		if id[0] < 'a' || id[0] > 'z' {
			id = "j" + id[1:]
		}
	}
	return strings.TrimRight(id, "-")
}

var invalidLabelChars = regexp.MustCompile(`[^a-z0-9_-]+`)

func labelValue(s string) string {
	v := invalidLabelChars.ReplaceAllString(strings.ToLower(s), "-")
	if len(v) > 63 {
		v = v[:63]
	}
	return v
}
