// Package azure_batch contains code for running scene tasks on Azure Batch.
// ref: https://learn.microsoft.com/en-us/rest/api/batchservice/
package azure_batch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/delange/planetary-computer-batch/compute"
	"github.com/delange/planetary-computer-batch/config"
	"github.com/delange/planetary-computer-batch/logger"
	"github.com/delange/planetary-computer-batch/task"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const contentType = "application/json; odata=minimalmetadata"

// Backend adds jobs and tasks through the Batch service REST API.
type Backend struct {
	rest *resty.Client
	conf config.AzureBatch
	log  *logger.Logger
}

// NewBackend returns a new Azure Batch Backend instance.
func NewBackend(conf config.AzureBatch, log *logger.Logger) (*Backend, error) {
	key, err := newSharedKey(conf.AccountName, conf.AccountKey)
	if err != nil {
		return nil, err
	}

	rest := resty.New().
		SetBaseURL(strings.TrimSuffix(conf.AccountURL, "/")).
		SetTimeout(conf.Timeout.AsDuration()).
		SetQueryParam("api-version", conf.APIVersion).
		SetHeader("Content-Type", contentType).
		SetHeader("Accept", "application/json").
		SetPreRequestHook(func(_ *resty.Client, req *http.Request) error {
			req.Header.Set("ocp-date", time.Now().UTC().Format(http.TimeFormat))
			key.authorize(req)
			return nil
		})

	return &Backend{rest: rest, conf: conf, log: log}, nil
}

type poolInfo struct {
	PoolID string `json:"poolId"`
}

type jobAddParameter struct {
	ID       string   `json:"id"`
	PoolInfo poolInfo `json:"poolInfo"`
}

type containerSettings struct {
	ImageName           string `json:"imageName"`
	ContainerRunOptions string `json:"containerRunOptions,omitempty"`
}

type taskConstraints struct {
	RetentionTime string `json:"retentionTime,omitempty"`
}

type containerDestination struct {
	ContainerURL string `json:"containerUrl"`
	Path         string `json:"path,omitempty"`
}

type outputFileDestination struct {
	Container containerDestination `json:"container"`
}

type uploadOptions struct {
	UploadCondition string `json:"uploadCondition"`
}

type outputFile struct {
	FilePattern   string                `json:"filePattern"`
	Destination   outputFileDestination `json:"destination"`
	UploadOptions uploadOptions         `json:"uploadOptions"`
}

type taskAddParameter struct {
	ID                string             `json:"id"`
	DisplayName       string             `json:"displayName,omitempty"`
	CommandLine       string             `json:"commandLine"`
	ContainerSettings *containerSettings `json:"containerSettings,omitempty"`
	Constraints       *taskConstraints   `json:"constraints,omitempty"`
	OutputFiles       []outputFile       `json:"outputFiles,omitempty"`
}

// batchError is the error body returned by the Batch service.
type batchError struct {
	Code    string `json:"code"`
	Message struct {
		Lang  string `json:"lang"`
		Value string `json:"value"`
	} `json:"message"`
	Values []struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"values"`
}

// CreateJob creates a job on the given pool.
func (b *Backend) CreateJob(ctx context.Context, jobID, poolID string) error {
	body := jobAddParameter{ID: jobID, PoolInfo: poolInfo{PoolID: poolID}}
	if err := b.post(ctx, "create job", "/jobs", body); err != nil {
		return err
	}
	b.log.Info("Created job", "jobID", jobID, "poolID", poolID)
	return nil
}

// AddTask adds a task to the job.
func (b *Backend) AddTask(ctx context.Context, jobID string, t *task.Task) error {
	body, err := taskParameter(t)
	if err != nil {
		return err
	}
	if err := b.post(ctx, "add task", "/jobs/"+url.PathEscape(jobID)+"/tasks", body); err != nil {
		return err
	}
	b.log.Debug("Added task", "jobID", jobID, "taskID", t.ID, "sceneID", t.SceneID)
	return nil
}

func taskParameter(t *task.Task) (*taskAddParameter, error) {
	p := &taskAddParameter{
		ID:          t.ID,
		DisplayName: t.SceneID,
		CommandLine: t.CommandLine,
	}
	if t.Image != "" {
		p.ContainerSettings = &containerSettings{
			ImageName:           t.Image,
			ContainerRunOptions: t.ContainerRunOptions,
		}
	}
	if t.Retention > 0 {
		p.Constraints = &taskConstraints{RetentionTime: isoDuration(t.Retention)}
	}
	for _, o := range t.OutputFiles {
		if !strings.HasPrefix(o.Destination, "https://") {
			return nil, fmt.Errorf("task %s: output destination must be a container SAS URL", t.ID)
		}
		p.OutputFiles = append(p.OutputFiles, outputFile{
			FilePattern:   o.FilePattern,
			Destination:   outputFileDestination{Container: containerDestination{ContainerURL: o.Destination}},
			UploadOptions: uploadOptions{UploadCondition: strings.ToLower(string(o.Condition))},
		})
	}
	return p, nil
}

func (b *Backend) post(ctx context.Context, op, path string, body interface{}) error {
	res, err := b.rest.R().
		SetContext(ctx).
		SetHeader("client-request-id", uuid.NewString()).
		SetBody(body).
		Post(path)
	if err != nil {
		return &compute.PlatformError{Backend: config.AzureBatchCompute, Op: op, Err: err}
	}
	if res.IsSuccess() {
		return nil
	}
	return platformError(op, res)
}

func platformError(op string, res *resty.Response) error {
	perr := &compute.PlatformError{
		Backend:    config.AzureBatchCompute,
		Op:         op,
		StatusCode: res.StatusCode(),
	}

	var be batchError
	if err := json.Unmarshal(res.Body(), &be); err != nil || be.Code == "" {
		perr.Message = strings.TrimSpace(res.String())
		return perr
	}

	perr.Code = be.Code
	perr.Message = be.Message.Value
	for _, v := range be.Values {
		perr.Values = append(perr.Values, compute.KeyValue{Key: v.Key, Value: v.Value})
	}
	return perr
}

// isoDuration formats d as an ISO 8601 duration, e.g. PT1H30M.
func isoDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int64(d / time.Hour)
	m := int64(d % time.Hour / time.Minute)
	s := int64(d % time.Minute / time.Second)

	out := "PT"
	if h > 0 {
		out += fmt.Sprintf("%dH", h)
	}
	if m > 0 {
		out += fmt.Sprintf("%dM", m)
	}
	if s > 0 || out == "PT" {
		out += fmt.Sprintf("%dS", s)
	}
	return out
}
