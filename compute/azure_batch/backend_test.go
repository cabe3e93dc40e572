package azure_batch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/delange/planetary-computer-batch/compute"
	"github.com/delange/planetary-computer-batch/config"
	"github.com/delange/planetary-computer-batch/logger"
	"github.com/delange/planetary-computer-batch/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "c2VjcmV0LWJhdGNoLWtleQ=="

type request struct {
	Method string
	Path   string
	Query  string
	Body   map[string]interface{}
}

// fakeBatch records requests and checks their shared key signature.
type fakeBatch struct {
	t        *testing.T
	key      *sharedKey
	mtx      sync.Mutex
	requests []request
	status   int
	body     string
}

func (f *fakeBatch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	expected := r.Clone(context.Background())
	f.key.authorize(expected)
	assert.Equal(f.t, expected.Header.Get("Authorization"), r.Header.Get("Authorization"))
	assert.Equal(f.t, contentType, r.Header.Get("Content-Type"))
	assert.NotEmpty(f.t, r.Header.Get("ocp-date"))
	assert.NotEmpty(f.t, r.Header.Get("client-request-id"))

	b, _ := io.ReadAll(r.Body)
	var body map[string]interface{}
	assert.NoError(f.t, json.Unmarshal(b, &body))

	f.mtx.Lock()
	f.requests = append(f.requests, request{r.Method, r.URL.Path, r.URL.RawQuery, body})
	f.mtx.Unlock()

	w.WriteHeader(f.status)
	io.WriteString(w, f.body)
}

func (f *fakeBatch) recorded() []request {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return append([]request(nil), f.requests...)
}

func newTestBackend(t *testing.T, status int, body string) (*Backend, *fakeBatch, func()) {
	key, err := newSharedKey("batchacct", testKey)
	require.NoError(t, err)

	fake := &fakeBatch{t: t, key: key, status: status, body: body}
	srv := httptest.NewServer(fake)

	conf := config.DefaultConfig().AzureBatch
	conf.AccountName = "batchacct"
	conf.AccountKey = testKey
	conf.AccountURL = srv.URL + "/"

	b, err := NewBackend(conf, logger.NewLogger("test", logger.DefaultConfig()))
	require.NoError(t, err)
	return b, fake, srv.Close
}

func TestCreateJob(t *testing.T) {
	b, fake, done := newTestBackend(t, http.StatusCreated, "")
	defer done()

	require.NoError(t, b.CreateJob(context.Background(), "job-1", "pool-1"))

	reqs := fake.recorded()
	require.Len(t, reqs, 1)
	r := reqs[0]
	assert.Equal(t, http.MethodPost, r.Method)
	assert.Equal(t, "/jobs", r.Path)
	assert.Equal(t, "api-version=2024-07-01.20.0", r.Query)
	assert.Equal(t, map[string]interface{}{
		"id":       "job-1",
		"poolInfo": map[string]interface{}{"poolId": "pool-1"},
	}, r.Body)
}

func TestAddTask(t *testing.T) {
	b, fake, done := newTestBackend(t, http.StatusCreated, "")
	defer done()

	tk := &task.Task{
		ID:                  "jane_ndvi_20240315-134500_abc",
		SceneID:             "S2B_1",
		CommandLine:         "pcbatch ndvi --red r --nir n --output ndvi__S2B_1",
		Image:               "ghcr.io/osgeo/gdal:ubuntu-small-3.9.2",
		ContainerRunOptions: "--rm",
		Retention:           time.Hour,
		OutputFiles: []task.OutputFile{{
			FilePattern: "ndvi__S2B_1.tif",
			Destination: "https://store.blob.core.windows.net/batch-output?sig=x",
			Condition:   task.TaskCompletion,
		}},
	}
	require.NoError(t, b.AddTask(context.Background(), "job-1", tk))

	reqs := fake.recorded()
	require.Len(t, reqs, 1)
	r := reqs[0]
	assert.Equal(t, "/jobs/job-1/tasks", r.Path)

	var expected map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "jane_ndvi_20240315-134500_abc",
		"displayName": "S2B_1",
		"commandLine": "pcbatch ndvi --red r --nir n --output ndvi__S2B_1",
		"containerSettings": {"imageName": "ghcr.io/osgeo/gdal:ubuntu-small-3.9.2", "containerRunOptions": "--rm"},
		"constraints": {"retentionTime": "PT1H"},
		"outputFiles": [{
			"filePattern": "ndvi__S2B_1.tif",
			"destination": {"container": {"containerUrl": "https://store.blob.core.windows.net/batch-output?sig=x"}},
			"uploadOptions": {"uploadCondition": "taskcompletion"}
		}]
	}`), &expected))
	assert.Equal(t, expected, r.Body)
}

func TestAddTaskRejectsNonSASDestination(t *testing.T) {
	b, fake, done := newTestBackend(t, http.StatusCreated, "")
	defer done()

	tk := &task.Task{ID: "t1", OutputFiles: []task.OutputFile{{FilePattern: "x.tif", Destination: "s3://bucket/x"}}}
	assert.Error(t, b.AddTask(context.Background(), "job-1", tk))
	assert.Empty(t, fake.recorded())
}

func TestBatchError(t *testing.T) {
	body := `{
		"odata.metadata": "https://batchacct.westeurope.batch.azure.com/$metadata#Microsoft.Azure.Batch.Protocol.Entities.Container.errors/@Element",
		"code": "JobExists",
		"message": {"lang": "en-US", "value": "The specified job already exists.\nRequestId:6a3b\nTime:2024-03-15T12:00:00.0000000Z"},
		"values": [{"key": "JobId", "value": "job-1"}]
	}`
	b, _, done := newTestBackend(t, http.StatusConflict, body)
	defer done()

	err := b.CreateJob(context.Background(), "job-1", "pool-1")
	require.Error(t, err)

	var perr *compute.PlatformError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusConflict, perr.StatusCode)
	assert.Equal(t, "JobExists", perr.Code)
	assert.True(t, strings.HasPrefix(perr.Message, "The specified job already exists."))
	assert.Equal(t, []compute.KeyValue{{Key: "JobId", Value: "job-1"}}, perr.Values)
	assert.True(t, perr.Conflict())
}

func TestUnstructuredError(t *testing.T) {
	b, _, done := newTestBackend(t, http.StatusForbidden, "forbidden")
	defer done()

	err := b.CreateJob(context.Background(), "job-1", "pool-1")
	var perr *compute.PlatformError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusForbidden, perr.StatusCode)
	assert.Equal(t, "forbidden", perr.Message)
}

func TestIsoDuration(t *testing.T) {
	assert.Equal(t, "PT1H", isoDuration(time.Hour))
	assert.Equal(t, "PT1H30M", isoDuration(90*time.Minute))
	assert.Equal(t, "PT45S", isoDuration(45*time.Second))
	assert.Equal(t, "PT26H1S", isoDuration(26*time.Hour+time.Second))
	assert.Equal(t, "PT0S", isoDuration(0))
}

func TestBadAccountKey(t *testing.T) {
	conf := config.DefaultConfig().AzureBatch
	conf.AccountKey = "%%%"
	_, err := NewBackend(conf, logger.NewLogger("test", logger.DefaultConfig()))
	assert.Error(t, err)
}
