package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAzureConfig() Config {
	c := DefaultConfig()
	c.Job.ID = "job-1"
	c.Job.PoolID = "pool-1"
	c.AzureBatch.AccountName = "batchacct"
	c.AzureBatch.AccountKey = "a2V5"
	c.AzureBatch.AccountURL = "https://batchacct.westeurope.batch.azure.com"
	c.AzureStorage.AccountName = "storeacct"
	c.AzureStorage.AccountKey = "a2V5"
	return c
}

func TestParse(t *testing.T) {
	yaml := `
Compute: local
Job:
  ID: my-job
Task:
  Retention: 2h
  User: alice
Search:
  CloudCover: "25"
Local:
  Concurrency: 4
`
	conf := DefaultConfig()
	err := Parse([]byte(yaml), &conf)
	require.NoError(t, err)

	assert.Equal(t, LocalCompute, conf.Compute)
	assert.Equal(t, "my-job", conf.Job.ID)
	assert.Equal(t, 2*time.Hour, conf.Task.Retention.AsDuration())
	assert.Equal(t, "alice", conf.Task.User)
	assert.Equal(t, "25", conf.Search.CloudCover)
	assert.Equal(t, 4, conf.Local.Concurrency)
	// untouched defaults survive
	assert.Equal(t, "B04", conf.Task.RedBand)
	assert.Equal(t, DefaultCommandTemplate, conf.Task.CommandTemplate)
}

func TestParseFileRoundTrip(t *testing.T) {
	c := validAzureConfig()
	c.Task.Retention = Duration(90 * time.Minute)

	p, cleanup := ToYamlTempFile(c, "config.yaml")
	defer cleanup()

	parsed := Config{}
	require.NoError(t, ParseFile(p, &parsed))
	assert.Equal(t, c, parsed)
}

func TestParseFileMissing(t *testing.T) {
	conf := DefaultConfig()
	err := ParseFile(filepath.Join(t.TempDir(), "nope.yaml"), &conf)
	assert.Error(t, err)
}

func TestValidateAzure(t *testing.T) {
	assert.NoError(t, Validate(validAzureConfig()))

	c := validAzureConfig()
	c.AzureBatch.AccountKey = ""
	c.Job.PoolID = ""
	err := Validate(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AzureBatch.AccountKey is required")
	assert.Contains(t, err.Error(), "Job.PoolID is required")
}

func TestValidateOutputURLScheme(t *testing.T) {
	c := validAzureConfig()
	c.Compute = AWSBatchCompute
	c.Task.OutputURL = "gs://bucket/out"
	err := Validate(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://")

	c.Task.OutputURL = "s3://bucket/out"
	assert.NoError(t, Validate(c))

	c.Compute = GCPBatchCompute
	c.GCPBatch.Project = "proj"
	c.Task.OutputURL = "gs://bucket/out"
	assert.NoError(t, Validate(c))
}

func TestValidateUnknownCompute(t *testing.T) {
	c := validAzureConfig()
	c.Compute = "slurm"
	err := Validate(c)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), `unknown compute backend "slurm"`))
}

func TestValidateComputeCaseInsensitive(t *testing.T) {
	c := validAzureConfig()
	c.Compute = "Local"
	assert.NoError(t, Validate(c))

	c.Compute = "NOOP"
	assert.NoError(t, Validate(c))
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	err := os.WriteFile(dotenv, []byte("AZURE_BATCH_ACCOUNT_NAME=fromfile\nPCBATCH_POOL_ID=filepool\n"), 0600)
	require.NoError(t, err)

	t.Cleanup(func() { os.Unsetenv("AZURE_BATCH_ACCOUNT_NAME") })
	t.Setenv("PCBATCH_POOL_ID", "envpool")
	t.Setenv("AZURE_STORAGE_ACCOUNT_KEY", "envkey")

	conf := DefaultConfig()
	conf.Job.ID = "keep-me"
	require.NoError(t, LoadEnv(&conf, dotenv))

	assert.Equal(t, "fromfile", conf.AzureBatch.AccountName)
	assert.Equal(t, "envpool", conf.Job.PoolID)
	assert.Equal(t, "envkey", conf.AzureStorage.AccountKey)
	assert.Equal(t, "keep-me", conf.Job.ID)
}

func TestLoadEnvMissingDotenv(t *testing.T) {
	conf := DefaultConfig()
	assert.NoError(t, LoadEnv(&conf, filepath.Join(t.TempDir(), ".env")))
}
