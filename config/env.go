package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// environment holds the endpoint and credential values which are commonly
// supplied through the process environment rather than a config file.
type environment struct {
	StorageAccountName string `env:"AZURE_STORAGE_ACCOUNT_NAME"`
	StorageAccountURL  string `env:"AZURE_STORAGE_ACCOUNT_URL"`
	StorageAccountKey  string `env:"AZURE_STORAGE_ACCOUNT_KEY"`
	BatchAccountName   string `env:"AZURE_BATCH_ACCOUNT_NAME"`
	BatchAccountKey    string `env:"AZURE_BATCH_ACCOUNT_KEY"`
	BatchAccountURL    string `env:"AZURE_BATCH_ACCOUNT_URL"`
	PoolID             string `env:"PCBATCH_POOL_ID"`
	JobID              string `env:"PCBATCH_JOB_ID"`
	SubscriptionKey    string `env:"PC_SDK_SUBSCRIPTION_KEY"`
}

// LoadEnv overlays credentials found in the environment onto conf.
// If dotenv names an existing file, its variables are loaded first;
// variables already present in the process environment win.
func LoadEnv(conf *Config, dotenv string) error {
	if dotenv != "" {
		err := godotenv.Load(dotenv)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", dotenv, err)
		}
	}

	var e environment
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&conf.AzureStorage.AccountName, e.StorageAccountName)
	set(&conf.AzureStorage.AccountURL, e.StorageAccountURL)
	set(&conf.AzureStorage.AccountKey, e.StorageAccountKey)
	set(&conf.AzureBatch.AccountName, e.BatchAccountName)
	set(&conf.AzureBatch.AccountKey, e.BatchAccountKey)
	set(&conf.AzureBatch.AccountURL, e.BatchAccountURL)
	set(&conf.Job.PoolID, e.PoolID)
	set(&conf.Job.ID, e.JobID)
	set(&conf.Catalog.SubscriptionKey, e.SubscriptionKey)
	return nil
}
