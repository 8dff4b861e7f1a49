package models

import "time"

// StorageKind selects a storage backend.
type StorageKind string

const (
	StorageLocal StorageKind = "local"
	StorageS3    StorageKind = "s3"
	StorageAzure StorageKind = "azure"
)

// StorageConfig describes where the corpus lives and how to reach it.
// Secrets here are only used when the process environment supplies none.
type StorageConfig struct {
	Kind             StorageKind `json:"type" yaml:"type" mapstructure:"type"`
	Path             string      `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`
	Bucket           string      `json:"bucket,omitempty" yaml:"bucket,omitempty" mapstructure:"bucket"`
	Prefix           string      `json:"prefix,omitempty" yaml:"prefix,omitempty" mapstructure:"prefix"`
	Region           string      `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`
	Endpoint         string      `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	AccessKeyID      string      `json:"access_key_id,omitempty" yaml:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey  string      `json:"secret_access_key,omitempty" yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
	AccountName      string      `json:"account_name,omitempty" yaml:"account_name,omitempty" mapstructure:"account_name"`
	Container        string      `json:"container,omitempty" yaml:"container,omitempty" mapstructure:"container"`
	AccountKey       string      `json:"account_key,omitempty" yaml:"account_key,omitempty" mapstructure:"account_key"`
	ConnectionString string      `json:"connection_string,omitempty" yaml:"connection_string,omitempty" mapstructure:"connection_string"`
	Extensions       []string    `json:"extensions,omitempty" yaml:"extensions,omitempty" mapstructure:"extensions"`
}

// HasSecrets reports whether the config carries any inline credentials.
func (c StorageConfig) HasSecrets() bool {
	return c.AccessKeyID != "" || c.SecretAccessKey != "" || c.AccountKey != "" || c.ConnectionString != ""
}

// FileDescriptor describes one log file available at a storage location.
type FileDescriptor struct {
	Path                string    `json:"path" yaml:"path"`
	Name                string    `json:"name" yaml:"name"`
	Size                int64     `json:"size" yaml:"size"`
	Modified            time.Time `json:"modified" yaml:"modified"`
	Type                string    `json:"type" yaml:"type"`
	EstimatedEntryCount int       `json:"estimated_entry_count" yaml:"estimated_entry_count"`
}

// ConnectionResult reports the outcome of a storage connection test.
type ConnectionResult struct {
	Success bool   `json:"success" yaml:"success"`
	Message string `json:"message" yaml:"message"`
	Kind    string `json:"kind,omitempty" yaml:"kind,omitempty"`
}
