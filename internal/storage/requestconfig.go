package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/valter-silva-au/hooklens/pkg/models"
)

// storageConfigSchema validates request-scoped storage configs before they
// reach an SDK.
const storageConfigSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type"],
  "additionalProperties": false,
  "properties": {
    "type": {"enum": ["local", "s3", "azure"]},
    "path": {"type": "string"},
    "bucket": {"type": "string", "minLength": 3, "maxLength": 63},
    "prefix": {"type": "string"},
    "region": {"type": "string"},
    "endpoint": {"type": "string", "pattern": "^https?://"},
    "access_key_id": {"type": "string"},
    "secret_access_key": {"type": "string"},
    "account_name": {"type": "string", "pattern": "^[a-z0-9]{3,24}$"},
    "container": {"type": "string", "minLength": 3},
    "account_key": {"type": "string"},
    "connection_string": {"type": "string"},
    "extensions": {"type": "array", "items": {"type": "string", "pattern": "^\\."}}
  },
  "allOf": [
    {"if": {"properties": {"type": {"const": "local"}}}, "then": {"required": ["path"]}},
    {"if": {"properties": {"type": {"const": "s3"}}}, "then": {"required": ["bucket"]}},
    {"if": {"properties": {"type": {"const": "azure"}}}, "then": {"required": ["container"]}}
  ]
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func storageSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var schemaObj any
		if err := json.Unmarshal([]byte(storageConfigSchema), &schemaObj); err != nil {
			schemaErr = fmt.Errorf("storage config schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("storage-config.json", schemaObj); err != nil {
			schemaErr = fmt.Errorf("storage config schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile("storage-config.json")
	})
	return compiledSchema, schemaErr
}

// ParseRequestConfig validates a JSON storage config against the schema and
// decodes it.
func ParseRequestConfig(data []byte) (models.StorageConfig, error) {
	sch, err := storageSchema()
	if err != nil {
		return models.StorageConfig{}, err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.StorageConfig{}, newError(KindInvalid, "storage config", fmt.Errorf("not valid JSON: %w", err))
	}
	if err := sch.Validate(doc); err != nil {
		return models.StorageConfig{}, newError(KindInvalid, "storage config", fmt.Errorf("schema validation failed: %w", err))
	}

	var cfg models.StorageConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return models.StorageConfig{}, newError(KindInvalid, "storage config", err)
	}
	cfg.Path = expandHome(cfg.Path)
	return cfg, nil
}

// LoadRequestConfig reads and validates a JSON storage config file.
func LoadRequestConfig(path string) (models.StorageConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.StorageConfig{}, classifyLocal(path, err)
	}
	return ParseRequestConfig(data)
}
