package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/valter-silva-au/hooklens/pkg/models"
	"go.uber.org/zap"
)

// AzureAdapter reads log blobs from one Azure Blob Storage container.
type AzureAdapter struct {
	client        *container.Client
	account       string
	containerName string
	prefix        string
	opts          Options
}

// NewAzureAdapter builds a container client. Resolution order is connection
// string, then account key, then the default Azure credential chain. Inline
// secrets in cfg are consulted only when the environment has neither.
func NewAzureAdapter(cfg models.StorageConfig, opts Options) (*AzureAdapter, error) {
	opts = opts.withDefaults()
	if cfg.Container == "" {
		return nil, newError(KindInvalid, "azure://", fmt.Errorf("container is required"))
	}

	account := cfg.AccountName
	if account == "" {
		account = opts.Getenv("AZURE_STORAGE_ACCOUNT")
	}
	location := fmt.Sprintf("azure://%s/%s", account, cfg.Container)

	connStr := opts.Getenv("AZURE_STORAGE_CONNECTION_STRING")
	accountKey := opts.Getenv("AZURE_STORAGE_ACCOUNT_KEY")
	if accountKey == "" {
		accountKey = opts.Getenv("AZURE_STORAGE_KEY")
	}
	if connStr == "" && accountKey == "" {
		switch {
		case cfg.ConnectionString != "":
			opts.Logger.Warn("using inline Azure connection string from storage config; prefer environment credentials",
				zap.String("container", cfg.Container))
			connStr = cfg.ConnectionString
		case cfg.AccountKey != "":
			opts.Logger.Warn("using inline Azure account key from storage config; prefer environment credentials",
				zap.String("container", cfg.Container))
			accountKey = cfg.AccountKey
		}
	}

	var (
		client *container.Client
		err    error
	)
	switch {
	case connStr != "":
		client, err = container.NewClientFromConnectionString(connStr, cfg.Container, nil)
	case account == "":
		return nil, newError(KindInvalid, location, fmt.Errorf("account name is required without a connection string"))
	case accountKey != "":
		var cred *azblob.SharedKeyCredential
		cred, err = azblob.NewSharedKeyCredential(account, accountKey)
		if err == nil {
			client, err = container.NewClientWithSharedKeyCredential(containerURL(cfg, account), cred, nil)
		}
	default:
		var cred *azidentity.DefaultAzureCredential
		cred, err = azidentity.NewDefaultAzureCredential(nil)
		if err == nil {
			client, err = container.NewClient(containerURL(cfg, account), cred, nil)
		}
	}
	if err != nil {
		return nil, newError(KindInvalid, location, fmt.Errorf("creating Azure client: %w", err))
	}

	return &AzureAdapter{
		client:        client,
		account:       account,
		containerName: cfg.Container,
		prefix:        strings.TrimPrefix(cfg.Prefix, "/"),
		opts:          opts,
	}, nil
}

func containerURL(cfg models.StorageConfig, account string) string {
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Container
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net/%s", account, cfg.Container)
}

func (a *AzureAdapter) Location() string {
	loc := fmt.Sprintf("azure://%s/%s", a.account, a.containerName)
	if a.prefix != "" {
		loc += "/" + a.prefix
	}
	return loc
}

func (a *AzureAdapter) ListFiles(ctx context.Context) ([]models.FileDescriptor, error) {
	var opts container.ListBlobsFlatOptions
	if a.prefix != "" {
		opts.Prefix = &a.prefix
	}

	var files []models.FileDescriptor
	pager := a.client.NewListBlobsFlatPager(&opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, classifyAzure(a.Location(), err)
		}
		if page.Segment == nil {
			continue
		}
		for _, item := range page.Segment.BlobItems {
			if item == nil || item.Name == nil {
				continue
			}
			name := path.Base(*item.Name)
			if !hasExtension(name, a.opts.Extensions) {
				continue
			}
			fd := models.FileDescriptor{
				Path: *item.Name,
				Name: name,
				Type: fileType(name),
			}
			if props := item.Properties; props != nil {
				if props.ContentLength != nil {
					fd.Size = *props.ContentLength
				}
				if props.LastModified != nil {
					fd.Modified = *props.LastModified
				}
			}
			fd.EstimatedEntryCount = EstimateEntries(fd.Size)
			files = append(files, fd)
		}
	}
	sortNewestFirst(files)
	return files, nil
}

// ReadLines streams a blob. name is a blob name or a full azure:// URL.
func (a *AzureAdapter) ReadLines(ctx context.Context, name string) iter.Seq2[string, error] {
	name = strings.TrimPrefix(name, fmt.Sprintf("azure://%s/%s/", a.account, a.containerName))
	location := fmt.Sprintf("azure://%s/%s/%s", a.account, a.containerName, name)
	return scanLines(ctx, location, a.opts.MaxLineBytes, func(ctx context.Context) (io.ReadCloser, error) {
		resp, err := a.client.NewBlobClient(name).DownloadStream(ctx, nil)
		if err != nil {
			return nil, classifyAzure(location, err)
		}
		return resp.Body, nil
	})
}

func (a *AzureAdapter) TestConnection(ctx context.Context) models.ConnectionResult {
	if _, err := a.client.GetProperties(ctx, nil); err != nil {
		err = classifyAzure(a.Location(), err)
		return models.ConnectionResult{Message: err.Error(), Kind: string(KindOf(err))}
	}
	return models.ConnectionResult{
		Success: true,
		Message: fmt.Sprintf("connected to Azure container %s", a.containerName),
	}
}

func classifyAzure(location string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch {
	case bloberror.HasCode(err, bloberror.ContainerNotFound, bloberror.BlobNotFound, bloberror.ResourceNotFound):
		return newError(KindNotFound, location, err)
	case bloberror.HasCode(err, bloberror.AuthenticationFailed, bloberror.AuthorizationFailure,
		bloberror.InsufficientAccountPermissions, bloberror.AuthorizationPermissionMismatch):
		return newError(KindAccessDenied, location, err)
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return newError(kindForStatus(respErr.StatusCode), location, err)
	}
	var authErr *azidentity.AuthenticationFailedError
	if errors.As(err, &authErr) {
		return newError(KindAccessDenied, location, err)
	}
	return newError(KindNetwork, location, err)
}
