// Package publish uploads result bundles to Azure Blob Storage.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// blobClient is the slice of azblob.Client the publisher needs.
type blobClient interface {
	CreateContainer(ctx context.Context, containerName string, o *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error)
	UploadFile(ctx context.Context, containerName, blobName string, file *os.File, o *azblob.UploadFileOptions) (azblob.UploadFileResponse, error)
}

var _ blobClient = (*azblob.Client)(nil)

// Publisher uploads archives into one container of a storage account.
type Publisher struct {
	client    blobClient
	container string
}

// NewPublisher builds a publisher for accountURL (e.g.
// https://myaccount.blob.core.windows.net). A nil cred falls back to
// DefaultAzureCredential, which walks environment variables, managed
// identity, and the local Azure CLI login.
func NewPublisher(accountURL, container string, cred azcore.TokenCredential) (*Publisher, error) {
	if accountURL == "" {
		return nil, errors.New("account URL is required")
	}
	if container == "" {
		return nil, errors.New("container name is required")
	}

	if cred == nil {
		var err error
		cred, err = azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("building azure credential: %w", err)
		}
	}

	client, err := azblob.NewClient(accountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("creating blob client: %w", err)
	}

	return &Publisher{client: client, container: container}, nil
}

// newPublisherWithClient is the seam tests use to stay off the network.
func newPublisherWithClient(client blobClient, container string) *Publisher {
	return &Publisher{client: client, container: container}
}

// Publish uploads the archive at path under blobName (the file's base name
// when empty) and returns the blob name used. The container is created when
// missing; one that already exists is fine.
func (p *Publisher) Publish(ctx context.Context, path, blobName string) (string, error) {
	if blobName == "" {
		blobName = filepath.Base(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening archive %s: %w", path, err)
	}
	defer f.Close()

	_, err = p.client.CreateContainer(ctx, p.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return "", fmt.Errorf("creating container %s: %w", p.container, err)
	}

	if _, err := p.client.UploadFile(ctx, p.container, blobName, f, nil); err != nil {
		return "", fmt.Errorf("uploading %s: %w", blobName, err)
	}

	slog.Info("uploaded bundle", "container", p.container, "blob", blobName)
	return blobName, nil
}
