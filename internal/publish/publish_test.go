package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/stretchr/testify/require"
)

type uploadCall struct {
	container string
	blob      string
	size      int64
}

// fakeBlobClient records calls so publish logic can be tested off the network.
type fakeBlobClient struct {
	created   []string
	uploads   []uploadCall
	createErr error
	uploadErr error
}

func (f *fakeBlobClient) CreateContainer(_ context.Context, containerName string, _ *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error) {
	f.created = append(f.created, containerName)
	return azblob.CreateContainerResponse{}, f.createErr
}

func (f *fakeBlobClient) UploadFile(_ context.Context, containerName, blobName string, file *os.File, _ *azblob.UploadFileOptions) (azblob.UploadFileResponse, error) {
	if f.uploadErr != nil {
		return azblob.UploadFileResponse{}, f.uploadErr
	}
	info, err := file.Stat()
	if err != nil {
		return azblob.UploadFileResponse{}, err
	}
	f.uploads = append(f.uploads, uploadCall{container: containerName, blob: blobName, size: info.Size()})
	return azblob.UploadFileResponse{}, nil
}

type fakeCredential struct{}

func (fakeCredential) GetToken(context.Context, policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "fake"}, nil
}

func writeArchiveFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("archive bytes"), 0o644))
	return path
}

func TestNewPublisher_RequiresAccountURL(t *testing.T) {
	_, err := NewPublisher("", "bundles", fakeCredential{})
	require.ErrorContains(t, err, "account URL is required")
}

func TestNewPublisher_RequiresContainer(t *testing.T) {
	_, err := NewPublisher("https://acct.blob.core.windows.net", "", fakeCredential{})
	require.ErrorContains(t, err, "container name is required")
}

func TestNewPublisher_BuildsClient(t *testing.T) {
	p, err := NewPublisher("https://acct.blob.core.windows.net", "bundles", fakeCredential{})
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, "bundles", p.container)
}

func TestPublish_UploadsArchive(t *testing.T) {
	path := writeArchiveFile(t, "results-20260615-143045.tar.zst")
	fake := &fakeBlobClient{}
	p := newPublisherWithClient(fake, "bundles")

	name, err := p.Publish(context.Background(), path, "")
	require.NoError(t, err)
	require.Equal(t, "results-20260615-143045.tar.zst", name)

	require.Equal(t, []string{"bundles"}, fake.created)
	require.Len(t, fake.uploads, 1)
	require.Equal(t, "bundles", fake.uploads[0].container)
	require.Equal(t, "results-20260615-143045.tar.zst", fake.uploads[0].blob)
	require.Equal(t, int64(len("archive bytes")), fake.uploads[0].size)
}

func TestPublish_ExplicitBlobName(t *testing.T) {
	path := writeArchiveFile(t, "whatever.tar.zst")
	fake := &fakeBlobClient{}
	p := newPublisherWithClient(fake, "bundles")

	name, err := p.Publish(context.Background(), path, "nightly/latest.tar.zst")
	require.NoError(t, err)
	require.Equal(t, "nightly/latest.tar.zst", name)
	require.Equal(t, "nightly/latest.tar.zst", fake.uploads[0].blob)
}

func TestPublish_ToleratesExistingContainer(t *testing.T) {
	path := writeArchiveFile(t, "results.tar.zst")
	fake := &fakeBlobClient{
		createErr: &azcore.ResponseError{ErrorCode: string(bloberror.ContainerAlreadyExists)},
	}
	p := newPublisherWithClient(fake, "bundles")

	_, err := p.Publish(context.Background(), path, "")
	require.NoError(t, err)
	require.Len(t, fake.uploads, 1)
}

func TestPublish_ContainerCreateFailure(t *testing.T) {
	path := writeArchiveFile(t, "results.tar.zst")
	fake := &fakeBlobClient{
		createErr: &azcore.ResponseError{ErrorCode: "AuthorizationFailure"},
	}
	p := newPublisherWithClient(fake, "bundles")

	_, err := p.Publish(context.Background(), path, "")
	require.ErrorContains(t, err, "creating container bundles")
	require.Empty(t, fake.uploads)
}

func TestPublish_UploadFailure(t *testing.T) {
	path := writeArchiveFile(t, "results.tar.zst")
	fake := &fakeBlobClient{uploadErr: errors.New("boom")}
	p := newPublisherWithClient(fake, "bundles")

	_, err := p.Publish(context.Background(), path, "")
	require.ErrorContains(t, err, "uploading results.tar.zst")
}

func TestPublish_MissingArchive(t *testing.T) {
	p := newPublisherWithClient(&fakeBlobClient{}, "bundles")

	_, err := p.Publish(context.Background(), filepath.Join(t.TempDir(), "absent.tar.zst"), "")
	require.ErrorContains(t, err, "opening archive")
}
