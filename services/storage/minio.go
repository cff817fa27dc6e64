package storagesvc

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/stationhq/firewatch/core"
	"github.com/stationhq/firewatch/core/file"
)

type minioStorage struct {
	client *minio.Client
	bucket string
}

var _ file.Storage = (*minioStorage)(nil)

func NewMinioStorage(conf *core.Config) (*minioStorage, error) {
	client, err := minio.New(conf.Storage.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(conf.Storage.MinioAccessKey, conf.Storage.MinioSecretKey, ""),
		Secure: conf.Storage.MinioUseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating minio client")
	}

	st := &minioStorage{client: client, bucket: conf.Storage.MinioBucket}
	if err = st.ensureBucket(context.Background()); err != nil {
		return nil, err
	}
	return st, nil
}

func (st *minioStorage) ensureBucket(ctx context.Context) error {
	exists, err := st.client.BucketExists(ctx, st.bucket)
	if err != nil {
		return errors.Wrap(err, "checking bucket")
	}
	if exists {
		return nil
	}
	if err = st.client.MakeBucket(ctx, st.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrap(err, "creating bucket")
	}

	// uploads are served straight from the bucket
	policy := fmt.Sprintf(`{
		"Version": "2012-10-17",
		"Statement": [
			{
				"Action": ["s3:GetObject"],
				"Effect": "Allow",
				"Principal": "*",
				"Resource": "arn:aws:s3:::%s/*"
			}
		]
	}`, st.bucket)
	if err = st.client.SetBucketPolicy(ctx, st.bucket, policy); err != nil {
		return errors.Wrap(err, "setting bucket policy")
	}
	return nil
}

func (st *minioStorage) Save(ctx context.Context, prefix string, up file.Upload) (string, error) {
	key := path.Join(prefix, uuid.NewString()+filepath.Ext(up.Name))

	_, err := st.client.PutObject(ctx, st.bucket, key, up.Body, up.Size, minio.PutObjectOptions{
		ContentType: up.Mime,
	})
	if err != nil {
		return "", errors.Wrap(err, "putting object")
	}
	return key, nil
}

func (st *minioStorage) Remove(ctx context.Context, key string) error {
	if err := st.client.RemoveObject(ctx, st.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, "removing object")
	}
	return nil
}

func (st *minioStorage) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", st.client.EndpointURL(), st.bucket, key)
}
