package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/missions-backend/internal/platform/gcp"
	"github.com/yungbote/missions-backend/internal/platform/logger"
)

var newBucketService = gcp.NewBucketService

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidConfig StorageProviderBootstrapErrorCode = "invalid_config"
	StorageProviderBootstrapErrorConnectFailed StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code   StorageProviderBootstrapErrorCode
	Reason gcp.ObjectStorageConfigErrorCode
	Mode   string
	Cause  error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	if e.Reason != "" {
		return fmt.Sprintf("object storage bootstrap failed (code=%s reason=%s mode=%q): %v", e.Code, e.Reason, e.Mode, e.Cause)
	}
	return fmt.Sprintf("object storage bootstrap failed (code=%s mode=%q): %v", e.Code, e.Mode, e.Cause)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveBucketService picks the certificate PDF store for the configured
// mode and classifies bootstrap failures so startup logs say what to fix.
func resolveBucketService(ctx context.Context, log *logger.Logger, storageCfg gcp.ObjectStorageConfig) (gcp.BucketService, error) {
	storageCfg = gcp.NormalizeObjectStorageConfig(storageCfg)
	log.Info(
		"Selecting object storage provider",
		"mode", storageCfg.Mode,
		"bucket", storageCfg.Bucket,
		"emulator_host", storageCfg.EmulatorHost,
		"local_dir", storageCfg.LocalDir,
	)

	bucket, err := newBucketService(ctx, log, storageCfg)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error(
			"Object storage provider bootstrap failed",
			"mode", storageCfg.Mode,
			"error_code", classified.Code,
			"reason", classified.Reason,
			"error", err,
		)
		return nil, classified
	}
	return bucket, nil
}

func classifyStorageProviderBootstrapError(storageCfg gcp.ObjectStorageConfig, err error) *StorageProviderBootstrapError {
	out := &StorageProviderBootstrapError{
		Code:  StorageProviderBootstrapErrorConnectFailed,
		Mode:  string(storageCfg.Mode),
		Cause: err,
	}
	var cfgErr *gcp.ObjectStorageConfigError
	if errors.As(err, &cfgErr) {
		out.Code = StorageProviderBootstrapErrorInvalidConfig
		out.Reason = cfgErr.Code
	}
	return out
}
