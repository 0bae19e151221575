package blob

import (
	"context"
	"fmt"
	"os"
)

// Open selects a Store implementation using environment variables.
//
//	POLYTROPOS_BLOB_DRIVER: fs|s3|memory (default fs)
//	POLYTROPOS_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	(S3 specific variables documented in s3.go)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("POLYTROPOS_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("POLYTROPOS_BLOB_FS_ROOT"))
	case DriverS3:
		return OpenS3FromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("blob: unknown driver %s", driver)
	}
}

// OpenAt returns a store for an explicit location: an fs store rooted at the
// path, unless the environment selects a non-filesystem driver.
func OpenAt(ctx context.Context, root string) (Store, error) {
	driver := os.Getenv("POLYTROPOS_BLOB_DRIVER")
	if driver == "" || Driver(driver) == DriverFilesystem {
		return NewFilesystem(root)
	}
	return Open(ctx)
}
