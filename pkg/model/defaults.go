package model

import (
	"time"
)

const (
	// IDLength is the length of every catalog id, youtube video ids included.
	IDLength = 11

	DefaultUploadTTL   = time.Hour
	DefaultDownloadTTL = 15 * time.Minute

	DefaultWorkers       = 2
	DefaultQueueSize     = 1024
	DefaultMaxAttempts   = 3
	DefaultRetrySchedule = "@every 30m"

	DefaultLogMaxSize    = 50 // megabytes
	DefaultLogMaxAge     = 30 // days
	DefaultLogMaxBackups = 7
)
