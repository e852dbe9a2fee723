package ytdl

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// tempFile is a downloaded track that takes its temp directory with it on Close.
type tempFile struct {
	*os.File
	dir string
}

func (f *tempFile) Close() error {
	err := f.File.Close()
	if err1 := os.RemoveAll(f.dir); err1 != nil {
		log.Errorf("could not remove temp dir %s: %v", f.dir, err1)
	}
	return err
}
