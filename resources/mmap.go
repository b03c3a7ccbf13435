//go:build !wasip1 && !js

package resources

import (
	"os"

	"github.com/edsrzf/mmap-go"
)

// readMmap maps file read-only. The returned release function unmaps it.
// Empty files cannot be mapped and yield an empty slice instead.
func readMmap(file *os.File) (*[]byte, func() error, error) {
	if stat, err := file.Stat(); err == nil && stat.Size() == 0 {
		empty := make([]byte, 0)
		return &empty, func() error { return nil }, nil
	}
	fileMmap, mmapErr := mmap.Map(file, mmap.RDONLY, 0)
	if mmapErr != nil {
		return nil, nil, mmapErr
	}
	mmapBytes := (*[]byte)(&fileMmap)
	return mmapBytes, fileMmap.Unmap, nil
}
