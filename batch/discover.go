package batch

import (
	"os"
	"path/filepath"

	"github.com/azaharalam/PPT-TPU-MEM/trace"
	"github.com/op/go-logging"
)

// DiscoverLayers creates one job for every "layer*" directory under parent
// that holds fileName. Directories without the file are logged and skipped.
func DiscoverLayers(
	parent, fileName string,
	log *logging.Logger,
) ([]Job, error) {
	dirs, err := trace.LayerDirs(parent)
	if err != nil {
		return nil, err
	}

	var jobs []Job

	for _, dir := range dirs {
		path := filepath.Join(dir, fileName)

		if _, err := os.Stat(path); err != nil {
			log.Warningf("skipping %s: %s not found", dir, fileName)
			continue
		}

		layer := filepath.Base(dir)
		jobs = append(jobs, Job{
			Layer:  layer,
			Source: trace.NpySource{Path: path, Label: layer},
		})
	}

	return jobs, nil
}

// FileJobs creates one job per access table, named after the file.
func FileJobs(paths []string) []Job {
	jobs := make([]Job, 0, len(paths))

	for _, path := range paths {
		jobs = append(jobs, Job{
			Layer:  path,
			Source: trace.NpySource{Path: path},
		})
	}

	return jobs
}
