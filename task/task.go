// Package task builds the remote task descriptors queued on a batch platform,
// one per catalog scene.
package task

import (
	"fmt"
	"time"

	"github.com/delange/planetary-computer-batch/util"
)

// UploadCondition selects when a task's output files are uploaded.
type UploadCondition string

// Upload conditions understood by the compute backends.
const (
	TaskCompletion UploadCondition = "TaskCompletion"
	TaskSuccess    UploadCondition = "TaskSuccess"
	TaskFailure    UploadCondition = "TaskFailure"
)

// OutputFile is an output-upload rule: files in the task working directory
// matching FilePattern are uploaded to Destination under Condition.
type OutputFile struct {
	FilePattern string
	// Destination is a container or prefix URL, e.g. a blob container SAS URL,
	// s3://bucket/prefix, gs://bucket/prefix or a local directory.
	Destination string
	Condition   UploadCondition
}

// Task is a remote task descriptor. It is created once per scene, submitted
// once and never updated.
type Task struct {
	ID      string
	SceneID string

	// Red, NIR and Output are the arguments the command was rendered with.
	Red    string
	NIR    string
	Output string

	CommandLine         string
	Image               string
	ContainerRunOptions string
	Retention           time.Duration
	OutputFiles         []OutputFile
}

// maxIDLength is the longest task ID accepted by Azure Batch.
const maxIDLength = 64

// NewTaskID returns "<user>_<kind>_<YYYYmmdd-HHMMSS>_<random>". The user is
// sanitized and truncated so the ID stays within platform limits.
func NewTaskID(user, kind string, now time.Time) string {
	suffix := fmt.Sprintf("_%s_%s_%s", kind, now.Format("20060102-150405"), util.GenID())
	prefix := util.SafeID(user)
	if room := maxIDLength - len(suffix); len(prefix) > room {
		if room < 0 {
			room = 0
		}
		prefix = prefix[:room]
	}
	return prefix + suffix
}
