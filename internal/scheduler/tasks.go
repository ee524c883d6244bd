package scheduler

// Names of the service's scheduled tasks.
const (
	TaskRefreshPipeline     = "refreshPipeline"
	TaskCleanupRawFiles     = "cleanupRawFiles"
	TaskCleanupRawSnapshots = "cleanupRawSnapshots"
	TaskPruneTariffsBox     = "pruneTariffsBox"
)

// RetentionTasks are triggered together by a manual retention run.
var RetentionTasks = []string{TaskCleanupRawFiles, TaskCleanupRawSnapshots, TaskPruneTariffsBox}
