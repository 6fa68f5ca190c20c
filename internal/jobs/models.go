package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{
	StatusQueued,
	StatusRunning,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StepName identifies one of the five fixed pipeline stages.
type StepName string

const (
	StepFetchNews     StepName = "fetch_news"
	StepSummarize     StepName = "summarize"
	StepGenerateAudio StepName = "generate_audio"
	StepCreateVideo   StepName = "create_video"
	StepPublish       StepName = "publish"
)

// StepOrder is the fixed stage sequence every job is seeded with.
var StepOrder = []StepName{
	StepFetchNews,
	StepSummarize,
	StepGenerateAudio,
	StepCreateVideo,
	StepPublish,
}

// StepStatus represents the lifecycle of one pipeline step.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepRunning StepStatus = "running"
	StepDone    StepStatus = "completed"
	StepFailed  StepStatus = "failed"
)

// ArtifactKind names an output produced by a stage.
type ArtifactKind string

const (
	ArtifactSummary   ArtifactKind = "summary"
	ArtifactAudio     ArtifactKind = "audio"
	ArtifactVideo     ArtifactKind = "video"
	ArtifactThumbnail ArtifactKind = "thumbnail"
)

// Step is one pipeline stage record belonging to a job.
type Step struct {
	Name         StepName
	Status       StepStatus
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ErrorMessage string
}

// Job is the unit of work persisted in SQLite.
type Job struct {
	ID               string
	Topic            string
	Language         string
	RequestedLength  int
	Category         string
	Country          string
	VoiceID          string
	VideoTheme       string
	PublishRequested bool
	Status           Status
	Steps            []Step
	Artifacts        map[ArtifactKind]string
	ExternalURL      string
	ExternalID       string
	ErrorMessage     string
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	StartedAt        *time.Time
	CompletedAt      *time.Time
}

// Step returns the step record with the given name, or nil.
func (j *Job) Step(name StepName) *Step {
	for i := range j.Steps {
		if j.Steps[i].Name == name {
			return &j.Steps[i]
		}
	}
	return nil
}

// Artifact returns the stored reference for a kind, if present.
func (j *Job) Artifact(kind ArtifactKind) (string, bool) {
	ref, ok := j.Artifacts[kind]
	return ref, ok && ref != ""
}

// Article is a source document backing a job's summary.
type Article struct {
	ID          int64
	JobID       string
	Title       string
	Description string
	Content     string
	URL         string
	SourceName  string
	PublishedAt *time.Time
	ContentHash string
	Language    string
	CreatedAt   time.Time
}

// CreateParams holds the immutable inputs captured at job creation.
type CreateParams struct {
	Topic            string
	Language         string
	RequestedLength  int
	Category         string
	Country          string
	VoiceID          string
	VideoTheme       string
	PublishRequested bool
	CreatedBy        string
}

// Filter selects jobs for listing. Zero values mean "no constraint";
// conditions are AND-combined.
type Filter struct {
	Status Status
	Topic  string
	From   time.Time
	To     time.Time
	Offset int
	Limit  int
}

// HealthSummary describes aggregated job counts per lifecycle state.
type HealthSummary struct {
	Total     int
	Queued    int
	Running   int
	Completed int
	Failed    int
}
