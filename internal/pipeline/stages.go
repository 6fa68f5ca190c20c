package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"newsforge/internal/config"
	"newsforge/internal/gateway"
	"newsforge/internal/jobs"
	"newsforge/internal/services"
	"newsforge/internal/services/publisher"
	"newsforge/internal/services/renderer"
	"newsforge/internal/services/summarizer"
	"newsforge/internal/services/tts"
)

// ErrNoArticles fails a job whose topic yields no usable source material.
var ErrNoArticles = errors.New("no articles found")

// Narration pace used to convert a requested video length into a summary
// word budget.
const wordsPerMinute = 150

// fetchStage pulls articles for the job topic and stores them. Articles whose
// content hash already exists (from any job) are skipped.
type fetchStage struct {
	store *jobs.Store
	gw    *gateway.Gateway
	cfg   *config.Config
}

func (s *fetchStage) Name() jobs.StepName { return jobs.StepFetchNews }

func (s *fetchStage) Execute(ctx context.Context, job *jobs.Job) error {
	max := s.cfg.News.MaxArticles
	articles, err := s.gw.News.Search(ctx, job.Topic, max)
	if err != nil {
		return err
	}

	stored := 0
	for _, article := range articles {
		record := jobs.Article{
			JobID:       job.ID,
			Title:       article.Title,
			Description: article.Description,
			Content:     article.Content,
			URL:         article.URL,
			SourceName:  article.SourceName,
			PublishedAt: article.PublishedAt,
			ContentHash: hashArticle(article.Title, article.Content, article.URL),
			Language:    job.Language,
		}
		_, created, err := s.store.CreateArticle(ctx, record)
		if err != nil {
			return err
		}
		if created {
			stored++
		}
	}
	if stored == 0 {
		return ErrNoArticles
	}
	return nil
}

func hashArticle(title, content, url string) string {
	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(title)))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(content)))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(url)))
	return hex.EncodeToString(h.Sum(nil))
}

// summarizeStage condenses the job's articles into a narration script and
// stores it as the summary artifact.
type summarizeStage struct {
	store *jobs.Store
	gw    *gateway.Gateway
	cfg   *config.Config
}

func (s *summarizeStage) Name() jobs.StepName { return jobs.StepSummarize }

func (s *summarizeStage) Execute(ctx context.Context, job *jobs.Job) error {
	articles, err := s.store.ListArticlesByJob(ctx, job.ID)
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		return ErrNoArticles
	}

	var material strings.Builder
	for _, article := range articles {
		body := article.Content
		if body == "" {
			body = article.Description
		}
		if body == "" {
			continue
		}
		if material.Len() > 0 {
			material.WriteString("\n\n")
		}
		material.WriteString(article.Title)
		material.WriteString(". ")
		material.WriteString(body)
	}
	if material.Len() == 0 {
		return ErrNoArticles
	}

	language := job.Language
	if language == "" {
		language = s.cfg.Workflow.DefaultLanguage
	}
	result, err := s.gw.Summarizer.Summarize(ctx, summarizer.Request{
		Title:      job.Topic,
		Content:    material.String(),
		LengthHint: wordBudget(job.RequestedLength),
		Language:   language,
	})
	if err != nil {
		return err
	}
	return s.store.SetArtifact(ctx, job.ID, jobs.ArtifactSummary, result.Summary)
}

func wordBudget(lengthSeconds int) int {
	words := lengthSeconds * wordsPerMinute / 60
	if words < 30 {
		words = 30
	}
	if words > 300 {
		words = 300
	}
	return words
}

// audioStage synthesizes narration audio from the summary artifact.
type audioStage struct {
	store *jobs.Store
	gw    *gateway.Gateway
	cfg   *config.Config
}

func (s *audioStage) Name() jobs.StepName { return jobs.StepGenerateAudio }

func (s *audioStage) Execute(ctx context.Context, job *jobs.Job) error {
	summary, ok := job.Artifact(jobs.ArtifactSummary)
	if !ok {
		return services.Wrap(services.ErrValidation, string(s.Name()), "synthesize", "summary artifact missing", nil)
	}
	voice := job.VoiceID
	if voice == "" {
		voice = s.cfg.Workflow.DefaultVoiceID
	}
	language := job.Language
	if language == "" {
		language = s.cfg.Workflow.DefaultLanguage
	}
	result, err := s.gw.TTS.Synthesize(ctx, tts.Request{
		Text:     summary,
		VoiceID:  voice,
		Language: language,
	})
	if err != nil {
		return err
	}
	return s.store.SetArtifact(ctx, job.ID, jobs.ArtifactAudio, result.AudioRef)
}

// videoStage renders the video and thumbnail from the summary and audio
// artifacts.
type videoStage struct {
	store *jobs.Store
	gw    *gateway.Gateway
	cfg   *config.Config
}

func (s *videoStage) Name() jobs.StepName { return jobs.StepCreateVideo }

func (s *videoStage) Execute(ctx context.Context, job *jobs.Job) error {
	summary, ok := job.Artifact(jobs.ArtifactSummary)
	if !ok {
		return services.Wrap(services.ErrValidation, string(s.Name()), "render", "summary artifact missing", nil)
	}
	audio, ok := job.Artifact(jobs.ArtifactAudio)
	if !ok {
		return services.Wrap(services.ErrValidation, string(s.Name()), "render", "audio artifact missing", nil)
	}
	theme := job.VideoTheme
	if theme == "" {
		theme = s.cfg.Workflow.DefaultVideoTheme
	}
	result, err := s.gw.Renderer.Render(ctx, renderer.Request{
		SummaryText:     summary,
		AudioRef:        audio,
		Title:           job.Topic,
		Theme:           theme,
		DurationSeconds: float64(job.RequestedLength),
	})
	if err != nil {
		return err
	}
	if err := s.store.SetArtifact(ctx, job.ID, jobs.ArtifactVideo, result.VideoRef); err != nil {
		return err
	}
	if result.ThumbnailRef != "" {
		return s.store.SetArtifact(ctx, job.ID, jobs.ArtifactThumbnail, result.ThumbnailRef)
	}
	return nil
}

// publishStage pushes the rendered video to the external platform and records
// the external reference.
type publishStage struct {
	store *jobs.Store
	gw    *gateway.Gateway
	cfg   *config.Config
}

func (s *publishStage) Name() jobs.StepName { return jobs.StepPublish }

func (s *publishStage) Execute(ctx context.Context, job *jobs.Job) error {
	video, ok := job.Artifact(jobs.ArtifactVideo)
	if !ok {
		return services.Wrap(services.ErrValidation, string(s.Name()), "publish", "video artifact missing", nil)
	}
	thumbnail, _ := job.Artifact(jobs.ArtifactThumbnail)
	summary, _ := job.Artifact(jobs.ArtifactSummary)

	result, err := s.gw.Publisher.Publish(ctx, publisher.Request{
		VideoRef:     video,
		ThumbnailRef: thumbnail,
		Title:        job.Topic,
		Description:  summary,
		Tags:         publishTags(job),
	})
	if err != nil {
		return err
	}
	return s.store.SetExternalResult(ctx, job.ID, result.ExternalURL, result.ExternalID)
}

func publishTags(job *jobs.Job) []string {
	tags := []string{"news"}
	if job.Category != "" {
		tags = append(tags, job.Category)
	}
	return tags
}

func stageError(name jobs.StepName, err error) string {
	return fmt.Sprintf("%s: %v", name, err)
}
