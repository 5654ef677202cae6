package embedding

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/bookmark-intelligence/internal/config"
	"github.com/jonathan/bookmark-intelligence/internal/metrics"
	"github.com/jonathan/bookmark-intelligence/internal/types"
)

// Endpoint is the provider path each batch request targets
const Endpoint = "/v1/embeddings"

const (
	customIDPrefix = "bookmark-"
	inputFileName  = "batch_embeddings_input.jsonl"
	maxLineBytes   = 16 * 1024 * 1024
)

// JobStore persists the request payload and the pending job so a run can resume after a crash.
// LoadJob returns nil when no job is pending.
type JobStore interface {
	SaveBatchInput(data []byte) error
	SaveJob(job types.BatchJob) error
	LoadJob() (*types.BatchJob, error)
	ClearJob() error
}

// Manager submits, polls and collects batch embedding jobs
type Manager struct {
	provider Provider
	store    JobStore
	settings config.EmbeddingSettings
}

// NewManager creates a manager. settings should already be merged with defaults.
func NewManager(provider Provider, store JobStore, settings config.EmbeddingSettings) *Manager {
	return &Manager{provider: provider, store: store, settings: settings}
}

// Request is one line of the batch input file
type Request struct {
	CustomID string      `json:"custom_id"`
	Method   string      `json:"method"`
	URL      string      `json:"url"`
	Body     RequestBody `json:"body"`
}

// RequestBody is the embeddings payload for one bookmark
type RequestBody struct {
	Model      string `json:"model"`
	Input      string `json:"input"`
	Dimensions int    `json:"dimensions,omitempty"`
}

// BuildRequests creates one request per bookmark, tagged with its input position
func (m *Manager) BuildRequests(bookmarks []types.Bookmark) []Request {
	reqs := make([]Request, len(bookmarks))
	for i, b := range bookmarks {
		reqs[i] = Request{
			CustomID: customIDPrefix + strconv.Itoa(i),
			Method:   "POST",
			URL:      Endpoint,
			Body: RequestBody{
				Model:      m.settings.Model,
				Input:      b.Title + "\n" + b.URL,
				Dimensions: m.settings.Dimensions,
			},
		}
	}
	return reqs
}

// EncodeRequests serializes requests as JSON lines
func EncodeRequests(reqs []Request) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range reqs {
		if err := enc.Encode(r); err != nil {
			return nil, fmt.Errorf("failed to encode request %s: %w", r.CustomID, err)
		}
	}
	return buf.Bytes(), nil
}

// Submit uploads one embedding request per bookmark and creates a batch job.
// The job is recorded with the export's Fingerprint; its ID can be passed to
// Poll, AwaitCompletion or Retrieve later.
func (m *Manager) Submit(ctx context.Context, bookmarks []types.Bookmark) (string, error) {
	if len(bookmarks) == 0 {
		return "", fmt.Errorf("no bookmarks to embed")
	}

	log.Info().Int("bookmarks", len(bookmarks)).Str("model", m.settings.Model).Msg("creating embedding batch job")

	payload, err := EncodeRequests(m.BuildRequests(bookmarks))
	if err != nil {
		return "", err
	}
	if err := m.store.SaveBatchInput(payload); err != nil {
		return "", fmt.Errorf("failed to save batch input: %w", err)
	}

	fileID, err := m.provider.UploadFile(ctx, inputFileName, payload)
	if err != nil {
		return "", &ProviderError{Op: "upload batch input", Cause: err}
	}

	job, err := m.provider.CreateBatch(ctx, fileID, Endpoint, m.settings.CompletionWindow)
	if err != nil {
		return "", &ProviderError{Op: "create batch", Cause: err}
	}
	if job.ID == "" {
		return "", &ProviderError{Op: "create batch", Cause: fmt.Errorf("provider returned no job id")}
	}

	record := types.BatchJob{
		ID:          job.ID,
		InputHash:   types.Fingerprint(bookmarks),
		Bookmarks:   len(bookmarks),
		SubmittedAt: time.Now().UTC(),
	}
	if err := m.store.SaveJob(record); err != nil {
		return job.ID, fmt.Errorf("batch %s created but its id could not be saved: %w", job.ID, err)
	}

	log.Info().
		Str("job_id", job.ID).
		Str("status", string(job.Status)).
		Str("completion_window", m.settings.CompletionWindow).
		Msg("embedding batch job created")
	return job.ID, nil
}

// LoadJob returns the job recorded by the last Submit, or nil if none is pending
func (m *Manager) LoadJob() (*types.BatchJob, error) {
	return m.store.LoadJob()
}

// PendingJob returns the ID of the recorded job when it was submitted for this
// exact export, or "" when there is none. A job built from a different export
// is never resumed; it is reported and left for Submit to replace.
func (m *Manager) PendingJob(bookmarks []types.Bookmark) (string, error) {
	job, err := m.store.LoadJob()
	if err != nil || job == nil {
		return "", err
	}
	if want := types.Fingerprint(bookmarks); job.InputHash != want {
		log.Warn().
			Str("job_id", job.ID).
			Int("job_bookmarks", job.Bookmarks).
			Int("bookmarks", len(bookmarks)).
			Msg("recorded embedding job belongs to a different bookmark export, not resuming it")
		return "", nil
	}
	return job.ID, nil
}

// Finish forgets the recorded job once its vectors are persisted.
// A recorded job with a different ID is left alone.
func (m *Manager) Finish(jobID string) error {
	job, err := m.store.LoadJob()
	if err != nil || job == nil || job.ID != jobID {
		return err
	}
	return m.store.ClearJob()
}

// Poll performs a single status check
func (m *Manager) Poll(ctx context.Context, jobID string) (JobStatus, error) {
	job, err := m.provider.RetrieveBatch(ctx, jobID)
	if err != nil {
		return JobStatus{}, &ProviderError{Op: "retrieve batch", JobID: jobID, Cause: err}
	}
	if job.ID == "" {
		job.ID = jobID
	}
	metrics.EmbeddingJobPollsTotal.WithLabelValues(string(job.Status)).Inc()
	return job, nil
}

// AwaitCompletion polls every interval until the job reaches a terminal state.
// A completed job is returned; failed, expired and cancelled jobs yield JobFailedError.
// After timeout it returns JobTimeoutError; the job keeps running and can be awaited again.
func (m *Manager) AwaitCompletion(ctx context.Context, jobID string, interval, timeout time.Duration) (JobStatus, error) {
	if interval <= 0 {
		interval = m.settings.PollInterval
	}
	if timeout <= 0 {
		timeout = m.settings.Timeout
	}

	log.Info().Str("job_id", jobID).Dur("poll_interval", interval).Dur("timeout", timeout).Msg("waiting for embedding batch")

	start := time.Now()
	for {
		job, err := m.Poll(ctx, jobID)
		if err != nil {
			return JobStatus{}, err
		}

		switch job.Status {
		case StatusCompleted:
			log.Info().Str("job_id", jobID).Int("completed", job.RequestCounts.Completed).Msg("embedding batch completed")
			return job, nil
		case StatusFailed, StatusExpired, StatusCancelled:
			return job, &JobFailedError{Job: job}
		}

		elapsed := time.Since(start)
		if elapsed >= timeout {
			return job, &JobTimeoutError{Timeout: timeout, Last: job}
		}

		log.Info().
			Str("job_id", jobID).
			Str("status", string(job.Status)).
			Int("completed", job.RequestCounts.Completed).
			Int("total", job.RequestCounts.Total).
			Str("elapsed", elapsed.Round(time.Second).String()).
			Msg("embedding batch in progress")

		wait := min(interval, timeout-elapsed)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return job, ctx.Err()
		case <-timer.C:
		}
	}
}

// result is one line of the batch output file
type result struct {
	CustomID string `json:"custom_id"`
	Response *struct {
		StatusCode int `json:"status_code"`
		Body       struct {
			Data []struct {
				Embedding []float64 `json:"embedding"`
			} `json:"data"`
		} `json:"body"`
	} `json:"response"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Retrieve downloads and reassembles the vectors of a completed job.
// Failed sub-requests are logged and skipped; the surviving vectors are ordered
// by their bookmark index, which EmbeddingSet.Indices records.
func (m *Manager) Retrieve(ctx context.Context, jobID string) (*types.EmbeddingSet, error) {
	job, err := m.Poll(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != StatusCompleted {
		return nil, &NotReadyError{JobID: jobID, Status: job.Status}
	}
	if job.OutputFileID == "" {
		return nil, &EmptyResultError{JobID: jobID, Message: "job has no output file"}
	}

	data, err := m.provider.DownloadFile(ctx, job.OutputFileID)
	if err != nil {
		return nil, &ProviderError{Op: "download results", JobID: jobID, Cause: err}
	}

	set, failed, err := parseResults(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse results of job %s: %w", jobID, err)
	}
	set.Model = m.settings.Model

	if failed > 0 {
		perr := &PartialResultError{JobID: jobID, Failed: failed, Succeeded: set.Len()}
		log.Warn().Err(perr).Int("failed", failed).Int("embedded", set.Len()).Msg("some bookmarks were not embedded")
		metrics.EmbeddingFailedRequestsTotal.Add(float64(failed))
	}
	if set.Len() == 0 {
		return nil, &EmptyResultError{JobID: jobID, Message: "zero results parsed"}
	}

	log.Info().Str("job_id", jobID).Int("embedded", set.Len()).Int("dimensions", set.Dimensions()).Msg("retrieved embeddings")
	return set, nil
}

type indexedVector struct {
	index  int
	vector []float64
}

// parseResults decodes JSONL output, counting lines that carry no usable vector
func parseResults(data []byte) (*types.EmbeddingSet, int, error) {
	var (
		rows   []indexedVector
		failed int
		seen   = make(map[int]bool)
		dims   int
	)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var r result
		if err := json.Unmarshal(line, &r); err != nil {
			failed++
			log.Error().Err(err).Msg("skipping undecodable result line")
			continue
		}

		idx, ok := parseCustomID(r.CustomID)
		if !ok {
			failed++
			log.Error().Str("custom_id", r.CustomID).Msg("skipping result with unknown custom id")
			continue
		}

		if r.Response == nil || r.Response.StatusCode != 200 || len(r.Response.Body.Data) == 0 {
			failed++
			ev := log.Error().Str("custom_id", r.CustomID).Int("index", idx)
			if r.Response != nil {
				ev = ev.Int("status_code", r.Response.StatusCode)
			}
			if r.Error != nil {
				ev = ev.Str("error_code", r.Error.Code).Str("error", r.Error.Message)
			}
			ev.Msg("embedding request failed")
			continue
		}

		vec := r.Response.Body.Data[0].Embedding
		if dims == 0 {
			dims = len(vec)
		}
		if len(vec) == 0 || len(vec) != dims {
			failed++
			log.Error().Str("custom_id", r.CustomID).Int("dimensions", len(vec)).Int("expected", dims).Msg("skipping vector with unexpected width")
			continue
		}
		if seen[idx] {
			log.Warn().Str("custom_id", r.CustomID).Msg("skipping duplicate result")
			continue
		}
		seen[idx] = true
		rows = append(rows, indexedVector{index: idx, vector: vec})
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].index < rows[j].index })

	set := &types.EmbeddingSet{
		Indices: make([]int, len(rows)),
		Vectors: make([][]float64, len(rows)),
	}
	for i, r := range rows {
		set.Indices[i] = r.index
		set.Vectors[i] = r.vector
	}
	return set, failed, nil
}

func parseCustomID(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, customIDPrefix)
	if !ok {
		return 0, false
	}
	idx, err := strconv.Atoi(rest)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

// Token price in USD per million tokens, batch discount and average input size used for estimates
const (
	costPerMillionTokens = 0.020
	batchDiscount        = 0.5
	avgTokensPerBookmark = 500
)

// EstimateCost returns the approximate USD cost of embedding n bookmarks through the batch API
func EstimateCost(n int) float64 {
	return float64(n*avgTokensPerBookmark) / 1_000_000 * costPerMillionTokens * batchDiscount
}
