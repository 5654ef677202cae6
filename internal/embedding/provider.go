package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider is the batch API the manager drives. Every call is a single
// request; no handle is held between calls so any job can be resumed by ID.
type Provider interface {
	UploadFile(ctx context.Context, name string, data []byte) (string, error)
	CreateBatch(ctx context.Context, inputFileID, endpoint, completionWindow string) (JobStatus, error)
	RetrieveBatch(ctx context.Context, jobID string) (JobStatus, error)
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

// DefaultBaseURL is the OpenAI API root
const DefaultBaseURL = "https://api.openai.com"

// APIError is a non-2xx response from the provider
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider returned HTTP %d: %s", e.StatusCode, e.Body)
}

// OpenAIProvider implements Provider against the OpenAI files and batches endpoints
type OpenAIProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewOpenAIProvider creates a provider. An empty baseURL uses DefaultBaseURL.
func NewOpenAIProvider(baseURL, apiKey string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	return &OpenAIProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// UploadFile uploads a JSONL request file with purpose "batch" and returns its file ID
func (p *OpenAIProvider) UploadFile(ctx context.Context, name string, data []byte) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("purpose", "batch"); err != nil {
		return "", err
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/files", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var file struct {
		ID string `json:"id"`
	}
	if err := p.doJSON(req, &file); err != nil {
		return "", err
	}
	if file.ID == "" {
		return "", fmt.Errorf("upload response carried no file id")
	}
	return file.ID, nil
}

// CreateBatch starts a batch job over an uploaded input file
func (p *OpenAIProvider) CreateBatch(ctx context.Context, inputFileID, endpoint, completionWindow string) (JobStatus, error) {
	payload, err := json.Marshal(map[string]string{
		"input_file_id":     inputFileID,
		"endpoint":          endpoint,
		"completion_window": completionWindow,
	})
	if err != nil {
		return JobStatus{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/batches", bytes.NewReader(payload))
	if err != nil {
		return JobStatus{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var job JobStatus
	if err := p.doJSON(req, &job); err != nil {
		return JobStatus{}, err
	}
	return job, nil
}

// RetrieveBatch fetches the current state of a batch job
func (p *OpenAIProvider) RetrieveBatch(ctx context.Context, jobID string) (JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/batches/"+url.PathEscape(jobID), nil)
	if err != nil {
		return JobStatus{}, err
	}

	var job JobStatus
	if err := p.doJSON(req, &job); err != nil {
		return JobStatus{}, err
	}
	return job, nil
}

// DownloadFile returns the raw content of a provider file
func (p *OpenAIProvider) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/files/"+url.PathEscape(fileID)+"/content", nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	return io.ReadAll(resp.Body)
}

func (p *OpenAIProvider) doJSON(req *http.Request, out any) error {
	resp, err := p.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}

// do sends req with auth and converts non-2xx responses into APIError
func (p *OpenAIProvider) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return resp, nil
}
