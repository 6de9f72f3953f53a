package recordprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Amund211/collapser/internal/config"
	"github.com/Amund211/collapser/internal/constants"
	"github.com/Amund211/collapser/internal/domain"
	"github.com/Amund211/collapser/internal/logging"
	"github.com/Amund211/collapser/internal/reporting"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type producerRecordProvider struct {
	httpClient HttpClient
	baseURL    string

	tracer trace.Tracer
}

type producerRecord struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p producerRecordProvider) FindRecords(ctx context.Context, key string) ([]domain.Record, error) {
	ctx, span := p.tracer.Start(ctx, "ProducerRecordProvider.FindRecords")
	defer span.End()

	logger := logging.FromContext(ctx)
	url := fmt.Sprintf("%s/v1/records", p.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		err := fmt.Errorf("%w: failed to create request: %w", domain.ErrUpstream, err)
		reporting.Report(ctx, err)
		return nil, err
	}
	req.Header.Set("User-Agent", constants.USER_AGENT)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		kind := domain.ErrUpstream
		if errors.Is(err, context.DeadlineExceeded) {
			kind = domain.ErrUpstreamTimeout
		}
		err := fmt.Errorf("%w: failed to send request: %w", kind, err)
		reporting.Report(ctx, err)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err := fmt.Errorf("%w: failed to read response body: %w", domain.ErrUpstream, err)
		reporting.Report(ctx, err)
		return nil, err
	}
	logger.InfoContext(ctx, "producer request completed", "url", url, "status", resp.StatusCode, "duration", time.Since(start).String())

	records, err := recordsFromProducerResponse(resp.StatusCode, data)
	if err != nil {
		reporting.Report(ctx, err, map[string]string{
			"status": strconv.Itoa(resp.StatusCode),
			"data":   truncate(string(data), 1000),
		})
		return nil, err
	}

	matching := filterRecords(records, key)
	span.SetAttributes(
		attribute.Int("records.total", len(records)),
		attribute.Int("records.matching", len(matching)),
	)

	return matching, nil
}

func (p producerRecordProvider) Ping(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/health", p.baseURL), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", constants.USER_AGENT)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func recordsFromProducerResponse(statusCode int, data []byte) ([]domain.Record, error) {
	if statusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: producer returned status code %d", domain.ErrUpstream, statusCode)
	}

	var response []producerRecord
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to parse producer response: %w", domain.ErrUpstream, err)
	}

	records := make([]domain.Record, 0, len(response))
	for _, record := range response {
		records = append(records, domain.Record{
			ID:        record.ID,
			Content:   record.Content,
			CreatedAt: record.CreatedAt,
		})
	}
	return records, nil
}

// filterRecords keeps the records containing key, ignoring case, in upstream order
func filterRecords(records []domain.Record, key string) []domain.Record {
	needle := strings.ToLower(key)
	matching := make([]domain.Record, 0)
	for _, record := range records {
		if strings.Contains(strings.ToLower(record.Content), needle) {
			matching = append(matching, record)
		}
	}
	return matching
}

func truncate(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "..."
}

func NewProducerRecordProvider(httpClient HttpClient, baseURL string) RecordProvider {
	return producerRecordProvider{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),

		tracer: otel.Tracer("collapser/recordprovider/producer"),
	}
}

func NewRecordProviderOrMock(conf config.Config, httpClient HttpClient) (RecordProvider, error) {
	if conf.ProducerURL() != "" {
		return NewProducerRecordProvider(httpClient, conf.ProducerURL()), nil
	}
	if conf.IsDevelopment() {
		return NewMockedRecordProvider(), nil
	}
	return nil, fmt.Errorf("Missing producer URL in non-development environment")
}
