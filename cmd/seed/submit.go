package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/infrastructure/apiclient"
	"github.com/joaodebarro/backend/internal/interfaces/http/dto"
	"github.com/joaodebarro/backend/internal/interfaces/http/handler"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const maxBatchSize = handler.MaxBatchSize

// errRowsFailed makes the process exit non-zero after the summary is printed
var errRowsFailed = errors.New("some rows were not created")

// Summary is the report printed at the end of a run
type Summary struct {
	Source   string    `json:"source" yaml:"source"`
	DryRun   bool      `json:"dryRun" yaml:"dryRun"`
	Total    int       `json:"total" yaml:"total"`
	Valid    int       `json:"valid" yaml:"valid"`
	Created  int       `json:"created" yaml:"created"`
	Failed   int       `json:"failed" yaml:"failed"`
	Failures []Failure `json:"failures" yaml:"failures"`
}

// Failure is one row that was not created. Row is the spreadsheet line for
// imports and the generated item number for fake data.
type Failure struct {
	Row     int    `json:"row" yaml:"row"`
	Kind    string `json:"kind" yaml:"kind"`
	Code    string `json:"code,omitempty" yaml:"code,omitempty"`
	Column  string `json:"column,omitempty" yaml:"column,omitempty"`
	Message string `json:"message" yaml:"message"`
}

func (s *Summary) fail(f Failure) {
	s.Failed++
	s.Failures = append(s.Failures, f)
}

// item is an entry ready to post, tagged with the row it came from
type item struct {
	row   int
	input finance.EntryInput
}

// submitter posts items one by one or in batches and records the outcome
type submitter struct {
	client    *apiclient.Client
	log       *zap.Logger
	batch     bool
	batchSize int
}

func (s *submitter) submit(ctx context.Context, items []item, sum *Summary) error {
	if len(items) == 0 {
		return nil
	}
	if err := s.client.Ping(ctx); err != nil {
		return fmt.Errorf("api is not reachable: %w", err)
	}
	if s.batch {
		s.submitBatches(ctx, items, sum)
	} else {
		s.submitEach(ctx, items, sum)
	}
	return ctx.Err()
}

func (s *submitter) submitEach(ctx context.Context, items []item, sum *Summary) {
	for _, it := range items {
		if ctx.Err() != nil {
			return
		}
		created, err := s.client.CreateReceivable(ctx, dto.NewReceivableRequest(it.input))
		if err != nil {
			sum.fail(failureFrom(it.row, err))
			s.log.Debug("receivable rejected", zap.Int("row", it.row), zap.Error(err))
			continue
		}
		sum.Created++
		s.log.Debug("receivable created", zap.Int("row", it.row), zap.String("id", created.ID.String()))
	}
}

func (s *submitter) submitBatches(ctx context.Context, items []item, sum *Summary) {
	for start := 0; start < len(items); start += s.batchSize {
		if ctx.Err() != nil {
			return
		}
		chunk := items[start:min(start+s.batchSize, len(items))]
		reqs := make([]dto.ReceivableRequest, len(chunk))
		for i, it := range chunk {
			reqs[i] = dto.NewReceivableRequest(it.input)
		}

		res, err := s.client.CreateReceivableBatch(ctx, reqs)
		if err != nil {
			for _, it := range chunk {
				sum.fail(failureFrom(it.row, err))
			}
			s.log.Warn("batch rejected", zap.Int("first_row", chunk[0].row), zap.Int("size", len(chunk)), zap.Error(err))
			continue
		}

		sum.Created += len(res.Created)
		for _, f := range res.Failures {
			row := 0
			if f.Index >= 0 && f.Index < len(chunk) {
				row = chunk[f.Index].row
			}
			sum.fail(Failure{Row: row, Kind: batchFailureKind(f.Code), Code: f.Code, Message: f.Message})
		}
		s.log.Info("batch posted",
			zap.Int("first_row", chunk[0].row),
			zap.Int("created", len(res.Created)),
			zap.Int("failed", len(res.Failures)))
	}
}

// batchFailureKind classifies one rejected batch item. An item the server could
// not store failed for transport reasons, not because its data was wrong.
func batchFailureKind(code string) string {
	if code == shared.CodeStoreUnavailable {
		return apiclient.KindTransport
	}
	return apiclient.KindValidation
}

func failureFrom(row int, err error) Failure {
	f := Failure{Row: row, Kind: apiclient.Kind(err), Message: err.Error()}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		f.Code = apiErr.Code
		if len(apiErr.Details) > 0 {
			f.Column = apiErr.Details[0].Field
			f.Message = apiErr.Details[0].Message
		}
	}
	return f
}

func writeSummary(w io.Writer, format string, sum *Summary) error {
	if sum.Failures == nil {
		sum.Failures = []Failure{}
	}
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(sum); err != nil {
			return fmt.Errorf("encode summary: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}
}

// finish prints the summary and turns failures into a non-zero exit
func finish(w io.Writer, format string, sum *Summary) error {
	if err := writeSummary(w, format, sum); err != nil {
		return err
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", errRowsFailed, sum.Failed, sum.Total)
	}
	return nil
}
