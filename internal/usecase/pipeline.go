package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/tariffs-service/internal/entity"
	"github.com/user/tariffs-service/internal/repository"
	"github.com/user/tariffs-service/pkg/metrics"
)

// State names a step of a pipeline run. Errors returned by Run are prefixed
// with the state that failed.
type State string

const (
	StatePinging             State = "PINGING"
	StateFetching            State = "FETCHING"
	StateArchiving           State = "ARCHIVING"
	StateRecordingRaw        State = "RECORDING_RAW"
	StateNormalizing         State = "NORMALIZING"
	StateReplacingNormalized State = "REPLACING_NORMALIZED"
	StateExporting           State = "EXPORTING"
	StateDone                State = "DONE"
)

const (
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

// Parser normalizes a decoded payload.
type Parser interface {
	Parse(payload any, rawID string) entity.ParseResult
}

// Pipeline runs one fetch → archive → record → normalize → replace → export cycle.
type Pipeline interface {
	Run(ctx context.Context) (*entity.PipelineResult, error)
}

// PipelineDeps are the collaborators of a pipeline run.
type PipelineDeps struct {
	API        repository.TariffsAPI
	Archive    repository.RawArchive
	RawRepo    repository.RawSnapshotRepository
	BoxRepo    repository.TariffsBoxRepository
	Parser     Parser
	Exporter   Exporter
	Targets    TargetLister
	RunStatus  repository.RunStatusRepository
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
	Concurrent int           // parallel exports, at least 1
	HashTTL    time.Duration // how long payload hashes are remembered
}

type pipelineUseCase struct {
	PipelineDeps
	logger *zap.Logger
	now    func() time.Time
}

// NewPipeline creates a new Pipeline use case.
func NewPipeline(deps PipelineDeps) Pipeline {
	if deps.Concurrent < 1 {
		deps.Concurrent = 1
	}
	if deps.HashTTL <= 0 {
		deps.HashTTL = 7 * 24 * time.Hour
	}
	return &pipelineUseCase{
		PipelineDeps: deps,
		logger:       deps.Logger.Named("tariffs-box"),
		now:          time.Now,
	}
}

func (uc *pipelineUseCase) Run(ctx context.Context) (result *entity.PipelineResult, err error) {
	started := uc.now()
	defer func() { uc.finish(ctx, started, result, err) }()

	uc.logger.Info("starting pipeline")

	step := func(s State, err error) error {
		uc.logger.Error("pipeline step failed", zap.String("step", string(s)), zap.Error(err))
		return fmt.Errorf("%s: %w", s, err)
	}

	if err := uc.API.Ping(ctx); err != nil {
		return nil, step(StatePinging, err)
	}
	uc.logger.Info("ping successful")

	resp, err := uc.API.FetchTariffs(ctx)
	if err != nil {
		return nil, step(StateFetching, err)
	}
	uc.logger.Info("payload fetched", zap.Int("status", resp.Status), zap.String("url", resp.URL))

	archived, err := uc.Archive.Persist(ctx, resp.Payload, resp.RawBody)
	if err != nil {
		return nil, step(StateArchiving, err)
	}
	uc.logger.Info("raw payload archived",
		zap.String("json_path", archived.JSONPath),
		zap.String("text_path", archived.TextPath),
		zap.Int("bytes", archived.BytesWritten),
	)
	uc.auditPayloadHash(ctx, archived.PayloadHash)

	compact, err := json.Marshal(resp.Payload)
	if err != nil {
		return nil, step(StateRecordingRaw, err)
	}
	snapshot := &entity.RawSnapshot{
		JSONPayload: string(compact),
		TextPayload: resp.RawBody,
		JSONPath:    archived.JSONPath,
		TextPath:    archived.TextPath,
		SourceURL:   resp.URL,
		StatusCode:  resp.Status,
		PayloadHash: archived.PayloadHash,
	}
	if err := uc.RawRepo.Create(ctx, snapshot); err != nil {
		return nil, step(StateRecordingRaw, err)
	}
	uc.logger.Info("raw snapshot saved", zap.String("raw_id", snapshot.ID))

	parsed := uc.Parser.Parse(resp.Payload, snapshot.ID)
	uc.logger.Info("parsed rows", zap.Int("count", len(parsed.Records)))

	replaced, err := uc.BoxRepo.ReplaceForRawID(ctx, snapshot.ID, parsed.Records)
	if err != nil {
		return nil, step(StateReplacingNormalized, err)
	}
	uc.logger.Info("normalized rows persisted", zap.Int("count", replaced))

	targets, err := uc.Targets.ListTargets(ctx)
	if err != nil {
		return nil, step(StateExporting, err)
	}
	uc.logger.Info("found spreadsheets to export", zap.Int("count", len(targets)))

	exportResults, exported := uc.exportAll(ctx, parsed.Records, targets)

	uc.Metrics.PipelineParsedRows.Set(float64(len(parsed.Records)))
	uc.logger.Info("pipeline finished",
		zap.String("step", string(StateDone)),
		zap.String("raw_id", snapshot.ID),
		zap.Int("parsed_rows", len(parsed.Records)),
		zap.Int("exported_rows", exported),
	)

	return &entity.PipelineResult{
		RawSnapshotID:      snapshot.ID,
		ParsedRows:         len(parsed.Records),
		ExportedRows:       exported,
		Skipped:            false,
		StructuredResponse: parsed.StructuredResponse,
		ExportResults:      exportResults,
	}, nil
}

// exportAll exports to every target with bounded parallelism. A failing
// target is recorded in its result and never stops the others. Results keep
// the order of targets.
func (uc *pipelineUseCase) exportAll(ctx context.Context, records []entity.TariffsBoxRecord, targets []string) ([]entity.ExportResult, int) {
	results := make([]entity.ExportResult, len(targets))

	var g errgroup.Group
	g.SetLimit(uc.Concurrent)
	for i, id := range targets {
		g.Go(func() error {
			results[i] = uc.exportOne(ctx, records, id)
			return nil
		})
	}
	_ = g.Wait()

	total, failed := 0, 0
	for _, r := range results {
		if r.Success {
			total += r.RowsExported
		} else {
			failed++
		}
	}
	uc.logger.Info("export summary",
		zap.Int("total_spreadsheets", len(targets)),
		zap.Int("successful", len(targets)-failed),
		zap.Int("failed", failed),
		zap.Int("total_rows_exported", total),
	)
	return results, total
}

func (uc *pipelineUseCase) exportOne(ctx context.Context, records []entity.TariffsBoxRecord, spreadsheetID string) (res entity.ExportResult) {
	res.SpreadsheetID = spreadsheetID
	defer func() {
		if p := recover(); p != nil {
			res = entity.ExportResult{SpreadsheetID: spreadsheetID, Error: fmt.Sprintf("export panicked: %v", p)}
		}
		if res.Success {
			uc.Metrics.ExportAttemptsTotal.WithLabelValues("success").Inc()
			uc.Metrics.ExportRowsTotal.Add(float64(res.RowsExported))
			return
		}
		uc.Metrics.ExportAttemptsTotal.WithLabelValues("failure").Inc()
		uc.logger.Error("failed to export to spreadsheet",
			zap.String("step", string(StateExporting)),
			zap.String("spreadsheet_id", spreadsheetID),
			zap.String("error", res.Error),
		)
	}()

	n, err := uc.Exporter.ExportRows(ctx, records, spreadsheetID)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	res.RowsExported = n
	return res
}

// auditPayloadHash records the archived payload hash. Repeated payloads are
// logged only; they never skip a run.
func (uc *pipelineUseCase) auditPayloadHash(ctx context.Context, hash string) {
	seen, err := uc.RunStatus.RecordPayloadHash(ctx, hash, uc.HashTTL)
	if err != nil {
		uc.logger.Warn("failed to record payload hash", zap.String("payload_hash", hash), zap.Error(err))
		return
	}
	if seen {
		uc.logger.Info("payload identical to a previous fetch", zap.String("payload_hash", hash))
	}
}

func (uc *pipelineUseCase) finish(ctx context.Context, started time.Time, result *entity.PipelineResult, runErr error) {
	finished := uc.now()
	uc.Metrics.PipelineRunDuration.Observe(finished.Sub(started).Seconds())

	status := &entity.RunStatus{
		Status:     RunStatusSuccess,
		StartedAt:  started,
		FinishedAt: finished,
		Result:     result,
	}
	if runErr != nil {
		status.Status = RunStatusFailed
		status.Error = runErr.Error()
	}
	uc.Metrics.PipelineRunsTotal.WithLabelValues(status.Status).Inc()

	// The run context may already be cancelled; the status write gets its own budget.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := uc.RunStatus.SaveLastRun(saveCtx, status); err != nil {
		uc.logger.Warn("failed to save run status", zap.Error(err))
	}
}
