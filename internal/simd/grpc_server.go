package simd

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/seqlearn/pkg/logger"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/models"
)

// SequentialLearningGRPCServer implements SequentialLearningServer using a RunStore backend.
type SequentialLearningGRPCServer struct {
	store    *RunStore
	Executor *RunExecutor
}

// NewSequentialLearningGRPCServer creates a server over store and executor.
func NewSequentialLearningGRPCServer(store *RunStore, executor *RunExecutor) *SequentialLearningGRPCServer {
	return &SequentialLearningGRPCServer{
		store:    store,
		Executor: executor,
	}
}

type runRequest struct {
	RunID          string           `json:"run_id"`
	Input          *RunInput        `json:"input"`
	Model          string           `json:"model"`
	Limit          int              `json:"limit"`
	Status         models.RunStatus `json:"status"`
	PollIntervalMs int64            `json:"poll_interval_ms"`
}

func decodeRequest(in *structpb.Struct) (*runRequest, error) {
	var req runRequest
	if err := FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return &req, nil
}

func requireRunID(in *structpb.Struct) (*runRequest, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	if req.RunID == "" {
		return nil, status.Error(codes.InvalidArgument, "run_id is required")
	}
	return req, nil
}

func (s *SequentialLearningGRPCServer) CreateRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	if req.Input == nil {
		return nil, status.Error(codes.InvalidArgument, "input is required")
	}

	exp, ds, err := ParseRunInput(req.Input)
	if err != nil {
		return nil, grpcError(err)
	}
	rec, err := s.store.Create(req.RunID, req.Input, exp, ds)
	if err != nil {
		return nil, grpcError(err)
	}
	logger.Info("run created", "run_id", rec.Run.ID)

	started, err := s.Executor.Start(rec.Run.ID)
	if err != nil {
		return nil, grpcError(err)
	}
	return respond(map[string]any{"run": newRunView(started)})
}

func (s *SequentialLearningGRPCServer) GetRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := requireRunID(in)
	if err != nil {
		return nil, err
	}
	rec, ok := s.store.Get(req.RunID)
	if !ok {
		return nil, status.Error(codes.NotFound, "run not found")
	}
	return respond(map[string]any{"run": newRunView(rec)})
}

func (s *SequentialLearningGRPCServer) ListRuns(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	recs := s.store.List(req.Limit, models.RunStatus(strings.ToLower(string(req.Status))))
	runs := make([]runView, 0, len(recs))
	for _, rec := range recs {
		runs = append(runs, newRunView(rec))
	}
	return respond(map[string]any{"runs": runs})
}

func (s *SequentialLearningGRPCServer) StopRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := requireRunID(in)
	if err != nil {
		return nil, err
	}
	updated, err := s.Executor.Stop(req.RunID)
	if err != nil {
		return nil, grpcError(err)
	}
	logger.Info("run cancelled", "run_id", req.RunID)
	return respond(map[string]any{"run": newRunView(updated)})
}

func (s *SequentialLearningGRPCServer) GetRunHistory(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	series, err := s.series(in)
	if err != nil {
		return nil, err
	}
	return respond(map[string]any{"label": series.Label, "history": series.History})
}

func (s *SequentialLearningGRPCServer) GetRunSummary(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	series, err := s.series(in)
	if err != nil {
		return nil, err
	}
	return respond(map[string]any{"label": series.Label, "summary": series.Summary})
}

// WatchRun sends the run state once and again on every change of status or
// progress, and returns when the run is terminal.
func (s *SequentialLearningGRPCServer) WatchRun(in *structpb.Struct, stream WatchRunServer) error {
	req, err := requireRunID(in)
	if err != nil {
		return err
	}
	interval := 200 * time.Millisecond
	if req.PollIntervalMs > 0 {
		interval = time.Duration(req.PollIntervalMs) * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *Run
	for {
		rec, ok := s.store.Get(req.RunID)
		if !ok {
			return status.Error(codes.NotFound, "run not found")
		}
		if last == nil || *last != rec.Run {
			msg, err := respond(map[string]any{"run": newRunView(rec)})
			if err != nil {
				return err
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
			run := rec.Run
			last = &run
		}
		if rec.Run.Status.IsTerminal() {
			return nil
		}

		select {
		case <-stream.Context().Done():
			return stream.Context().Err()
		case <-ticker.C:
		}
	}
}

func (s *SequentialLearningGRPCServer) series(in *structpb.Struct) (*SeriesResult, error) {
	req, err := requireRunID(in)
	if err != nil {
		return nil, err
	}
	rec, ok := s.store.Get(req.RunID)
	if !ok {
		return nil, status.Error(codes.NotFound, "run not found")
	}
	series, err := seriesFor(rec, req.Model)
	if err != nil {
		return nil, grpcError(err)
	}
	return series, nil
}

func respond(v any) (*structpb.Struct, error) {
	out, err := ToStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrRunIDMissing):
		return status.Error(codes.InvalidArgument, err.Error())
	case isNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrRunExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, ErrRunTerminal), errors.Is(err, ErrResultsUnavailable):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
