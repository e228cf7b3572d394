package simd

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/seqlearn/pkg/models"
)

func newBufconnClient(t *testing.T) (*SequentialLearningClient, *RunStore, *RunExecutor) {
	t.Helper()
	store := NewRunStore()
	executor := NewRunExecutor(store, nil)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterSequentialLearningServer(srv, NewSequentialLearningGRPCServer(store, executor))
	go func() {
		_ = srv.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		srv.Stop()
		_ = executor.Shutdown(context.Background())
	})
	return NewSequentialLearningClient(conn), store, executor
}

func mustStruct(t *testing.T, v map[string]any) *structpb.Struct {
	t.Helper()
	s, err := ToStruct(v)
	if err != nil {
		t.Fatalf("ToStruct error: %v", err)
	}
	return s
}

func runStatus(t *testing.T, resp *structpb.Struct) string {
	t.Helper()
	run := resp.GetFields()["run"].GetStructValue()
	if run == nil {
		t.Fatalf("response has no run: %v", resp)
	}
	return run.GetFields()["status"].GetStringValue()
}

func TestGRPCServerCreateWatchAndFetchResults(t *testing.T) {
	client, _, _ := newBufconnClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	created, err := client.CreateRun(ctx, mustStruct(t, map[string]any{
		"run_id": "grpc-1",
		"input":  map[string]any{"experiment_yaml": inlineExperiment},
	}))
	if err != nil {
		t.Fatalf("CreateRun error: %v", err)
	}
	if got := runStatus(t, created); got != string(models.RunStatusRunning) && got != string(models.RunStatusCompleted) {
		t.Fatalf("unexpected status after create: %s", got)
	}

	stream, err := client.WatchRun(ctx, mustStruct(t, map[string]any{"run_id": "grpc-1", "poll_interval_ms": 5}))
	if err != nil {
		t.Fatalf("WatchRun error: %v", err)
	}
	var last string
	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Recv error: %v", err)
		}
		last = runStatus(t, msg)
	}
	if last != string(models.RunStatusCompleted) {
		t.Fatalf("expected watch to end on completed, got %s", last)
	}

	summary, err := client.GetRunSummary(ctx, mustStruct(t, map[string]any{"run_id": "grpc-1", "model": "knn"}))
	if err != nil {
		t.Fatalf("GetRunSummary error: %v", err)
	}
	var decoded struct {
		Label   string          `json:"label"`
		Summary *models.Summary `json:"summary"`
	}
	if err := FromStruct(summary, &decoded); err != nil {
		t.Fatalf("FromStruct error: %v", err)
	}
	if decoded.Label != "knn" || len(decoded.Summary.Median) != 5 || decoded.Summary.Optimum != 8.7 {
		t.Fatalf("unexpected summary %+v", decoded)
	}

	history, err := client.GetRunHistory(ctx, mustStruct(t, map[string]any{"run_id": "grpc-1"}))
	if err != nil {
		t.Fatalf("GetRunHistory error: %v", err)
	}
	var h struct {
		Label   string          `json:"label"`
		History *models.History `json:"history"`
	}
	if err := FromStruct(history, &h); err != nil {
		t.Fatalf("FromStruct error: %v", err)
	}
	if h.Label != "OLS" || len(h.History.Indices) != 5 {
		t.Fatalf("unexpected history for %s", h.Label)
	}
	if err := h.History.Validate(10); err != nil {
		t.Fatalf("history invalid after transport: %v", err)
	}

	list, err := client.ListRuns(ctx, mustStruct(t, map[string]any{"limit": 10}))
	if err != nil {
		t.Fatalf("ListRuns error: %v", err)
	}
	if runs := list.GetFields()["runs"].GetListValue().GetValues(); len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}

	got, err := client.GetRun(ctx, mustStruct(t, map[string]any{"run_id": "grpc-1"}))
	if err != nil {
		t.Fatalf("GetRun error: %v", err)
	}
	if runStatus(t, got) != string(models.RunStatusCompleted) {
		t.Fatalf("expected completed run")
	}
}

func TestGRPCServerStopRun(t *testing.T) {
	client, store, _ := newBufconnClient(t)
	ctx := context.Background()

	in := slowInput()
	if _, err := client.CreateRun(ctx, mustStruct(t, map[string]any{
		"run_id": "grpc-slow",
		"input":  map[string]any{"experiment_yaml": in.ExperimentYAML, "dataset_csv": in.DatasetCSV},
	})); err != nil {
		t.Fatalf("CreateRun error: %v", err)
	}

	_, err := client.GetRunSummary(ctx, mustStruct(t, map[string]any{"run_id": "grpc-slow"}))
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition before completion, got %v", err)
	}

	stopped, err := client.StopRun(ctx, mustStruct(t, map[string]any{"run_id": "grpc-slow"}))
	if err != nil {
		t.Fatalf("StopRun error: %v", err)
	}
	if runStatus(t, stopped) != string(models.RunStatusCancelled) {
		t.Fatalf("expected cancelled run")
	}
	waitForStatus(t, store, "grpc-slow", models.RunStatusCancelled)
}

func TestGRPCServerErrorCodes(t *testing.T) {
	client, _, _ := newBufconnClient(t)
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
		want codes.Code
	}{
		{"create without input", func() error {
			_, err := client.CreateRun(ctx, mustStruct(t, map[string]any{}))
			return err
		}, codes.InvalidArgument},
		{"create invalid experiment", func() error {
			_, err := client.CreateRun(ctx, mustStruct(t, map[string]any{"input": map[string]any{"experiment_yaml": csvExperiment}}))
			return err
		}, codes.InvalidArgument},
		{"get without id", func() error {
			_, err := client.GetRun(ctx, mustStruct(t, map[string]any{}))
			return err
		}, codes.InvalidArgument},
		{"get unknown", func() error {
			_, err := client.GetRun(ctx, mustStruct(t, map[string]any{"run_id": "nope"}))
			return err
		}, codes.NotFound},
		{"stop unknown", func() error {
			_, err := client.StopRun(ctx, mustStruct(t, map[string]any{"run_id": "nope"}))
			return err
		}, codes.NotFound},
		{"history unknown", func() error {
			_, err := client.GetRunHistory(ctx, mustStruct(t, map[string]any{"run_id": "nope"}))
			return err
		}, codes.NotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := status.Code(tc.call()); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	req := mustStruct(t, map[string]any{"run_id": "dup", "input": map[string]any{"experiment_yaml": inlineExperiment}})
	if _, err := client.CreateRun(ctx, req); err != nil {
		t.Fatalf("first CreateRun error: %v", err)
	}
	if _, err := client.CreateRun(ctx, req); status.Code(err) != codes.AlreadyExists {
		t.Fatalf("expected AlreadyExists, got %v", err)
	}
}
