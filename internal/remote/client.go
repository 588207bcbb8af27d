package remote

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/activity-classifier/internal/activity"
	"github.com/danielpatrickdp/activity-classifier/internal/apperr"
	"github.com/danielpatrickdp/activity-classifier/internal/dataset"
	"github.com/danielpatrickdp/activity-classifier/internal/eval"
	"github.com/danielpatrickdp/activity-classifier/internal/split"
	"github.com/danielpatrickdp/activity-classifier/internal/toolkit"
)

// #region methods
const (
	methodCreateClassifier = "/activity.v1.Toolkit/CreateClassifier"
	methodEvaluate         = "/activity.v1.Toolkit/Evaluate"
)

// #endregion methods

// #region types
// Model is a classifier held by the training service, referenced by handle.
type Model struct {
	ID          string
	Description string
	Labels      []string
}

// Summary returns the service's description of the model.
func (m *Model) Summary() string {
	if m.Description != "" {
		return m.Description
	}
	return "remote model " + m.ID
}

// #endregion types

// #region client-struct
// Client talks to an external training service over gRPC. Payloads are
// google.protobuf.Struct messages, so no generated stubs are needed.
type Client struct {
	conn    *grpc.ClientConn
	cc      grpc.ClientConnInterface
	timeout time.Duration
}

var _ toolkit.Toolkit = (*Client)(nil)

// #endregion client-struct

// #region constructor
// NewClient connects to the training service at addr. timeout bounds each
// RPC; zero leaves the caller's context alone.
func NewClient(addr string, timeout time.Duration) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn, timeout: timeout}, nil
}

// NewClientWithConn creates a Client over an existing connection.
// Used for testing without a real gRPC server.
func NewClientWithConn(cc grpc.ClientConnInterface, timeout time.Duration) *Client {
	return &Client{cc: cc, timeout: timeout}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection if the client owns one.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region split
// SplitBySession runs locally; only training and evaluation are remote.
func (c *Client) SplitBySession(t *dataset.Table, sessionCol string, fraction float64, seed *int64) (split.Split, error) {
	return split.BySession(t, sessionCol, fraction, seed)
}

// #endregion split

// #region create
// CreateClassifier uploads train and the options and returns a handle to
// the model the service trained.
func (c *Client) CreateClassifier(ctx context.Context, train *dataset.Table, opts activity.Options) (toolkit.Model, error) {
	if opts.PredictionWindow <= 0 {
		return nil, fmt.Errorf("%w: prediction window must be positive, got %d", apperr.ErrConfig, opts.PredictionWindow)
	}
	if train == nil || !train.Has(opts.SessionColumn, opts.TargetColumn) {
		return nil, fmt.Errorf("%w: training table needs columns %q and %q", apperr.ErrConfig, opts.SessionColumn, opts.TargetColumn)
	}

	req, err := structpb.NewStruct(map[string]any{
		"request_id": uuid.New().String(),
		"table":      tablePayload(train),
		"options": map[string]any{
			"session_id":        opts.SessionColumn,
			"target":            opts.TargetColumn,
			"prediction_window": opts.PredictionWindow,
			"features":          stringsToAny(opts.Features),
			"kind":              string(opts.Kind),
			"neighbors":         opts.Neighbors,
			"output_frequency":  string(opts.OutputFrequency),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode create request: %w", err)
	}

	resp, err := c.invoke(ctx, methodCreateClassifier, req)
	if err != nil {
		return nil, fmt.Errorf("create classifier rpc: %w", err)
	}

	fields := resp.GetFields()
	id := fields["model_id"].GetStringValue()
	if id == "" {
		return nil, fmt.Errorf("%w: create classifier response has no model_id", apperr.ErrSchema)
	}
	m := &Model{
		ID:          id,
		Description: fields["summary"].GetStringValue(),
	}
	for _, v := range fields["labels"].GetListValue().GetValues() {
		m.Labels = append(m.Labels, v.GetStringValue())
	}
	return m, nil
}

// #endregion create

// #region evaluate
// Evaluate asks the service to score model m on test.
func (c *Client) Evaluate(ctx context.Context, m toolkit.Model, test *dataset.Table) (eval.Metrics, error) {
	rm, ok := m.(*Model)
	if !ok {
		return eval.Metrics{}, fmt.Errorf("%w: model %T was not created by the remote toolkit", apperr.ErrConfig, m)
	}
	if test == nil {
		return eval.Metrics{}, fmt.Errorf("%w: nil test table", apperr.ErrSchema)
	}

	req, err := structpb.NewStruct(map[string]any{
		"model_id": rm.ID,
		"table":    tablePayload(test),
	})
	if err != nil {
		return eval.Metrics{}, fmt.Errorf("encode evaluate request: %w", err)
	}

	resp, err := c.invoke(ctx, methodEvaluate, req)
	if err != nil {
		return eval.Metrics{}, fmt.Errorf("evaluate rpc: %w", err)
	}
	return decodeMetrics(resp)
}

// #endregion evaluate

// #region helpers
func (c *Client) invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	resp := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, method, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func tablePayload(t *dataset.Table) map[string]any {
	rows := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = stringsToAny(r)
	}
	return map[string]any{
		"columns": stringsToAny(t.Columns),
		"rows":    rows,
	}
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func decodeMetrics(resp *structpb.Struct) (eval.Metrics, error) {
	mv, ok := resp.GetFields()["metrics"]
	if !ok || mv.GetStructValue() == nil {
		return eval.Metrics{}, fmt.Errorf("%w: evaluate response has no metrics", apperr.ErrSchema)
	}
	fields := mv.GetStructValue().GetFields()
	acc, ok := fields["accuracy"]
	if !ok {
		return eval.Metrics{}, fmt.Errorf("%w: evaluate response has no accuracy", apperr.ErrSchema)
	}

	m := eval.Metrics{
		Accuracy:    acc.GetNumberValue(),
		Precision:   fields["precision"].GetNumberValue(),
		Recall:      fields["recall"].GetNumberValue(),
		F1:          fields["f1_score"].GetNumberValue(),
		Predictions: int(fields["predictions"].GetNumberValue()),
		Windows:     int(fields["windows"].GetNumberValue()),
	}
	if math.IsNaN(m.Accuracy) || m.Accuracy < 0 || m.Accuracy > 1 {
		return eval.Metrics{}, fmt.Errorf("%w: accuracy %v outside [0,1]", apperr.ErrSchema, m.Accuracy)
	}

	for _, v := range fields["classes"].GetListValue().GetValues() {
		cf := v.GetStructValue().GetFields()
		label := cf["label"].GetStringValue()
		if label == "" {
			return eval.Metrics{}, fmt.Errorf("%w: class score without label", apperr.ErrSchema)
		}
		m.Classes = append(m.Classes, eval.ClassScore{
			Label:     label,
			Precision: cf["precision"].GetNumberValue(),
			Recall:    cf["recall"].GetNumberValue(),
			F1:        cf["f1_score"].GetNumberValue(),
			Support:   int(cf["support"].GetNumberValue()),
		})
	}

	if cm := fields["confusion"].GetStructValue(); cm != nil {
		m.Confusion = make(map[string]map[string]int)
		for truth, row := range cm.GetFields() {
			m.Confusion[truth] = make(map[string]int)
			for pred, n := range row.GetStructValue().GetFields() {
				m.Confusion[truth][pred] = int(n.GetNumberValue())
			}
		}
	}
	return m, nil
}

// #endregion helpers
