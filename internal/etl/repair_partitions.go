package etl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
)

type AthenaClient interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
}

type RepairOptions struct {
	Database       string
	Table          string
	Workgroup      string
	OutputLocation string // s3://bucket/prefix/
	MaxWait        time.Duration
	PollInterval   time.Duration
}

type RepairResult struct {
	QueryID string `json:"query_id,omitempty"`
	State   string `json:"state,omitempty"`
}

// RepairPartitions runs MSCK REPAIR TABLE so Athena sees newly written
// dt=/hour= partitions, and waits for the query to finish.
func RepairPartitions(ctx context.Context, c AthenaClient, opt RepairOptions) (*RepairResult, error) {
	if opt.Database == "" || opt.Table == "" || opt.OutputLocation == "" {
		return nil, fmt.Errorf("repair partitions: database, table and output location are required")
	}
	if !strings.HasPrefix(opt.OutputLocation, "s3://") {
		return nil, fmt.Errorf("athena output must start with s3://")
	}
	if opt.Workgroup == "" {
		opt.Workgroup = "primary"
	}
	if opt.MaxWait <= 0 {
		opt.MaxWait = 60 * time.Second
	}
	if opt.PollInterval <= 0 {
		opt.PollInterval = 2 * time.Second
	}

	startOut, err := c.StartQueryExecution(ctx, &athena.StartQueryExecutionInput{
		QueryString: aws.String(fmt.Sprintf("MSCK REPAIR TABLE %s;", opt.Table)),
		QueryExecutionContext: &athenatypes.QueryExecutionContext{
			Database: aws.String(opt.Database),
		},
		WorkGroup: aws.String(opt.Workgroup),
		ResultConfiguration: &athenatypes.ResultConfiguration{
			OutputLocation: aws.String(opt.OutputLocation),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("athena StartQueryExecution: %w", err)
	}
	qid := aws.ToString(startOut.QueryExecutionId)

	deadline := time.Now().Add(opt.MaxWait)
	for time.Now().Before(deadline) {
		st, err := c.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(qid),
		})
		if err != nil {
			return &RepairResult{QueryID: qid}, fmt.Errorf("athena GetQueryExecution: %w", err)
		}

		var state athenatypes.QueryExecutionState
		var reason string
		if st.QueryExecution != nil && st.QueryExecution.Status != nil {
			state = st.QueryExecution.Status.State
			reason = aws.ToString(st.QueryExecution.Status.StateChangeReason)
		}
		switch state {
		case athenatypes.QueryExecutionStateSucceeded:
			return &RepairResult{QueryID: qid, State: string(state)}, nil
		case athenatypes.QueryExecutionStateFailed, athenatypes.QueryExecutionStateCancelled:
			return &RepairResult{QueryID: qid, State: string(state)}, fmt.Errorf("repair %s: %s", state, reason)
		}

		select {
		case <-ctx.Done():
			return &RepairResult{QueryID: qid, State: string(state)}, ctx.Err()
		case <-time.After(opt.PollInterval):
		}
	}

	return &RepairResult{QueryID: qid, State: "TIMEOUT"}, fmt.Errorf("repair timed out waiting for qid=%s", qid)
}
