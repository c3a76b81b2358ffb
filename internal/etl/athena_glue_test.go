package etl

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGlue struct {
	missing bool
	getErr  error
	created *glue.CreateTableInput
}

func (f *fakeGlue) GetTable(_ context.Context, in *glue.GetTableInput, _ ...func(*glue.Options)) (*glue.GetTableOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.missing && f.created == nil {
		return nil, &gluetypes.EntityNotFoundException{Message: aws.String("not found")}
	}
	return &glue.GetTableOutput{Table: &gluetypes.Table{Name: in.Name}}, nil
}

func (f *fakeGlue) CreateTable(_ context.Context, in *glue.CreateTableInput, _ ...func(*glue.Options)) (*glue.CreateTableOutput, error) {
	f.created = in
	return &glue.CreateTableOutput{}, nil
}

type fakeAthena struct {
	states  []string
	polls   int
	reason  string
	started *athena.StartQueryExecutionInput
}

func (f *fakeAthena) StartQueryExecution(_ context.Context, in *athena.StartQueryExecutionInput, _ ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error) {
	f.started = in
	return &athena.StartQueryExecutionOutput{QueryExecutionId: aws.String("q-1")}, nil
}

func (f *fakeAthena) GetQueryExecution(_ context.Context, _ *athena.GetQueryExecutionInput, _ ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error) {
	state := "RUNNING"
	if f.polls < len(f.states) {
		state = f.states[f.polls]
	}
	f.polls++
	return &athena.GetQueryExecutionOutput{
		QueryExecution: &athenatypes.QueryExecution{
			Status: &athenatypes.QueryExecutionStatus{
				State:             athenatypes.QueryExecutionState(state),
				StateChangeReason: aws.String(f.reason),
			},
		},
	}, nil
}

func repairOpts() RepairOptions {
	return RepairOptions{
		Database:       "monitoring",
		Table:          "abalone_capture",
		OutputLocation: "s3://results/athena/",
		PollInterval:   time.Millisecond,
		MaxWait:        time.Second,
	}
}

func TestEnsureCaptureTable_Exists(t *testing.T) {
	g := &fakeGlue{}
	created, err := EnsureCaptureTable(context.Background(), g, "db", "tbl", "s3://b/p/")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, g.created)
}

func TestEnsureCaptureTable_Creates(t *testing.T) {
	g := &fakeGlue{missing: true}
	created, err := EnsureCaptureTable(context.Background(), g, "db", "tbl", "s3://b/p/")
	require.NoError(t, err)
	assert.True(t, created)

	ti := g.created.TableInput
	assert.Equal(t, "tbl", aws.ToString(ti.Name))
	assert.Equal(t, "EXTERNAL_TABLE", aws.ToString(ti.TableType))
	require.Len(t, ti.PartitionKeys, 2)
	assert.Equal(t, "dt", aws.ToString(ti.PartitionKeys[0].Name))
	assert.Equal(t, "hour", aws.ToString(ti.PartitionKeys[1].Name))
	assert.Len(t, ti.StorageDescriptor.Columns, len(captureColumns))
}

func TestEnsureCaptureTable_OtherErrors(t *testing.T) {
	g := &fakeGlue{getErr: errors.New("access denied")}
	_, err := EnsureCaptureTable(context.Background(), g, "db", "tbl", "s3://b/p/")
	require.Error(t, err)
	assert.Nil(t, g.created)
}

func TestCaptureColumnsMatchParquetTags(t *testing.T) {
	tags := []string{
		"event_id", "inference_id", "inference_time", "endpoint_name", "variant_name",
		"input_csv", "output_raw", "rings", "age_years",
	}
	names := make([]string, len(captureColumns))
	for i, c := range captureColumns {
		names[i] = c.Name
	}
	assert.Equal(t, tags, names)
}

func TestRepairPartitions_Succeeds(t *testing.T) {
	a := &fakeAthena{states: []string{"QUEUED", "RUNNING", "SUCCEEDED"}}
	res, err := RepairPartitions(context.Background(), a, repairOpts())
	require.NoError(t, err)

	assert.Equal(t, "q-1", res.QueryID)
	assert.Equal(t, "SUCCEEDED", res.State)
	assert.Equal(t, 3, a.polls)
	assert.Equal(t, "MSCK REPAIR TABLE abalone_capture;", aws.ToString(a.started.QueryString))
	assert.Equal(t, "primary", aws.ToString(a.started.WorkGroup))
	assert.Equal(t, "monitoring", aws.ToString(a.started.QueryExecutionContext.Database))
}

func TestRepairPartitions_Failed(t *testing.T) {
	a := &fakeAthena{states: []string{"FAILED"}, reason: "no such table"}
	res, err := RepairPartitions(context.Background(), a, repairOpts())
	require.Error(t, err)
	assert.Equal(t, "FAILED", res.State)
	assert.Contains(t, err.Error(), "no such table")
}

func TestRepairPartitions_TimesOut(t *testing.T) {
	opt := repairOpts()
	opt.MaxWait = 5 * time.Millisecond
	res, err := RepairPartitions(context.Background(), &fakeAthena{}, opt)
	require.Error(t, err)
	assert.Equal(t, "TIMEOUT", res.State)
}

func TestRepairPartitions_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opt := repairOpts()
	opt.PollInterval = time.Second
	_, err := RepairPartitions(ctx, &fakeAthena{}, opt)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRepairPartitions_Validation(t *testing.T) {
	opt := repairOpts()
	opt.OutputLocation = "results/athena/"
	_, err := RepairPartitions(context.Background(), &fakeAthena{}, opt)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "s3://"))

	opt = repairOpts()
	opt.Table = ""
	_, err = RepairPartitions(context.Background(), &fakeAthena{}, opt)
	assert.Error(t, err)
}
