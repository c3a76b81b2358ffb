package etl

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"
)

type GlueClient interface {
	GetTable(ctx context.Context, params *glue.GetTableInput, optFns ...func(*glue.Options)) (*glue.GetTableOutput, error)
	CreateTable(ctx context.Context, params *glue.CreateTableInput, optFns ...func(*glue.Options)) (*glue.CreateTableOutput, error)
}

type Column struct {
	Name string
	Type string
}

// captureColumns mirrors the parquet tags on CaptureRow.
var captureColumns = []Column{
	{"event_id", "string"},
	{"inference_id", "string"},
	{"inference_time", "string"},
	{"endpoint_name", "string"},
	{"variant_name", "string"},
	{"input_csv", "string"},
	{"output_raw", "string"},
	{"rings", "bigint"},
	{"age_years", "double"},
}

var capturePartitions = []Column{
	{"dt", "string"},
	{"hour", "string"},
}

func glueColumns(cols []Column) []gluetypes.Column {
	out := make([]gluetypes.Column, 0, len(cols))
	for _, c := range cols {
		out = append(out, gluetypes.Column{Name: aws.String(c.Name), Type: aws.String(c.Type)})
	}
	return out
}

// EnsureCaptureTable creates the external Parquet table over location unless
// it already exists. It reports whether the table was created.
func EnsureCaptureTable(ctx context.Context, c GlueClient, database, table, location string) (bool, error) {
	_, err := c.GetTable(ctx, &glue.GetTableInput{
		DatabaseName: aws.String(database),
		Name:         aws.String(table),
	})
	if err == nil {
		return false, nil
	}
	var notFound *gluetypes.EntityNotFoundException
	if !errors.As(err, &notFound) {
		return false, fmt.Errorf("glue GetTable %s.%s: %w", database, table, err)
	}

	_, err = c.CreateTable(ctx, &glue.CreateTableInput{
		DatabaseName: aws.String(database),
		TableInput: &gluetypes.TableInput{
			Name:      aws.String(table),
			TableType: aws.String("EXTERNAL_TABLE"),
			Parameters: map[string]string{
				"classification": "parquet",
				"EXTERNAL":       "TRUE",
			},
			PartitionKeys: glueColumns(capturePartitions),
			StorageDescriptor: &gluetypes.StorageDescriptor{
				Columns:      glueColumns(captureColumns),
				Location:     aws.String(location),
				InputFormat:  aws.String("org.apache.hadoop.hive.ql.io.parquet.MapredParquetInputFormat"),
				OutputFormat: aws.String("org.apache.hadoop.hive.ql.io.parquet.MapredParquetOutputFormat"),
				SerdeInfo: &gluetypes.SerDeInfo{
					SerializationLibrary: aws.String("org.apache.hadoop.hive.ql.io.parquet.serde.ParquetHiveSerDe"),
				},
			},
		},
	})
	if err != nil {
		return false, fmt.Errorf("glue CreateTable %s.%s: %w", database, table, err)
	}
	return true, nil
}
