package stack

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

// Parameter names of the endpoint stack.
const (
	ParamBucketName    = "BucketName"
	ParamExecutionID   = "ExecutionId"
	ParamModelURI      = "ModelUri"
	ParamExecutionRole = "ExecutionRole"
	ParamImageURI      = "ImageUri"
)

const (
	ModelID          = "Model"
	EndpointConfigID = "EndpointConfig"

	VariantName     = "AllTraffic"
	InstanceType    = "ml.t3.medium"
	InstanceCount   = 2
	CapturePrefix   = "endpoint-data-capture"
	captureSampling = 100
)

type EndpointStackProps struct {
	// ModelName prefixes every generated resource name, e.g. "abalone".
	ModelName string
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// EndpointID is the logical id of the endpoint resource for a model name.
func EndpointID(modelName string) string {
	return Capitalize(modelName) + "Endpoint"
}

// NewEndpointStack declares a SageMaker model, an endpoint config with data
// capture, and the endpoint serving it. The model artifact, container image,
// role and capture bucket are supplied as deploy-time parameters.
func NewEndpointStack(props EndpointStackProps) *Stack {
	name := Capitalize(props.ModelName)
	s := New(name+"EndpointStack", fmt.Sprintf("%s model hosted on a SageMaker endpoint with data capture", name))

	bucket := s.AddParameter(ParamBucketName, "Bucket receiving endpoint data capture")
	execID := s.AddParameter(ParamExecutionID, "Pipeline execution id used to version resource names")
	modelURI := s.AddParameter(ParamModelURI, "S3 URI of the model artifact")
	role := s.AddParameter(ParamExecutionRole, "IAM role ARN assumed by SageMaker")
	image := s.AddParameter(ParamImageURI, "Inference container image URI")

	s.Add(Declaration{
		LogicalID: ModelID,
		Type:      TypeModel,
		Properties: ModelProperties{
			ModelName:        intrinsics.Sub{String: fmt.Sprintf("%s-model-${%s}", name, execID)},
			ExecutionRoleArn: intrinsics.Ref{LogicalName: role},
			PrimaryContainer: ContainerDefinition{
				Image:        intrinsics.Ref{LogicalName: image},
				ModelDataUrl: intrinsics.Ref{LogicalName: modelURI},
				ImageConfig:  &ImageConfig{RepositoryAccessMode: "Platform"},
			},
		},
	})

	s.Add(Declaration{
		LogicalID: EndpointConfigID,
		Type:      TypeEndpointConfig,
		Properties: EndpointConfigProperties{
			EndpointConfigName: intrinsics.Sub{String: fmt.Sprintf("%s-config-${%s}", name, execID)},
			ProductionVariants: []ProductionVariant{{
				VariantName:          VariantName,
				ModelName:            intrinsics.GetAtt{LogicalName: ModelID, Attribute: "ModelName"},
				InitialInstanceCount: InstanceCount,
				InstanceType:         InstanceType,
				InitialVariantWeight: 1.0,
			}},
			DataCaptureConfig: &DataCaptureConfig{
				EnableCapture:             true,
				InitialSamplingPercentage: captureSampling,
				DestinationS3Uri:          intrinsics.Sub{String: fmt.Sprintf("s3://${%s}/%s", bucket, CapturePrefix)},
				CaptureOptions: []CaptureOption{
					{CaptureMode: "Input"},
					{CaptureMode: "Output"},
				},
				CaptureContentTypeHeader: &CaptureContentTypeHeader{
					CsvContentTypes: []string{"text/csv"},
				},
			},
		},
		DependsOn: []string{ModelID},
	})

	endpointID := EndpointID(props.ModelName)
	s.Add(Declaration{
		LogicalID: endpointID,
		Type:      TypeEndpoint,
		Properties: EndpointProperties{
			EndpointName:       name + "-Endpoint",
			EndpointConfigName: intrinsics.GetAtt{LogicalName: EndpointConfigID, Attribute: "EndpointConfigName"},
		},
		DependsOn: []string{EndpointConfigID},
	})

	s.AddOutput("EndpointName", "Name clients pass to InvokeEndpoint",
		intrinsics.GetAtt{LogicalName: endpointID, Attribute: "EndpointName"})
	s.AddOutput("EndpointArn", "Endpoint ARN", intrinsics.Ref{LogicalName: endpointID})

	return s
}
