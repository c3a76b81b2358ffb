package stack

// CloudFormation resource types and property shapes for SageMaker hosting.
// Fields typed any accept literals or intrinsics (Ref, GetAtt, Sub).

const (
	TypeModel          = "AWS::SageMaker::Model"
	TypeEndpointConfig = "AWS::SageMaker::EndpointConfig"
	TypeEndpoint       = "AWS::SageMaker::Endpoint"
)

type ModelProperties struct {
	ModelName        any                 `json:"ModelName,omitempty"`
	ExecutionRoleArn any                 `json:"ExecutionRoleArn"`
	PrimaryContainer ContainerDefinition `json:"PrimaryContainer"`
}

type ContainerDefinition struct {
	Image        any          `json:"Image"`
	ModelDataUrl any          `json:"ModelDataUrl,omitempty"`
	ImageConfig  *ImageConfig `json:"ImageConfig,omitempty"`
}

type ImageConfig struct {
	RepositoryAccessMode string `json:"RepositoryAccessMode"`
}

type EndpointConfigProperties struct {
	EndpointConfigName any                 `json:"EndpointConfigName,omitempty"`
	ProductionVariants []ProductionVariant `json:"ProductionVariants"`
	DataCaptureConfig  *DataCaptureConfig  `json:"DataCaptureConfig,omitempty"`
}

type ProductionVariant struct {
	VariantName          string  `json:"VariantName"`
	ModelName            any     `json:"ModelName"`
	InitialInstanceCount int     `json:"InitialInstanceCount"`
	InstanceType         string  `json:"InstanceType"`
	InitialVariantWeight float64 `json:"InitialVariantWeight"`
}

type DataCaptureConfig struct {
	EnableCapture             bool                      `json:"EnableCapture"`
	InitialSamplingPercentage int                       `json:"InitialSamplingPercentage"`
	DestinationS3Uri          any                       `json:"DestinationS3Uri"`
	CaptureOptions            []CaptureOption           `json:"CaptureOptions"`
	CaptureContentTypeHeader  *CaptureContentTypeHeader `json:"CaptureContentTypeHeader,omitempty"`
}

type CaptureOption struct {
	CaptureMode string `json:"CaptureMode"`
}

type CaptureContentTypeHeader struct {
	CsvContentTypes  []string `json:"CsvContentTypes,omitempty"`
	JsonContentTypes []string `json:"JsonContentTypes,omitempty"`
}

type EndpointProperties struct {
	EndpointName       any `json:"EndpointName,omitempty"`
	EndpointConfigName any `json:"EndpointConfigName"`
}
