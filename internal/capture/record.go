// Package capture reads SageMaker endpoint data capture and writes ground truth
// labels next to it.
package capture

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	EncodingCSV    = "CSV"
	EncodingJSON   = "JSON"
	EncodingBase64 = "BASE64"
)

// Data is one side of a captured invocation.
type Data struct {
	ObservedContentType string `json:"observedContentType"`
	Mode                string `json:"mode"`
	Data                string `json:"data"`
	Encoding            string `json:"encoding"`
}

// Text returns the payload, decoding it when it was captured as base64.
func (d Data) Text() (string, error) {
	if !strings.EqualFold(d.Encoding, EncodingBase64) {
		return d.Data, nil
	}
	b, err := base64.StdEncoding.DecodeString(d.Data)
	if err != nil {
		return "", fmt.Errorf("decode %s capture data: %w", d.Mode, err)
	}
	return string(b), nil
}

type EventMetadata struct {
	EventID       string `json:"eventId"`
	InferenceID   string `json:"inferenceId,omitempty"`
	InferenceTime string `json:"inferenceTime"`
}

// Record is one line of a data capture file.
type Record struct {
	CaptureData struct {
		EndpointInput  Data `json:"endpointInput"`
		EndpointOutput Data `json:"endpointOutput"`
	} `json:"captureData"`
	EventMetadata EventMetadata `json:"eventMetadata"`
	EventVersion  string        `json:"eventVersion"`
}

const maxLine = 4 * 1024 * 1024

// ParseRecords reads JSON Lines. Blank lines are skipped.
func ParseRecords(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var out []Record
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(bytes.TrimSpace(b)) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("capture line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}
	return out, nil
}

// GroundTruth is the label record Model Monitor joins to captured events by
// inference id.
type GroundTruth struct {
	GroundTruthData struct {
		Data     string `json:"data"`
		Encoding string `json:"encoding"`
	} `json:"groundTruthData"`
	EventMetadata struct {
		EventID string `json:"eventId"`
	} `json:"eventMetadata"`
	EventVersion string `json:"eventVersion"`
}

func NewGroundTruth(inferenceID string, rings int) GroundTruth {
	var gt GroundTruth
	gt.GroundTruthData.Data = strconv.Itoa(rings)
	gt.GroundTruthData.Encoding = EncodingCSV
	gt.EventMetadata.EventID = inferenceID
	gt.EventVersion = "0"
	return gt
}

// EncodeGroundTruth renders records as JSON Lines.
func EncodeGroundTruth(records []GroundTruth) ([]byte, error) {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return nil, err
		}
	}
	return []byte(sb.String()), nil
}
