package contact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abalone/internal/logging"
)

type fakeStore struct {
	in  *dynamodb.PutItemInput
	err error
}

func (f *fakeStore) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.in = in
	return &dynamodb.PutItemOutput{}, f.err
}

type fakePublisher struct {
	in  *sns.PublishInput
	err error
}

func (f *fakePublisher) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func fixed(r *Recorder) *Recorder {
	r.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }
	r.newID = func() string { return "id-1" }
	return r
}

func TestRecord_WritesBothSinks(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	r := fixed(NewRecorderWithClients(store, "contacts", pub, "arn:aws:sns:us-east-1:1:contact", "prod", logging.Discard()))

	s, err := r.Record(context.Background(), Submission{Email: "a@b.c", RequestID: "req-1"})
	require.NoError(t, err)

	assert.Equal(t, "id-1", s.ID)
	assert.Equal(t, "2024-03-01T12:30:00Z", s.ReceivedAt)
	assert.Equal(t, "prod", s.Environment)

	require.NotNil(t, store.in)
	assert.Equal(t, "contacts", aws.ToString(store.in.TableName))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "a@b.c"}, store.in.Item["email"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "id-1"}, store.in.Item["id"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "req-1"}, store.in.Item["requestId"])
	assert.NotContains(t, store.in.Item, "sourceIp")

	require.NotNil(t, pub.in)
	assert.Equal(t, "arn:aws:sns:us-east-1:1:contact", aws.ToString(pub.in.TopicArn))
	assert.Contains(t, aws.ToString(pub.in.Message), "a@b.c")
}

func TestRecord_StoreFailureStillPublishes(t *testing.T) {
	store := &fakeStore{err: errors.New("throttled")}
	pub := &fakePublisher{}
	r := fixed(NewRecorderWithClients(store, "contacts", pub, "arn", "dev", logging.Discard()))

	_, err := r.Record(context.Background(), Submission{Email: "a@b.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
	assert.NotNil(t, pub.in)
}

func TestRecord_JoinsErrors(t *testing.T) {
	store := &fakeStore{err: errors.New("store down")}
	pub := &fakePublisher{err: errors.New("sns down")}
	r := fixed(NewRecorderWithClients(store, "contacts", pub, "arn", "dev", logging.Discard()))

	_, err := r.Record(context.Background(), Submission{Email: "a@b.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store down")
	assert.Contains(t, err.Error(), "sns down")
}

func TestRecord_KeepsGivenID(t *testing.T) {
	r := fixed(NewRecorderWithClients(&fakeStore{}, "t", nil, "", "dev", logging.Discard()))
	s, err := r.Record(context.Background(), Submission{ID: "mine", Email: "x@y.z"})
	require.NoError(t, err)
	assert.Equal(t, "mine", s.ID)
}

func TestEnabled(t *testing.T) {
	var nilRecorder *Recorder
	assert.False(t, nilRecorder.Enabled())
	assert.False(t, NewRecorderWithClients(nil, "", nil, "", "dev", logging.Discard()).Enabled())
	assert.True(t, NewRecorderWithClients(&fakeStore{}, "t", nil, "", "dev", logging.Discard()).Enabled())
	assert.True(t, NewRecorderWithClients(nil, "", &fakePublisher{}, "arn", "dev", logging.Discard()).Enabled())
}
