// Package contact stores and announces contact form submissions.
package contact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"abalone/internal/config"
	"abalone/internal/db"
)

// Submission is one contact form post as stored in DynamoDB.
type Submission struct {
	ID          string `dynamodbav:"id" json:"id"`
	Email       string `dynamodbav:"email" json:"email"`
	ReceivedAt  string `dynamodbav:"receivedAt" json:"receivedAt"`
	RequestID   string `dynamodbav:"requestId,omitempty" json:"requestId,omitempty"`
	SourceIP    string `dynamodbav:"sourceIp,omitempty" json:"sourceIp,omitempty"`
	Environment string `dynamodbav:"environment,omitempty" json:"environment,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Recorder persists and publishes submissions. Either sink may be absent.
type Recorder struct {
	store    db.PutItemAPI
	table    string
	pub      Publisher
	topicArn string
	env      string
	log      logrus.FieldLogger

	now   func() time.Time
	newID func() string
}

// NewRecorder builds clients only for the sinks that are configured.
func NewRecorder(cfg aws.Config, c config.ContactConfig, env string, log logrus.FieldLogger) *Recorder {
	var store db.PutItemAPI
	var pub Publisher
	if c.TableName != "" {
		store = db.NewDynamoClient(cfg)
	}
	if c.TopicArn != "" {
		pub = sns.NewFromConfig(cfg)
	}
	return NewRecorderWithClients(store, c.TableName, pub, c.TopicArn, env, log)
}

func NewRecorderWithClients(store db.PutItemAPI, table string, pub Publisher, topicArn, env string, log logrus.FieldLogger) *Recorder {
	return &Recorder{
		store:    store,
		table:    table,
		pub:      pub,
		topicArn: topicArn,
		env:      env,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (r *Recorder) Enabled() bool {
	return r != nil && (r.store != nil || r.pub != nil)
}

// Record fills in the id and timestamp, then writes to every configured sink.
// A failing sink does not stop the others; all failures are returned joined.
func (r *Recorder) Record(ctx context.Context, s Submission) (*Submission, error) {
	if s.ID == "" {
		s.ID = r.newID()
	}
	if s.ReceivedAt == "" {
		s.ReceivedAt = r.now().UTC().Format(time.RFC3339)
	}
	if s.Environment == "" {
		s.Environment = r.env
	}

	var errs []error
	if r.store != nil {
		if err := db.PutRecord(ctx, r.store, r.table, s); err != nil {
			errs = append(errs, err)
		} else {
			r.log.WithFields(logrus.Fields{"id": s.ID, "table": r.table}).Debug("contact submission stored")
		}
	}
	if r.pub != nil {
		if err := r.publish(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return &s, errors.Join(errs...)
}

func (r *Recorder) publish(ctx context.Context, s Submission) error {
	out, err := r.pub.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(r.topicArn),
		Subject:  aws.String("New contact form message"),
		Message:  aws.String(fmt.Sprintf("Contact request from %s (id %s) received at %s.", s.Email, s.ID, s.ReceivedAt)),
	})
	if err != nil {
		return fmt.Errorf("sns Publish %s: %w", r.topicArn, err)
	}
	r.log.WithFields(logrus.Fields{"id": s.ID, "messageId": aws.ToString(out.MessageId)}).Debug("contact notification published")
	return nil
}
