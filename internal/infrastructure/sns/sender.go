package sns

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/go-event-notifier/internal/config"
)

// Sender delivers a composed notification message to one user.
type Sender interface {
	Send(ctx context.Context, userID, message string) error
}

// Publisher is the subset of *sns.Client used for delivery.
type Publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// NewClient creates an SNS client in cfg.SNSRegion, honouring the LocalStack
// endpoint override the same way the DynamoDB client does.
func NewClient(ctx context.Context, cfg *config.Config) (*sns.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.SNSRegion),
	}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	clientOpts := []func(*sns.Options){}
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return sns.NewFromConfig(awsCfg, clientOpts...), nil
}

type topicSender struct {
	client   Publisher
	topicARN string
}

// NewTopicSender publishes every message to one topic. Subscribers route to
// the user's devices with a filter policy on the user_id message attribute.
func NewTopicSender(client Publisher, topicARN string) Sender {
	return &topicSender{client: client, topicARN: topicARN}
}

func (s *topicSender) Send(ctx context.Context, userID, message string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(message),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"user_id": {DataType: aws.String("String"), StringValue: aws.String(userID)},
			"kind":    {DataType: aws.String("String"), StringValue: aws.String("event_reminder")},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

type logSender struct {
	logger *slog.Logger
}

// NewLogSender returns a Sender that only logs. Used when no topic is configured.
func NewLogSender(logger *slog.Logger) Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &logSender{logger: logger}
}

func (s *logSender) Send(_ context.Context, userID, message string) error {
	s.logger.Info("notification (log sink)", "user_id", userID, "message", message)
	return nil
}
