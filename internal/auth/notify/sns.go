package notify

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// Publisher is the part of *sns.Client SNS uses.
type Publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNS publishes codes to a topic. Subscribers route on the "email"
// message attribute.
type SNS struct {
	Client   Publisher
	TopicARN string
}

// NewSNS loads the default AWS credential chain for region.
func NewSNS(ctx context.Context, region, topicARN string) (*SNS, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("sns: load aws config: %w", err)
	}
	return &SNS{Client: sns.NewFromConfig(cfg), TopicARN: topicARN}, nil
}

func (n *SNS) SendCode(ctx context.Context, to domain.Email, code domain.ChallengeCode) error {
	_, err := n.Client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.TopicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(body(code)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"email": {DataType: aws.String("String"), StringValue: aws.String(to.String())},
		},
	})
	if err != nil {
		return fmt.Errorf("sns: publish: %w", err)
	}
	return nil
}
