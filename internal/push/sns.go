package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/smithy-go"
)

const snsMessageStructureJSON = "json"

type snsPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSGateway delivers messages through SNS mobile push. Message tokens are
// platform endpoint ARNs.
type SNSGateway struct {
	client snsPublisher
}

// NewSNSGateway loads the default AWS configuration for region.
func NewSNSGateway(ctx context.Context, region string) (*SNSGateway, error) {
	if strings.TrimSpace(region) == "" {
		return nil, errors.New("sns region is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return &SNSGateway{client: sns.NewFromConfig(cfg)}, nil
}

// Send publishes msg to the endpoint ARN in msg.Token.
func (g *SNSGateway) Send(ctx context.Context, msg Message) (string, error) {
	if strings.TrimSpace(msg.Token) == "" {
		return "", &Error{Kind: KindInvalidToken, Err: errors.New("empty endpoint arn")}
	}
	body, err := snsMessageBody(msg)
	if err != nil {
		return "", &Error{Kind: KindOther, Err: err}
	}
	out, err := g.client.Publish(ctx, &sns.PublishInput{
		TargetArn:        aws.String(msg.Token),
		Message:          aws.String(body),
		MessageStructure: aws.String(snsMessageStructureJSON),
	})
	if err != nil {
		return "", &Error{Kind: classifySNSError(err), Err: err}
	}
	return aws.ToString(out.MessageId), nil
}

type snsAPNSAlert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type snsAPNSAps struct {
	Alert snsAPNSAlert `json:"alert"`
	Sound string       `json:"sound"`
	Badge int          `json:"badge"`
}

type snsAPNSPayload struct {
	Aps snsAPNSAps `json:"aps"`
	Data
}

// snsMessageBody renders the per-platform message map SNS expects when
// MessageStructure is json. Each platform entry is itself a JSON string.
func snsMessageBody(msg Message) (string, error) {
	v1, err := toFCMMessage(msg)
	if err != nil {
		return "", err
	}
	v1.Token = ""
	gcm, err := json.Marshal(map[string]any{
		"fcmV1Message": map[string]any{"message": v1},
	})
	if err != nil {
		return "", fmt.Errorf("encode gcm entry: %w", err)
	}
	apns, err := json.Marshal(snsAPNSPayload{
		Aps: snsAPNSAps{
			Alert: snsAPNSAlert{Title: msg.Notification.Title, Body: msg.Notification.Body},
			Sound: msg.APNS.Payload.Aps.Sound,
			Badge: msg.APNS.Payload.Aps.Badge,
		},
		Data: msg.Data,
	})
	if err != nil {
		return "", fmt.Errorf("encode apns entry: %w", err)
	}
	body, err := json.Marshal(map[string]string{
		"default":      msg.Notification.Body,
		"GCM":          string(gcm),
		"APNS":         string(apns),
		"APNS_SANDBOX": string(apns),
	})
	if err != nil {
		return "", fmt.Errorf("encode sns message: %w", err)
	}
	return string(body), nil
}

func classifySNSError(err error) Kind {
	var disabled *types.EndpointDisabledException
	if errors.As(err, &disabled) {
		return KindUnregistered
	}
	var notFound *types.NotFoundException
	if errors.As(err, &notFound) {
		return KindUnregistered
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidParameter" &&
		strings.Contains(apiErr.ErrorMessage(), "TargetArn") {
		return KindInvalidToken
	}
	return KindOther
}
