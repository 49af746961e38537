package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	fcm "google.golang.org/api/fcm/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	fcmAndroidPriorityHigh      = "HIGH"
	fcmNotificationPriorityHigh = "PRIORITY_HIGH"
	fcmErrorType                = "type.googleapis.com/google.firebase.fcm.v1.FcmError"
)

type fcmSender interface {
	Send(ctx context.Context, parent string, msg *fcm.Message) (string, error)
}

// FCMGateway delivers messages through the FCM HTTP v1 API.
type FCMGateway struct {
	sender    fcmSender
	projectID string
}

// NewFCMGateway builds an FCM client for projectID. Without credentialsJSON
// the application default credentials are used.
func NewFCMGateway(ctx context.Context, projectID, credentialsJSON string) (*FCMGateway, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("fcm project id is required")
	}
	opts := []option.ClientOption{}
	if creds := strings.TrimSpace(credentialsJSON); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}
	svc, err := fcm.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating fcm service: %w", err)
	}
	return &FCMGateway{sender: &fcmServiceSender{svc: svc}, projectID: projectID}, nil
}

// Send delivers msg and returns the FCM message name.
func (g *FCMGateway) Send(ctx context.Context, msg Message) (string, error) {
	if strings.TrimSpace(msg.Token) == "" {
		return "", &Error{Kind: KindInvalidToken, Err: errors.New("empty device token")}
	}
	out, err := toFCMMessage(msg)
	if err != nil {
		return "", &Error{Kind: KindOther, Err: err}
	}
	name, err := g.sender.Send(ctx, "projects/"+g.projectID, out)
	if err != nil {
		return "", &Error{Kind: classifyFCMError(err), Err: err}
	}
	return name, nil
}

func toFCMMessage(msg Message) (*fcm.Message, error) {
	apnsPayload, err := json.Marshal(msg.APNS.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode apns payload: %w", err)
	}
	return &fcm.Message{
		Token: msg.Token,
		Notification: &fcm.Notification{
			Title: msg.Notification.Title,
			Body:  msg.Notification.Body,
		},
		Data: msg.Data.Map(),
		Android: &fcm.AndroidConfig{
			Priority: fcmPriority(msg.Android.Priority, fcmAndroidPriorityHigh),
			Notification: &fcm.AndroidNotification{
				ChannelId:            msg.Android.Notification.ChannelID,
				Sound:                msg.Android.Notification.Sound,
				NotificationPriority: fcmPriority(msg.Android.Notification.Priority, fcmNotificationPriorityHigh),
			},
		},
		Apns: &fcm.ApnsConfig{Payload: googleapi.RawMessage(apnsPayload)},
	}, nil
}

// fcmPriority maps the lower-case payload priority onto the v1 enum.
func fcmPriority(value, high string) string {
	if strings.EqualFold(value, PriorityHigh) {
		return high
	}
	return ""
}

func classifyFCMError(err error) Kind {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return KindOther
	}
	code := fcmErrorCode(apiErr)
	switch {
	case code == "UNREGISTERED", apiErr.Code == http.StatusNotFound:
		return KindUnregistered
	case apiErr.Code == http.StatusBadRequest && mentionsRegistrationToken(apiErr):
		return KindInvalidToken
	default:
		return KindOther
	}
}

func fcmErrorCode(apiErr *googleapi.Error) string {
	for _, detail := range apiErr.Details {
		fields, ok := detail.(map[string]interface{})
		if !ok || fields["@type"] != fcmErrorType {
			continue
		}
		if code, ok := fields["errorCode"].(string); ok {
			return code
		}
	}
	return ""
}

func mentionsRegistrationToken(apiErr *googleapi.Error) bool {
	msg := strings.ToLower(apiErr.Message + " " + apiErr.Body)
	return strings.Contains(msg, "registration token")
}

type fcmServiceSender struct {
	svc *fcm.Service
}

func (s *fcmServiceSender) Send(ctx context.Context, parent string, msg *fcm.Message) (string, error) {
	resp, err := s.svc.Projects.Messages.Send(parent, &fcm.SendMessageRequest{Message: msg}).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return resp.Name, nil
}
