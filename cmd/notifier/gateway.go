package main

import (
	"context"
	"fmt"

	"github.com/servico/notifier/internal/notifications"
	"github.com/servico/notifier/internal/push"
	"github.com/servico/notifier/pkg/config"
)

func newGateway(ctx context.Context, cfg *config.Config) (notifications.Gateway, error) {
	switch provider := cfg.Push.NormalizedProvider(); provider {
	case config.PushProviderFCM:
		gateway, err := push.NewFCMGateway(ctx, cfg.Push.ProjectID(cfg.GCP), cfg.GCP.CredentialsJSON)
		if err != nil {
			return nil, err
		}
		return gateway, nil
	case config.PushProviderSNS:
		gateway, err := push.NewSNSGateway(ctx, cfg.Push.SNSRegion)
		if err != nil {
			return nil, err
		}
		return gateway, nil
	default:
		return nil, fmt.Errorf("unsupported push provider %q", provider)
	}
}
