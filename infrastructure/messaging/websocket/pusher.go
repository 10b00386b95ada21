// Package websocket pushes notifications to users' live portal sessions via
// the API Gateway management API.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/ports"
	notifdomain "github.com/hoyacom/apiman/domain/notifications"
)

// wireMessage is the frame sent to connected clients.
type wireMessage struct {
	Type string                       `json:"type"`
	Data notifdomain.NotificationDTO `json:"data"`
}

// Pusher is a notification handler that delivers to every live websocket
// connection the recipient has. Users with no connections are skipped; a
// connection that has gone away is cleaned out of the store.
type Pusher struct {
	client      *apigatewaymanagementapi.Client
	connections ports.ConnectionStore
	logger      *zap.Logger
}

// NewPusher creates a pusher. The client must be configured with the
// websocket stage endpoint.
func NewPusher(client *apigatewaymanagementapi.Client, connections ports.ConnectionStore, logger *zap.Logger) *Pusher {
	return &Pusher{
		client:      client,
		connections: connections,
		logger:      logger,
	}
}

// NewManagementClient builds an API Gateway management client bound to the
// websocket endpoint.
func NewManagementClient(cfg aws.Config, endpoint string) *apigatewaymanagementapi.Client {
	return apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
}

// Wants accepts every notification; recipients without connections cost one
// store lookup and nothing else.
func (p *Pusher) Wants(notification notifdomain.NotificationDTO) bool {
	return true
}

// Handle pushes the notification to each of the recipient's connections.
func (p *Pusher) Handle(ctx context.Context, notification notifdomain.NotificationDTO) error {
	connectionIDs, err := p.connections.ListByUser(ctx, notification.Recipient.Username)
	if err != nil {
		return fmt.Errorf("failed to list connections: %w", err)
	}
	if len(connectionIDs) == 0 {
		return nil
	}

	frame, err := json.Marshal(wireMessage{Type: "notification", Data: notification})
	if err != nil {
		return fmt.Errorf("failed to marshal notification frame: %w", err)
	}

	var failed int
	for _, connectionID := range connectionIDs {
		if err := p.post(ctx, connectionID, frame); err != nil {
			p.logger.Warn("Failed to push notification",
				zap.String("connectionID", connectionID),
				zap.Error(err),
			)
			failed++
		}
	}

	if failed == len(connectionIDs) {
		return fmt.Errorf("all %d pushes failed", failed)
	}
	return nil
}

// post sends one frame, deleting the connection when the peer is gone.
func (p *Pusher) post(ctx context.Context, connectionID string, frame []byte) error {
	_, err := p.client.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         frame,
	})
	if err != nil {
		var gone *apigwtypes.GoneException
		if errors.As(err, &gone) {
			p.logger.Debug("Connection gone, removing",
				zap.String("connectionID", connectionID),
			)
			if delErr := p.connections.Delete(ctx, connectionID); delErr != nil {
				p.logger.Warn("Failed to remove stale connection",
					zap.String("connectionID", connectionID),
					zap.Error(delErr),
				)
			}
			return nil
		}
		return err
	}
	return nil
}
