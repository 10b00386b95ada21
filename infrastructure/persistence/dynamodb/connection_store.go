package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// ConnectionStore tracks live websocket connections in a dedicated table.
// Items are keyed by connection; a GSI keyed by user answers "which
// connections does this user have" for pushes.
type ConnectionStore struct {
	client    *dynamodb.Client
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewConnectionStore creates a new ConnectionStore. indexName is the
// user-keyed GSI.
func NewConnectionStore(client *dynamodb.Client, tableName, indexName string, logger *zap.Logger) *ConnectionStore {
	return &ConnectionStore{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

// connectionItem is the DynamoDB item structure for a connection.
type connectionItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	GSI1PK       string `dynamodbav:"GSI1PK"`
	GSI1SK       string `dynamodbav:"GSI1SK"`
	EntityType   string `dynamodbav:"EntityType"`
	ConnectionID string `dynamodbav:"ConnectionID"`
	Username     string `dynamodbav:"Username"`
	ConnectedAt  string `dynamodbav:"ConnectedAt"`
	TTL          int64  `dynamodbav:"TTL"`
}

func connectionPK(connectionID string) string {
	return fmt.Sprintf("CONNECTION#%s", connectionID)
}

// Save records a new connection for a user. Connections expire via TTL in
// case a disconnect is never observed.
func (s *ConnectionStore) Save(ctx context.Context, username, connectionID string) error {
	now := time.Now()
	item := connectionItem{
		PK:           connectionPK(connectionID),
		SK:           "METADATA",
		GSI1PK:       fmt.Sprintf("USER#%s", username),
		GSI1SK:       connectionPK(connectionID),
		EntityType:   "CONNECTION",
		ConnectionID: connectionID,
		Username:     username,
		ConnectedAt:  now.Format(time.RFC3339),
		TTL:          now.Add(24 * time.Hour).Unix(),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal connection: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to save connection: %w", err)
	}

	s.logger.Debug("Connection saved",
		zap.String("connectionID", connectionID),
		zap.String("username", username),
	)

	return nil
}

// ListByUser returns the user's live connection IDs.
func (s *ConnectionStore) ListByUser(ctx context.Context, username string) ([]string, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(fmt.Sprintf("USER#%s", username)))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(s.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}

	connectionIDs := make([]string, 0, len(result.Items))
	for _, raw := range result.Items {
		var item connectionItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			s.logger.Warn("Skipping unreadable connection item", zap.Error(err))
			continue
		}
		connectionIDs = append(connectionIDs, item.ConnectionID)
	}

	return connectionIDs, nil
}

// Delete removes a connection record.
func (s *ConnectionStore) Delete(ctx context.Context, connectionID string) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: connectionPK(connectionID)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	}); err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	return nil
}
