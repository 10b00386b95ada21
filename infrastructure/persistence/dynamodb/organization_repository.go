package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/ports"
	"github.com/hoyacom/apiman/domain/orgs"
)

// OrganizationRepository implements ports.OrganizationRepository.
type OrganizationRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewOrganizationRepository creates a new OrganizationRepository.
func NewOrganizationRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.OrganizationRepository {
	return &OrganizationRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// organizationItem is the DynamoDB item structure for an organization.
type organizationItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	Name        string `dynamodbav:"Name"`
	Description string `dynamodbav:"Description,omitempty"`
	CreatedBy   string `dynamodbav:"CreatedBy"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
}

// GetByName returns the organization, or nil when unknown.
func (r *OrganizationRepository) GetByName(ctx context.Context, name string) (*orgs.Organization, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: orgPK(name)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item organizationItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal organization: %w", err)
	}

	createdAt, _ := time.Parse(time.RFC3339, item.CreatedAt)

	return &orgs.Organization{
		Name:        item.Name,
		Description: item.Description,
		CreatedBy:   item.CreatedBy,
		CreatedAt:   createdAt,
	}, nil
}

// Create stores a new organization. An existing name is an error.
func (r *OrganizationRepository) Create(ctx context.Context, org orgs.Organization) error {
	item := organizationItem{
		PK:          orgPK(org.Name),
		SK:          "METADATA",
		EntityType:  "ORGANIZATION",
		Name:        org.Name,
		Description: org.Description,
		CreatedBy:   org.CreatedBy,
		CreatedAt:   org.CreatedAt.Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal organization: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}

	r.logger.Debug("Organization created", zap.String("name", org.Name))
	return nil
}
