package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/ports"
	"github.com/hoyacom/apiman/domain/apis"
)

// ApiRepository implements the read side of the portal API catalogue on the
// single-table layout. APIs and everything beneath them (versions, plans,
// policies, definitions) share the organization partition, so each listing is
// one query with a key prefix.
type ApiRepository struct {
	client    *dynamodb.Client
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewApiRepository creates a new ApiRepository. indexName is the GSI that
// collects featured APIs.
func NewApiRepository(client *dynamodb.Client, tableName, indexName string, logger *zap.Logger) ports.ApiRepository {
	return &ApiRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

// apiItem is the DynamoDB item structure for an API summary.
type apiItem struct {
	PK               string `dynamodbav:"PK"`
	SK               string `dynamodbav:"SK"`
	GSI1PK           string `dynamodbav:"GSI1PK,omitempty"`
	GSI1SK           string `dynamodbav:"GSI1SK,omitempty"`
	EntityType       string `dynamodbav:"EntityType"`
	OrganizationID   string `dynamodbav:"OrganizationID"`
	OrganizationName string `dynamodbav:"OrganizationName"`
	ApiID            string `dynamodbav:"ApiID"`
	Name             string `dynamodbav:"Name"`
	Description      string `dynamodbav:"Description,omitempty"`
	Image            string `dynamodbav:"Image,omitempty"`
	Featured         bool   `dynamodbav:"Featured"`
	SearchText       string `dynamodbav:"SearchText"`
	CreatedAt        string `dynamodbav:"CreatedAt"`
}

// apiVersionItem is the DynamoDB item structure for an API version.
type apiVersionItem struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	EntityType     string `dynamodbav:"EntityType"`
	OrganizationID string `dynamodbav:"OrganizationID"`
	ApiID          string `dynamodbav:"ApiID"`
	Version        string `dynamodbav:"Version"`
	Status         string `dynamodbav:"Status"`
	Endpoint       string `dynamodbav:"Endpoint,omitempty"`
	ExposeInPortal bool   `dynamodbav:"ExposeInPortal"`
	DefinitionType string `dynamodbav:"DefinitionType"`
	CreatedAt      string `dynamodbav:"CreatedAt"`
	ModifiedAt     string `dynamodbav:"ModifiedAt"`
}

// planItem is the DynamoDB item structure for a plan attached to a version.
type planItem struct {
	PK               string `dynamodbav:"PK"`
	SK               string `dynamodbav:"SK"`
	EntityType       string `dynamodbav:"EntityType"`
	PlanID           string `dynamodbav:"PlanID"`
	PlanName         string `dynamodbav:"PlanName"`
	Version          string `dynamodbav:"Version"`
	Description      string `dynamodbav:"Description,omitempty"`
	RequiresApproval bool   `dynamodbav:"RequiresApproval"`
}

// policyItem is the DynamoDB item structure for a policy on a version.
type policyItem struct {
	PK                 string `dynamodbav:"PK"`
	SK                 string `dynamodbav:"SK"`
	EntityType         string `dynamodbav:"EntityType"`
	PolicyDefinitionID string `dynamodbav:"PolicyDefinitionID"`
	Name               string `dynamodbav:"Name"`
	Description        string `dynamodbav:"Description,omitempty"`
	OrderIndex         int    `dynamodbav:"OrderIndex"`
}

// definitionItem holds a version's definition document.
type definitionItem struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	EntityType     string `dynamodbav:"EntityType"`
	DefinitionType string `dynamodbav:"DefinitionType"`
	Data           []byte `dynamodbav:"Data"`
}

func orgPK(orgID string) string {
	return fmt.Sprintf("ORG#%s", orgID)
}

func versionSK(apiID, version string) string {
	return fmt.Sprintf("API#%s#VERSION#%s", apiID, version)
}

// Search scans the exposed catalogue for APIs matching the query text. The
// catalogue is small enough for a filtered scan; the page window is applied
// after collecting the matches so the total is exact.
func (r *ApiRepository) Search(ctx context.Context, criteria apis.SearchCriteria) ([]apis.ApiSummary, int, error) {
	filter := expression.Name("EntityType").Equal(expression.Value("API"))
	if q := strings.ToLower(strings.TrimSpace(criteria.Query)); q != "" {
		filter = filter.And(expression.Name("SearchText").Contains(q))
	}

	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build scan expression: %w", err)
	}

	var matches []apis.ApiSummary

	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan apis: %w", err)
		}

		for _, raw := range page.Items {
			var item apiItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Skipping unreadable api item", zap.Error(err))
				continue
			}
			matches = append(matches, item.toDomain())
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Name < matches[j].Name
	})

	total := len(matches)
	offset := (criteria.Page - 1) * criteria.PageSize
	if offset >= total {
		return []apis.ApiSummary{}, total, nil
	}
	end := offset + criteria.PageSize
	if end > total {
		end = total
	}

	return matches[offset:end], total, nil
}

// ListFeatured returns the APIs curated onto the landing page, via the
// featured GSI.
func (r *ApiRepository) ListFeatured(ctx context.Context) ([]apis.ApiSummary, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value("FEATURED"))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query featured apis: %w", err)
	}

	featured := make([]apis.ApiSummary, 0, len(result.Items))
	for _, raw := range result.Items {
		var item apiItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Skipping unreadable api item", zap.Error(err))
			continue
		}
		featured = append(featured, item.toDomain())
	}

	return featured, nil
}

// ListVersions lists all versions of an API, exposed or not. Exposure
// filtering is the service's concern.
func (r *ApiRepository) ListVersions(ctx context.Context, orgID, apiID string) ([]apis.ApiVersionSummary, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(orgPK(orgID))).
		And(expression.Key("SK").BeginsWith(versionSK(apiID, "")))
	filter := expression.Name("EntityType").Equal(expression.Value("API_VERSION"))

	expr, err := expression.NewBuilder().
		WithKeyCondition(keyCond).
		WithFilter(filter).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query api versions: %w", err)
	}

	versions := make([]apis.ApiVersionSummary, 0, len(result.Items))
	for _, raw := range result.Items {
		var item apiVersionItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Skipping unreadable api version item", zap.Error(err))
			continue
		}
		versions = append(versions, apis.ApiVersionSummary{
			OrganizationID: item.OrganizationID,
			ApiID:          item.ApiID,
			Version:        item.Version,
			Status:         item.Status,
			ExposeInPortal: item.ExposeInPortal,
		})
	}

	return versions, nil
}

// GetVersion returns the version, or nil when unknown.
func (r *ApiRepository) GetVersion(ctx context.Context, orgID, apiID, version string) (*apis.ApiVersion, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: orgPK(orgID)},
			"SK": &types.AttributeValueMemberS{Value: versionSK(apiID, version)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get api version: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item apiVersionItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal api version: %w", err)
	}

	createdAt, _ := time.Parse(time.RFC3339, item.CreatedAt)
	modifiedAt, _ := time.Parse(time.RFC3339, item.ModifiedAt)

	return &apis.ApiVersion{
		OrganizationID: item.OrganizationID,
		ApiID:          item.ApiID,
		Version:        item.Version,
		Status:         item.Status,
		Endpoint:       item.Endpoint,
		ExposeInPortal: item.ExposeInPortal,
		DefinitionType: apis.DefinitionType(item.DefinitionType),
		CreatedAt:      createdAt,
		ModifiedAt:     modifiedAt,
	}, nil
}

// ListPlans lists the plans attached to an API version.
func (r *ApiRepository) ListPlans(ctx context.Context, orgID, apiID, version string) ([]apis.PlanSummary, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(orgPK(orgID))).
		And(expression.Key("SK").BeginsWith(versionSK(apiID, version) + "#PLAN#"))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}

	plans := make([]apis.PlanSummary, 0, len(result.Items))
	for _, raw := range result.Items {
		var item planItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Skipping unreadable plan item", zap.Error(err))
			continue
		}
		plans = append(plans, apis.PlanSummary{
			PlanID:           item.PlanID,
			PlanName:         item.PlanName,
			Version:          item.Version,
			Description:      item.Description,
			RequiresApproval: item.RequiresApproval,
		})
	}

	return plans, nil
}

// ListPolicies lists the policies attached to an API version, in chain order.
func (r *ApiRepository) ListPolicies(ctx context.Context, orgID, apiID, version string) ([]apis.PolicySummary, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(orgPK(orgID))).
		And(expression.Key("SK").BeginsWith(versionSK(apiID, version) + "#POLICY#"))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}

	items := make([]policyItem, 0, len(result.Items))
	for _, raw := range result.Items {
		var item policyItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Skipping unreadable policy item", zap.Error(err))
			continue
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].OrderIndex < items[j].OrderIndex
	})

	policies := make([]apis.PolicySummary, 0, len(items))
	for _, item := range items {
		policies = append(policies, apis.PolicySummary{
			PolicyDefinitionID: item.PolicyDefinitionID,
			Name:               item.Name,
			Description:        item.Description,
		})
	}

	return policies, nil
}

// GetDefinition returns the stored definition document, or nil when the
// version has none.
func (r *ApiRepository) GetDefinition(ctx context.Context, orgID, apiID, version string) (*apis.Definition, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: orgPK(orgID)},
			"SK": &types.AttributeValueMemberS{Value: versionSK(apiID, version) + "#DEFINITION"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get definition: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item definitionItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal definition: %w", err)
	}

	return &apis.Definition{
		Data: item.Data,
		Type: apis.DefinitionType(item.DefinitionType),
	}, nil
}

// toDomain maps an item back to the domain summary.
func (i apiItem) toDomain() apis.ApiSummary {
	createdAt, _ := time.Parse(time.RFC3339, i.CreatedAt)

	return apis.ApiSummary{
		OrganizationID:   i.OrganizationID,
		OrganizationName: i.OrganizationName,
		ID:               i.ApiID,
		Name:             i.Name,
		Description:      i.Description,
		Image:            i.Image,
		Featured:         i.Featured,
		CreatedAt:        createdAt,
	}
}
